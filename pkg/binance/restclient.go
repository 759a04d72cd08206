package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// GetTradingSymbols returns which of the given symbols the exchange reports as TRADING.
// The result maps every requested symbol to its trading state.
func (c *RESTClient) GetTradingSymbols(ctx context.Context, symbols []string) (map[string]bool, error) {
	endpoint := c.baseURL + "/api/v3/exchangeInfo"
	if len(symbols) > 0 {
		list, err := json.Marshal(symbols)
		if err != nil {
			return nil, fmt.Errorf("encoding symbols: %w", err)
		}
		endpoint += "?symbols=" + url.QueryEscape(string(list))
	}

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr APIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return nil, fmt.Errorf("binance error %d: %s", apiErr.Code, apiErr.Msg)
		}
		return nil, fmt.Errorf("binance error: %s", body)
	}

	var info ExchangeInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		out[s] = false
	}
	for _, s := range info.Symbols {
		if _, ok := out[s.Symbol]; ok || len(symbols) == 0 {
			out[s.Symbol] = s.Status == SymbolStatusTrading
		}
	}
	return out, nil
}
