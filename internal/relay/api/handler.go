package api

import (
	"errors"
	"net/http"

	"pricerelay/internal/relay/memorystore"
	"pricerelay/internal/relay/query"

	"github.com/gin-gonic/gin"
)

// Source names the upstream exchange in API responses.
const Source = "Binance"

type PriceHandler struct {
	svc *query.Service
}

func NewPriceHandler(svc *query.Service) *PriceHandler {
	return &PriceHandler{svc: svc}
}

type pricesResponse struct {
	Source           string                               `json:"source"`
	LastServerUpdate string                               `json:"lastServerUpdate"`
	Data             map[string]memorystore.PriceSnapshot `json:"data"`
	Count            int                                  `json:"count"`
}

type priceResponse struct {
	Source string                    `json:"source"`
	Data   memorystore.PriceSnapshot `json:"data"`
}

type historyResponse struct {
	Symbol  string                     `json:"symbol"`
	History []memorystore.HistoryPoint `json:"history"`
}

type healthResponse struct {
	Status           string `json:"status"`
	ServerTime       string `json:"serverTime"`
	ConnectedSymbols int    `json:"connectedSymbols"`
	WSStatus         string `json:"wsStatus"`
}

// GetPrices returns every observed symbol's latest snapshot.
func (h *PriceHandler) GetPrices(c *gin.Context) {
	data := h.svc.Prices()
	c.JSON(http.StatusOK, pricesResponse{
		Source:           Source,
		LastServerUpdate: h.svc.Now().Format(memorystore.TimeLayout),
		Data:             data,
		Count:            len(data),
	})
}

// GetPrice returns one symbol's snapshot; the symbol is case-insensitive.
func (h *PriceHandler) GetPrice(c *gin.Context) {
	snap, err := h.svc.Price(c.Param("symbol"))
	if err != nil {
		abortLookup(c, err)
		return
	}
	c.JSON(http.StatusOK, priceResponse{Source: Source, Data: snap})
}

// GetHistory returns one symbol's recent prices, oldest first.
func (h *PriceHandler) GetHistory(c *gin.Context) {
	symbol, history, err := h.svc.History(c.Param("symbol"))
	if err != nil {
		abortLookup(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{Symbol: symbol, History: history})
}

func (h *PriceHandler) GetHealth(c *gin.Context) {
	health := h.svc.Health()
	c.JSON(http.StatusOK, healthResponse{
		Status:           health.Status,
		ServerTime:       health.ServerTime.Format(memorystore.TimeLayout),
		ConnectedSymbols: health.ConnectedSymbols,
		WSStatus:         health.WSStatus,
	})
}

func abortLookup(c *gin.Context, err error) {
	if errors.Is(err, memorystore.ErrSymbolNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Symbol not found"})
		return
	}
	// query.Service only reports ErrSymbolNotFound today; anything else is a bug.
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
