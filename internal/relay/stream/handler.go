package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"pricerelay/internal/relay/memorystore"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ParseError describes why an inbound message could not be turned into a trade.
type ParseError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid trade message: %s", e.Reason)
	}
	return fmt.Sprintf("invalid trade message: field %q: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MakeMessageHandler returns a function that parses inbound websocket messages into
// trade events and forwards each one to onTrade. Messages that fail to parse are
// dropped and logged.
func MakeMessageHandler(logger *zap.Logger, onTrade func(memorystore.TradeEvent)) func(msg []byte) {
	return func(msg []byte) {
		ev, err := ParseTrade(msg)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) && perr.Reason == reasonNotTrade {
				logger.Debug("ignoring non-trade message", zap.Int("bytes", len(msg)))
				return
			}
			logger.Warn("dropping malformed trade message", zap.Int("bytes", len(msg)), zap.Error(err))
			return
		}
		onTrade(ev)
	}
}

const reasonNotTrade = "not a trade event"

// ParseTrade decodes a raw trade message, or a combined-stream envelope wrapping one.
func ParseTrade(msg []byte) (memorystore.TradeEvent, error) {
	msg = bytes.TrimSpace(msg)

	var envelope combinedMessage
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return memorystore.TradeEvent{}, &ParseError{Reason: "malformed json", Err: err}
	}
	if envelope.Stream != "" && len(envelope.Data) > 0 {
		msg = envelope.Data
	}

	var raw TradeMessage
	if err := json.Unmarshal(msg, &raw); err != nil {
		return memorystore.TradeEvent{}, &ParseError{Reason: "malformed json", Err: err}
	}
	if raw.EventType != "" && raw.EventType != "trade" {
		return memorystore.TradeEvent{}, &ParseError{Field: "e", Reason: reasonNotTrade}
	}

	if raw.Symbol == nil || strings.TrimSpace(*raw.Symbol) == "" {
		return memorystore.TradeEvent{}, &ParseError{Field: "s", Reason: "missing"}
	}
	price, err := parseAmount("p", raw.Price)
	if err != nil {
		return memorystore.TradeEvent{}, err
	}
	qty, err := parseAmount("q", raw.Quantity)
	if err != nil {
		return memorystore.TradeEvent{}, err
	}
	if raw.TradeTime == nil {
		return memorystore.TradeEvent{}, &ParseError{Field: "T", Reason: "missing"}
	}
	if *raw.TradeTime <= 0 {
		return memorystore.TradeEvent{}, &ParseError{Field: "T", Reason: "must be positive"}
	}

	return memorystore.TradeEvent{
		Symbol:          strings.ToUpper(strings.TrimSpace(*raw.Symbol)),
		Price:           price,
		Quantity:        qty,
		EventTimeMillis: *raw.TradeTime,
	}, nil
}

// parseAmount parses a non-negative decimal string. decimal rejects the literal
// NaN and Inf, but a large exponent such as 1e400 still overflows float64.
func parseAmount(field string, s *string) (float64, error) {
	if s == nil {
		return 0, &ParseError{Field: field, Reason: "missing"}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return 0, &ParseError{Field: field, Reason: "not a number", Err: err}
	}
	if d.IsNegative() {
		return 0, &ParseError{Field: field, Reason: "must not be negative"}
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &ParseError{Field: field, Reason: "out of range"}
	}
	return f, nil
}
