package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuoteSuffix is the quote-currency suffix carried by raw venue symbols.
const QuoteSuffix = "USDT"

// ClientID uniquely identifies one downstream client connection.
//
// It is minted at connection-accept time and is deliberately decoupled from
// any transport-level identifier (remote address, socket id), so relay state
// never aliases a recycled transport resource.
type ClientID string

// NewClientID mints a fresh client identity.
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}

// NormalizeSymbol converts a raw venue symbol to its canonical form:
// uppercase with the quote-currency suffix stripped ("btcusdt" → "BTC").
// The function is pure and idempotent; normalizing an already-normalized
// symbol returns it unchanged.
func NormalizeSymbol(raw string) string {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	sym = strings.TrimSuffix(sym, QuoteSuffix)
	return sym
}

// StreamName returns the venue stream identifier for a normalized symbol,
// e.g. "BTC" → "btcusdt@ticker".
func StreamName(symbol string) string {
	return strings.ToLower(symbol) + strings.ToLower(QuoteSuffix) + "@ticker"
}

// PriceSnapshot is the most recent observed price for one symbol.
// Snapshots are immutable; a new tick replaces the prior snapshot wholesale.
type PriceSnapshot struct {
	Symbol     string    // Normalized symbol (e.g., "BTC")
	USD        float64   // Last price in USD
	Change     float64   // 24h percent change
	ObservedAt time.Time // Local receive time of the tick
}

// Entry converts a snapshot into the client-facing payload shape.
func (s PriceSnapshot) Entry() PriceEntry {
	return PriceEntry{
		USD:       s.USD,
		Change:    s.Change,
		Timestamp: s.ObservedAt,
	}
}

// PriceEntry is one symbol's price inside a push message.
type PriceEntry struct {
	USD       float64   `json:"usd"`
	Change    float64   `json:"change"`
	Timestamp time.Time `json:"timestamp"`
}

// PushMessage is the payload delivered to downstream clients. Prices is keyed
// by lowercase symbol.
type PushMessage struct {
	Timestamp time.Time             `json:"timestamp"`
	Prices    map[string]PriceEntry `json:"prices"`
}

// NewPushMessage builds a push payload from the given snapshots.
func NewPushMessage(at time.Time, snapshots ...PriceSnapshot) PushMessage {
	prices := make(map[string]PriceEntry, len(snapshots))
	for _, s := range snapshots {
		prices[strings.ToLower(s.Symbol)] = s.Entry()
	}
	return PushMessage{Timestamp: at, Prices: prices}
}
