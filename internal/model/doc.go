// Package model defines shared data types used across the relay.
//
// Conventions:
//   - Symbols: normalized base-asset identifiers, uppercase, quote suffix
//     stripped (wire "BTCUSDT" → "BTC")
//   - Prices: float64 USD values as parsed from the venue's string fields
//   - Timestamps: time.Time, serialized as RFC 3339 in client payloads
//   - Client IDs: opaque strings minted at connection accept time
package model
