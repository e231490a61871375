// Package cache implements the last-value price store.
//
// The cache maps normalized symbols to their most recent PriceSnapshot.
// Entries never expire; a symbol absent from the cache simply has no known
// price yet. The Relay Supervisor is the only writer; the broadcaster,
// late-subscribing clients, and the HTTP price handler read concurrently.
package cache
