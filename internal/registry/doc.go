// Package registry implements the Subscription Registry.
//
// The registry is the authoritative store of each client's desired symbol
// set and the derived active set (the union over all live clients). A
// subscribe event carries the client's complete desired set, not a delta;
// the registry stores the latest set verbatim. All mutations go through the
// Relay Supervisor, which serializes them; reads (active-set snapshots for
// upstream reconciliation) may come from other goroutines.
package registry
