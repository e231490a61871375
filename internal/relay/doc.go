// Package relay implements the Relay Supervisor and the fan-out broadcaster.
//
// The supervisor is the single sequence point for all relay state: client
// subscribe/attach/disconnect events and upstream ticks are serialized
// through one run loop, so registry, cache, and upstream subscription
// mutations never interleave. Components outside the loop only ever read
// snapshots (active set, cached prices).
//
// Fan-out pushes one symbol's snapshot per tick to each subscribed client.
// Delivery to a dead or slow client is a non-blocking no-op; one client's
// failure never affects delivery to the others.
package relay
