// Package feed implements the Upstream Feed Connection.
//
// The feed maintains exactly one live WebSocket connection to the venue's
// streaming endpoint, translates the active symbol set into venue subscribe
// and unsubscribe frames, and parses inbound ticker frames into normalized
// price snapshots.
//
// Failure semantics: any transport error moves the feed to Disconnected and
// schedules a reconnect after a fixed delay. There is no retry cap and no
// terminal state; the feed runs for the lifetime of the process. The venue
// does not remember subscriptions across connections, so on every reconnect
// the upstream subscription state is reset and the full active set is
// re-subscribed.
package feed
