package relay

import (
	"github.com/yatin-commits/crypto-relay/internal/model"
)

// Pusher delivers one encoded payload to one downstream client. Payloads
// are encoded once by the supervisor and shared across subscribers.
// Implementations must not block: a push that cannot be delivered
// immediately returns false and the payload is dropped at the transport
// layer.
type Pusher interface {
	Push(data []byte) bool
}

// Upstream is the feed surface the supervisor reconciles against.
type Upstream interface {
	Reconcile(active []string)
}

// Config configures the supervisor.
type Config struct {
	EventBufferSize int // Inbox size for client events
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EventBufferSize: 256,
	}
}

// Stats contains runtime statistics for health reporting.
type Stats struct {
	Clients       int
	ActiveSymbols int
	CachedSymbols int
	TicksApplied  int64
	TicksStale    int64
	PushesSent    int64
	PushesDropped int64
}

// eventKind discriminates client events in the supervisor inbox.
type eventKind int

const (
	eventAttach eventKind = iota
	eventSubscribe
	eventDisconnect
)

// event is one client event in the supervisor inbox.
type event struct {
	kind    eventKind
	id      model.ClientID
	symbols []string
	pusher  Pusher
}
