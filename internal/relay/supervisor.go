package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/yatin-commits/crypto-relay/internal/cache"
	"github.com/yatin-commits/crypto-relay/internal/model"
	"github.com/yatin-commits/crypto-relay/internal/registry"
)

// Supervisor wires the registry, cache, upstream feed, and broadcaster
// together behind a single event loop.
type Supervisor struct {
	cfg    Config
	logger *slog.Logger

	registry *registry.Registry
	cache    *cache.Cache
	upstream Upstream
	ticks    <-chan model.PriceSnapshot

	events chan event
	done   chan struct{} // closed when the run loop exits

	// conns is touched only by the run loop.
	conns map[model.ClientID]Pusher

	statsMu       sync.RWMutex
	ticksApplied  int64
	ticksStale    int64
	pushesSent    int64
	pushesDropped int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor over the given collaborators.
func NewSupervisor(
	cfg Config,
	reg *registry.Registry,
	c *cache.Cache,
	upstream Upstream,
	ticks <-chan model.PriceSnapshot,
	logger *slog.Logger,
) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		cache:    c,
		upstream: upstream,
		ticks:    ticks,
		events:   make(chan event, cfg.EventBufferSize),
		done:     make(chan struct{}),
		conns:    make(map[model.ClientID]Pusher),
	}
}

// Start begins the event loop.
func (s *Supervisor) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("relay supervisor started",
		"event_buffer", s.cfg.EventBufferSize,
	)

	return nil
}

// Stop shuts down the event loop.
func (s *Supervisor) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("relay supervisor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveSymbols snapshots the current active symbol set. Used by the feed
// to subscribe the full set after a reconnect.
func (s *Supervisor) ActiveSymbols() []string {
	return s.registry.ActiveSymbols()
}

// Attach registers a client's push target. Must be called before the client's
// first subscribe.
func (s *Supervisor) Attach(id model.ClientID, p Pusher) {
	s.enqueue(event{kind: eventAttach, id: id, pusher: p})
}

// Subscribe replaces the client's desired symbol set. Events for one client
// are applied in the order they were enqueued.
func (s *Supervisor) Subscribe(id model.ClientID, symbols []string) {
	s.enqueue(event{kind: eventSubscribe, id: id, symbols: symbols})
}

// Disconnect purges all state for the client. Safe to call more than once.
func (s *Supervisor) Disconnect(id model.ClientID) {
	s.enqueue(event{kind: eventDisconnect, id: id})
}

// Stats returns runtime statistics.
func (s *Supervisor) Stats() Stats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	return Stats{
		Clients:       s.registry.ClientCount(),
		ActiveSymbols: len(s.registry.ActiveSymbols()),
		CachedSymbols: s.cache.Len(),
		TicksApplied:  s.ticksApplied,
		TicksStale:    s.ticksStale,
		PushesSent:    s.pushesSent,
		PushesDropped: s.pushesDropped,
	}
}

// enqueue adds an event to the inbox, giving up once the supervisor has
// stopped. Events enqueued before Start are buffered and applied when the
// run loop comes up.
func (s *Supervisor) enqueue(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// run is the single sequence point for all relay state mutations.
func (s *Supervisor) run() {
	defer s.wg.Done()
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return

		case ev := <-s.events:
			s.handleEvent(ev)

		case snap, ok := <-s.ticks:
			if !ok {
				s.logger.Info("tick channel closed")
				return
			}
			s.handleTick(snap)
		}
	}
}

// handleEvent applies one client event.
func (s *Supervisor) handleEvent(ev event) {
	switch ev.kind {
	case eventAttach:
		s.conns[ev.id] = ev.pusher

	case eventSubscribe:
		active := s.registry.SetSubscription(ev.id, ev.symbols)
		s.upstream.Reconcile(active)
		s.sendCachedSnapshot(ev.id)

		s.logger.Debug("subscription updated",
			"client", ev.id,
			"symbols", s.registry.Symbols(ev.id),
			"active", active,
		)

	case eventDisconnect:
		delete(s.conns, ev.id)
		active := s.registry.RemoveClient(ev.id)
		s.upstream.Reconcile(active)

		s.logger.Debug("client disconnected",
			"client", ev.id,
			"active", active,
		)
	}
}

// handleTick applies one upstream tick: cache write, then fan-out.
func (s *Supervisor) handleTick(snap model.PriceSnapshot) {
	if !s.cache.Put(snap) {
		s.statsMu.Lock()
		s.ticksStale++
		s.statsMu.Unlock()

		s.logger.Debug("dropping stale tick",
			"symbol", snap.Symbol,
			"observed_at", snap.ObservedAt,
		)
		return
	}

	s.statsMu.Lock()
	s.ticksApplied++
	s.statsMu.Unlock()

	s.publish(snap)
}

// sendCachedSnapshot pushes whatever cached prices exist for the client's
// current set, so a new subscriber is not left empty until the next tick.
func (s *Supervisor) sendCachedSnapshot(id model.ClientID) {
	p, ok := s.conns[id]
	if !ok {
		return
	}

	snaps := s.cache.GetMany(s.registry.Symbols(id))
	data, err := json.Marshal(model.NewPushMessage(time.Now(), snaps...))
	if err != nil {
		s.logger.Error("marshal snapshot payload", "client", id, "error", err)
		return
	}
	s.deliver(id, p, data)
}
