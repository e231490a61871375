package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/yatin-commits/crypto-relay/internal/model"
)

// Feed maintains the single upstream connection and its subscription state.
type Feed struct {
	cfg    Config
	logger *slog.Logger

	// newClient builds a fresh connection for each (re)connect attempt.
	newClient func() Client

	// active returns a snapshot of the current active symbol set. It is
	// consulted at connect time so a reconnect subscribes the set as it is
	// then, not as it was when the previous connection dropped.
	active func() []string

	ticks chan model.PriceSnapshot

	mu         sync.Mutex
	client     Client
	state      State
	subscribed map[string]struct{} // symbols the venue believes we follow
	cmdID      int64

	ticksParsed     int64
	framesDiscarded int64
	reconnects      int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a feed manager for the configured venue.
func New(cfg Config, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Feed{
		cfg:        cfg,
		logger:     logger,
		ticks:      make(chan model.PriceSnapshot, cfg.BufferSize),
		state:      StateInit,
		subscribed: make(map[string]struct{}),
	}
	f.newClient = func() Client {
		return NewClient(ClientConfig{
			URL:              cfg.URL,
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     cfg.WriteTimeout,
			PingInterval:     cfg.PingInterval,
			PingTimeout:      cfg.PingTimeout,
			BufferSize:       cfg.BufferSize,
		}, logger)
	}
	return f
}

// SetActiveSource sets the snapshot source for the active symbol set.
// Must be called before Start.
func (f *Feed) SetActiveSource(fn func() []string) {
	f.active = fn
}

// Ticks returns the channel of parsed, normalized price snapshots.
func (f *Feed) Ticks() <-chan model.PriceSnapshot {
	return f.ticks
}

// Start begins the connect/read/reconnect loop.
func (f *Feed) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	return nil
}

// Stop shuts the feed down.
func (f *Feed) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}

	f.mu.Lock()
	if f.client != nil {
		f.client.Close()
	}
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("feed stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current connection state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Stats returns feed statistics for health reporting.
func (f *Feed) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		State:             f.state,
		SubscribedSymbols: len(f.subscribed),
		TicksParsed:       f.ticksParsed,
		FramesDiscarded:   f.framesDiscarded,
		Reconnects:        f.reconnects,
	}
}

// Reconcile aligns the venue's subscription set with the given active set:
// a SUBSCRIBE frame for additions and an UNSUBSCRIBE frame for symbols no
// live client wants anymore. Safe to call in any state; while disconnected
// it is a no-op because the connect path subscribes the full set itself.
func (f *Feed) Reconcile(active []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateConnected || f.client == nil {
		return
	}

	want := make(map[string]struct{}, len(active))
	var add []string
	for _, sym := range active {
		want[sym] = struct{}{}
		if _, ok := f.subscribed[sym]; !ok {
			add = append(add, sym)
		}
	}
	var remove []string
	for sym := range f.subscribed {
		if _, ok := want[sym]; !ok {
			remove = append(remove, sym)
		}
	}
	sort.Strings(add)
	sort.Strings(remove)

	if len(add) > 0 {
		if err := f.sendCommandLocked(methodSubscribe, add); err != nil {
			// Left unmarked so the next reconcile or reconnect retries it.
			f.logger.Warn("subscribe command failed", "symbols", add, "error", err)
		} else {
			for _, sym := range add {
				f.subscribed[sym] = struct{}{}
			}
			f.logger.Info("subscribed upstream", "symbols", add)
		}
	}

	if len(remove) > 0 {
		// Removal is best effort; failure only leaves extra upstream traffic.
		if err := f.sendCommandLocked(methodUnsubscribe, remove); err != nil {
			f.logger.Warn("unsubscribe command failed", "symbols", remove, "error", err)
		} else {
			for _, sym := range remove {
				delete(f.subscribed, sym)
			}
			f.logger.Info("unsubscribed upstream", "symbols", remove)
		}
	}
}

// sendCommandLocked frames and sends a stream control command
// (caller must hold f.mu).
func (f *Feed) sendCommandLocked(method string, symbols []string) error {
	streams := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		streams = append(streams, model.StreamName(sym))
	}

	f.cmdID++
	data, err := json.Marshal(command{
		Method: method,
		Params: streams,
		ID:     f.cmdID,
	})
	if err != nil {
		return err
	}
	return f.client.Send(data)
}

// run is the connect/read/reconnect loop. It only exits on context cancel.
func (f *Feed) run() {
	defer f.wg.Done()

	for {
		f.setState(StateConnecting)

		cl := f.newClient()
		if err := cl.Connect(f.ctx); err != nil {
			f.logger.Warn("upstream connect failed",
				"url", f.cfg.URL,
				"error", err,
			)
			f.setState(StateDisconnected)
			if !f.waitReconnect() {
				return
			}
			continue
		}

		f.mu.Lock()
		f.client = cl
		f.state = StateConnected
		// The venue forgets subscriptions across connections.
		f.subscribed = make(map[string]struct{})
		f.mu.Unlock()

		f.logger.Info("connected to upstream feed", "url", f.cfg.URL)

		// Subscribe the full active set as it stands right now.
		if f.active != nil {
			f.Reconcile(f.active())
		}

		f.readLoop(cl)
		cl.Close()

		select {
		case <-f.ctx.Done():
			return
		default:
		}

		f.mu.Lock()
		f.client = nil
		f.state = StateDisconnected
		f.reconnects++
		f.mu.Unlock()

		f.logger.Info("upstream disconnected, reconnecting",
			"delay", f.cfg.ReconnectDelay,
		)
		if !f.waitReconnect() {
			return
		}
	}
}

// readLoop consumes frames from one connection until it fails or the feed
// is stopped.
func (f *Feed) readLoop(cl Client) {
	for {
		select {
		case <-f.ctx.Done():
			return

		case err := <-cl.Errors():
			f.logger.Warn("upstream connection error", "error", err)
			return

		case msg, ok := <-cl.Messages():
			if !ok {
				return
			}
			f.handleFrame(msg)
		}
	}
}

// handleFrame parses one inbound frame. Malformed frames are discarded and
// logged; they never terminate the connection.
func (f *Feed) handleFrame(msg Message) {
	// Command responses ({"result":null,"id":n}) are not ticks.
	if bytes.Contains(msg.Data, []byte(`"id":`)) && !bytes.Contains(msg.Data, []byte(`"s":`)) {
		f.logger.Debug("upstream command response", "frame", string(msg.Data))
		return
	}

	var wire tickerWire
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		f.discardFrame(msg, "unparseable json")
		return
	}
	if wire.Symbol == "" || wire.LastPrice == "" || wire.PercentChange == "" {
		f.discardFrame(msg, "missing required fields")
		return
	}

	usd, err := strconv.ParseFloat(wire.LastPrice, 64)
	if err != nil {
		f.discardFrame(msg, "bad price field")
		return
	}
	change, err := strconv.ParseFloat(wire.PercentChange, 64)
	if err != nil {
		f.discardFrame(msg, "bad percent-change field")
		return
	}

	snap := model.PriceSnapshot{
		Symbol:     model.NormalizeSymbol(wire.Symbol),
		USD:        usd,
		Change:     change,
		ObservedAt: msg.ReceivedAt,
	}

	f.mu.Lock()
	f.ticksParsed++
	f.mu.Unlock()

	select {
	case f.ticks <- snap:
	case <-f.ctx.Done():
	default:
		f.logger.Warn("tick buffer full, dropping tick", "symbol", snap.Symbol)
	}
}

// discardFrame records a protocol anomaly.
func (f *Feed) discardFrame(msg Message, reason string) {
	f.mu.Lock()
	f.framesDiscarded++
	f.mu.Unlock()

	f.logger.Warn("discarding malformed upstream frame",
		"reason", reason,
		"frame", string(msg.Data),
	)
}

// waitReconnect sleeps the fixed reconnect delay. Returns false if the feed
// was stopped while waiting.
func (f *Feed) waitReconnect() bool {
	select {
	case <-f.ctx.Done():
		return false
	case <-time.After(f.cfg.ReconnectDelay):
		return true
	}
}

// setState updates the connection state.
func (f *Feed) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
