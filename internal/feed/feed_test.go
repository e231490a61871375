package feed

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/yatin-commits/crypto-relay/internal/model"
)

// fakeClient is an in-memory Client for driving the feed manager.
type fakeClient struct {
	mu         sync.Mutex
	sent       [][]byte
	connectErr error

	messages chan Message
	errors   chan error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		messages: make(chan Message, 16),
		errors:   make(chan error, 1),
	}
}

func (c *fakeClient) Connect(ctx context.Context) error { return c.connectErr }
func (c *fakeClient) Close() error                      { return nil }
func (c *fakeClient) Messages() <-chan Message          { return c.messages }
func (c *fakeClient) Errors() <-chan error              { return c.errors }
func (c *fakeClient) IsConnected() bool                 { return true }

func (c *fakeClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.sent = append(c.sent, buf)
	return nil
}

func (c *fakeClient) sentCommands(t *testing.T) []command {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	cmds := make([]command, 0, len(c.sent))
	for _, data := range c.sent {
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			t.Fatalf("sent frame is not a command: %s", data)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func testConfig() Config {
	return Config{
		URL:            "wss://example.invalid/ws",
		ReconnectDelay: 10 * time.Millisecond,
		WriteTimeout:   time.Second,
		PingInterval:   time.Minute,
		PingTimeout:    2 * time.Minute,
		BufferSize:     16,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestFeed_SubscribesActiveSetOnConnect(t *testing.T) {
	cl := newFakeClient()
	f := New(testConfig(), nil)
	f.newClient = func() Client { return cl }
	f.SetActiveSource(func() []string { return []string{"BTC", "ETH"} })

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.Stop(ctx)

	waitFor(t, func() bool { return len(cl.sentCommands(t)) >= 1 }, "subscribe command")

	cmds := cl.sentCommands(t)
	if cmds[0].Method != methodSubscribe {
		t.Errorf("Method = %q, want SUBSCRIBE", cmds[0].Method)
	}
	want := []string{"btcusdt@ticker", "ethusdt@ticker"}
	if len(cmds[0].Params) != 2 || cmds[0].Params[0] != want[0] || cmds[0].Params[1] != want[1] {
		t.Errorf("Params = %v, want %v", cmds[0].Params, want)
	}
	if cmds[0].ID == 0 {
		t.Error("command id should be nonzero")
	}
}

func TestFeed_Reconcile_AddsAndRemoves(t *testing.T) {
	cl := newFakeClient()
	f := New(testConfig(), nil)
	f.newClient = func() Client { return cl }
	f.SetActiveSource(func() []string { return []string{"BTC"} })

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.Stop(ctx)

	waitFor(t, func() bool { return len(cl.sentCommands(t)) >= 1 }, "initial subscribe")

	// BTC's last subscriber left, ETH arrived.
	f.Reconcile([]string{"ETH"})

	cmds := cl.sentCommands(t)
	if len(cmds) != 3 {
		t.Fatalf("len(commands) = %d, want 3 (initial + add + remove)", len(cmds))
	}

	add := cmds[1]
	if add.Method != methodSubscribe || len(add.Params) != 1 || add.Params[0] != "ethusdt@ticker" {
		t.Errorf("add command = %+v, want SUBSCRIBE [ethusdt@ticker]", add)
	}

	remove := cmds[2]
	if remove.Method != methodUnsubscribe || len(remove.Params) != 1 || remove.Params[0] != "btcusdt@ticker" {
		t.Errorf("remove command = %+v, want UNSUBSCRIBE [btcusdt@ticker]", remove)
	}
}

func TestFeed_Reconcile_NoChange(t *testing.T) {
	cl := newFakeClient()
	f := New(testConfig(), nil)
	f.newClient = func() Client { return cl }
	f.SetActiveSource(func() []string { return []string{"BTC"} })

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.Stop(ctx)

	waitFor(t, func() bool { return len(cl.sentCommands(t)) >= 1 }, "initial subscribe")

	f.Reconcile([]string{"BTC"})

	if cmds := cl.sentCommands(t); len(cmds) != 1 {
		t.Errorf("len(commands) = %d, want 1 (no-op reconcile sends nothing)", len(cmds))
	}
}

func TestFeed_Reconcile_Disconnected(t *testing.T) {
	f := New(testConfig(), nil)

	// Never started; must not panic and must not track anything.
	f.Reconcile([]string{"BTC"})

	if got := f.Stats().SubscribedSymbols; got != 0 {
		t.Errorf("SubscribedSymbols = %d, want 0", got)
	}
}

func TestFeed_ParsesTick(t *testing.T) {
	cl := newFakeClient()
	f := New(testConfig(), nil)
	f.newClient = func() Client { return cl }

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.Stop(ctx)

	receivedAt := time.Now()
	cl.messages <- Message{
		Data:       []byte(`{"s":"BTCUSDT","c":"65000.5","P":"1.2"}`),
		ReceivedAt: receivedAt,
	}

	var snap model.PriceSnapshot
	select {
	case snap = <-f.Ticks():
	case <-time.After(2 * time.Second):
		t.Fatal("no tick received")
	}

	if snap.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", snap.Symbol)
	}
	if snap.USD != 65000.5 {
		t.Errorf("USD = %v, want 65000.5", snap.USD)
	}
	if snap.Change != 1.2 {
		t.Errorf("Change = %v, want 1.2", snap.Change)
	}
	if !snap.ObservedAt.Equal(receivedAt) {
		t.Errorf("ObservedAt = %v, want %v", snap.ObservedAt, receivedAt)
	}
}

func TestFeed_DiscardsMalformedFrames(t *testing.T) {
	cl := newFakeClient()
	f := New(testConfig(), nil)
	f.newClient = func() Client { return cl }

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.Stop(ctx)

	frames := [][]byte{
		[]byte(`{"foo":"bar"}`),
		[]byte(`not json`),
		[]byte(`{"s":"BTCUSDT","c":"not-a-number","P":"1.2"}`),
		[]byte(`{"s":"BTCUSDT","c":"65000.5"}`), // missing P
	}
	for _, frame := range frames {
		cl.messages <- Message{Data: frame, ReceivedAt: time.Now()}
	}

	waitFor(t, func() bool { return f.Stats().FramesDiscarded == int64(len(frames)) }, "frames discarded")

	select {
	case snap := <-f.Ticks():
		t.Errorf("unexpected tick from malformed frame: %+v", snap)
	default:
	}
}

func TestFeed_IgnoresCommandResponses(t *testing.T) {
	cl := newFakeClient()
	f := New(testConfig(), nil)
	f.newClient = func() Client { return cl }

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.Stop(ctx)

	cl.messages <- Message{Data: []byte(`{"result":null,"id":1}`), ReceivedAt: time.Now()}

	// Ack frames are neither ticks nor anomalies.
	time.Sleep(20 * time.Millisecond)
	stats := f.Stats()
	if stats.FramesDiscarded != 0 {
		t.Errorf("FramesDiscarded = %d, want 0", stats.FramesDiscarded)
	}
	if stats.TicksParsed != 0 {
		t.Errorf("TicksParsed = %d, want 0", stats.TicksParsed)
	}
}

func TestFeed_ResubscribesCurrentSetAfterReconnect(t *testing.T) {
	first := newFakeClient()
	second := newFakeClient()
	clients := []*fakeClient{first, second}

	var clientIdx int
	var mu sync.Mutex
	active := []string{"BTC"}

	f := New(testConfig(), nil)
	f.newClient = func() Client {
		mu.Lock()
		defer mu.Unlock()
		cl := clients[clientIdx]
		if clientIdx < len(clients)-1 {
			clientIdx++
		}
		return cl
	}
	f.SetActiveSource(func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), active...)
	})

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.Stop(ctx)

	waitFor(t, func() bool { return len(first.sentCommands(t)) >= 1 }, "initial subscribe")

	// Active set changes while the connection is down.
	mu.Lock()
	active = []string{"ETH"}
	mu.Unlock()

	first.errors <- ErrNotConnected // simulate transport failure

	waitFor(t, func() bool { return len(second.sentCommands(t)) >= 1 }, "resubscribe after reconnect")

	cmds := second.sentCommands(t)
	if cmds[0].Method != methodSubscribe {
		t.Errorf("Method = %q, want SUBSCRIBE", cmds[0].Method)
	}
	// The set at reconnect time, not the set at disconnect time.
	if len(cmds[0].Params) != 1 || cmds[0].Params[0] != "ethusdt@ticker" {
		t.Errorf("Params = %v, want [ethusdt@ticker]", cmds[0].Params)
	}

	if got := f.Stats().Reconnects; got != 1 {
		t.Errorf("Reconnects = %d, want 1", got)
	}
}
