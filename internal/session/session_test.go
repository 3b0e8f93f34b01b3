package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"htgo/internal/bus"
	"htgo/internal/protocol"
)

type fakeTransport struct {
	mu      sync.Mutex
	inbound chan []byte
	writes  [][]byte
	onWrite func(payload []byte)
	wrote   chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		wrote:   make(chan struct{}, 16),
	}
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Connect(_ context.Context) error { return nil }

func (t *fakeTransport) Close() error { return nil }

func (t *fakeTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case payload, ok := <-t.inbound:
		if !ok {
			return nil, io.EOF
		}

		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) WriteFrame(_ context.Context, payload []byte) error {
	t.mu.Lock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	t.writes = append(t.writes, buf)
	onWrite := t.onWrite
	t.mu.Unlock()

	if onWrite != nil {
		onWrite(buf)
	}
	select {
	case t.wrote <- struct{}{}:
	default:
	}

	return nil
}

func (t *fakeTransport) deliver(env protocol.Envelope) {
	t.inbound <- env.Encode()
}

func (t *fakeTransport) writeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.writes)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T, tr *fakeTransport, opts ...Option) *Engine {
	t.Helper()

	b := bus.New(testLogger())
	t.Cleanup(b.Close)
	e := New(testLogger(), b, tr, opts...)
	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })

	return e
}

func request(e *Engine, group protocol.CommandGroup, cmd protocol.CommandID) (protocol.Envelope, error) {
	return e.Request(context.Background(), protocol.Envelope{Group: group, Command: cmd})
}

type outcome struct {
	env protocol.Envelope
	err error
}

// startRequest issues a request on its own goroutine and returns once the
// frame has hit the transport, so a scripted reply cannot race ahead of
// the pending-slot registration.
func startRequest(t *testing.T, e *Engine, tr *fakeTransport, cmd protocol.CommandID) chan outcome {
	t.Helper()

	res := make(chan outcome, 1)
	go func() {
		env, err := request(e, protocol.GroupBasic, cmd)
		res <- outcome{env, err}
	}()
	select {
	case <-tr.wrote:
	case <-time.After(time.Second):
		t.Fatal("request was not written")
	}

	return res
}

func reply(group protocol.CommandGroup, cmd protocol.CommandID, body []byte) protocol.Envelope {
	return protocol.Envelope{Group: group, IsReply: true, Command: cmd, Body: body}
}

func TestRequestMatchesReplyByCommand(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	res := startRequest(t, e, tr, protocol.CmdGetDevInfo)
	tr.deliver(reply(protocol.GroupBasic, protocol.CmdGetDevInfo, []byte{0x00, 0xAB}))

	r := <-res
	if r.err != nil {
		t.Fatalf("Request() error = %v", r.err)
	}
	got := r.env
	if !got.IsReply || got.Command != protocol.CmdGetDevInfo {
		t.Fatalf("Request() matched wrong envelope: %+v", got)
	}
	if len(got.Body) != 2 || got.Body[1] != 0xAB {
		t.Fatalf("Request() body = %v", got.Body)
	}
}

func TestOutOfOrderRepliesCorrelateByCommand(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	chanResult := startRequest(t, e, tr, protocol.CmdReadRFCh)
	settingsResult := startRequest(t, e, tr, protocol.CmdReadSettings)

	// Replies arrive in the opposite order the requests were issued.
	tr.deliver(reply(protocol.GroupBasic, protocol.CmdReadSettings, []byte{0x00, 0x0A}))
	tr.deliver(reply(protocol.GroupBasic, protocol.CmdReadRFCh, []byte{0x00, 0x0D}))

	settings := <-settingsResult
	if settings.err != nil {
		t.Fatalf("settings request error = %v", settings.err)
	}
	if settings.env.Command != protocol.CmdReadSettings || settings.env.Body[1] != 0x0A {
		t.Fatalf("settings request got %+v", settings.env)
	}

	channel := <-chanResult
	if channel.err != nil {
		t.Fatalf("channel request error = %v", channel.err)
	}
	if channel.env.Command != protocol.CmdReadRFCh || channel.env.Body[1] != 0x0D {
		t.Fatalf("channel request got %+v", channel.env)
	}
}

func TestReissueSupersedesOlderWaiter(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	first := startRequest(t, e, tr, protocol.CmdGetHTStatus)
	second := startRequest(t, e, tr, protocol.CmdGetHTStatus)

	select {
	case r := <-first:
		if !errors.Is(r.err, ErrSuperseded) {
			t.Fatalf("first request error = %v, want ErrSuperseded", r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("first request was not superseded")
	}

	tr.deliver(reply(protocol.GroupBasic, protocol.CmdGetHTStatus, []byte{0x00}))
	select {
	case r := <-second:
		if r.err != nil {
			t.Fatalf("second request error = %v", r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("second request did not resolve")
	}
}

func TestRequestTimesOutAndLateReplyIsDropped(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr, WithTimeout(50*time.Millisecond))

	_, err := request(e, protocol.GroupBasic, protocol.CmdGetPosition)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Request() error = %v, want ErrTimeout", err)
	}

	// Let the late reply drain through the dispatch loop before the slot
	// is re-registered; it must be dropped, not matched.
	tr.deliver(reply(protocol.GroupBasic, protocol.CmdGetPosition, []byte{0x00, 0x01}))
	time.Sleep(50 * time.Millisecond)

	for len(tr.wrote) > 0 {
		<-tr.wrote
	}
	res := startRequest(t, e, tr, protocol.CmdGetPosition)
	tr.deliver(reply(protocol.GroupBasic, protocol.CmdGetPosition, []byte{0x00, 0x02}))
	r := <-res
	if r.err != nil {
		t.Fatalf("second Request() error = %v", r.err)
	}
	if len(r.env.Body) != 2 || r.env.Body[1] != 0x02 {
		t.Fatalf("second Request() body = %v, want fresh reply", r.env.Body)
	}
}

func TestContextCancelReleasesSlot(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Request(ctx, protocol.Envelope{Group: protocol.GroupBasic, Command: protocol.CmdReadSettings})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Request() error = %v, want context.Canceled", err)
	}
	// The cancelled request still wrote its frame; drop its signal so the
	// next wait observes the fresh write.
	for len(tr.wrote) > 0 {
		<-tr.wrote
	}

	res := startRequest(t, e, tr, protocol.CmdReadSettings)
	tr.deliver(reply(protocol.GroupBasic, protocol.CmdReadSettings, []byte{0x00}))
	r := <-res
	if r.err != nil {
		t.Fatalf("Request() after cancel error = %v", r.err)
	}
	if r.env.Command != protocol.CmdReadSettings {
		t.Fatalf("Request() got %+v", r.env)
	}
}

func TestDisconnectDrainsAllPending(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	cmds := []protocol.CommandID{protocol.CmdGetDevInfo, protocol.CmdReadSettings, protocol.CmdGetHTStatus}
	errs := make(chan error, len(cmds))
	for _, cmd := range cmds {
		cmd := cmd
		go func() {
			_, err := request(e, protocol.GroupBasic, cmd)
			errs <- err
		}()
	}
	for i := 0; i < len(cmds); i++ {
		select {
		case <-tr.wrote:
		case <-time.After(time.Second):
			t.Fatal("requests were not written")
		}
	}

	close(tr.inbound)

	for i := 0; i < len(cmds); i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, ErrNotConnected) {
				t.Fatalf("pending request error = %v, want ErrNotConnected", err)
			}
		case <-time.After(time.Second):
			t.Fatal("pending request was not drained")
		}
	}
	if e.State() != StateDisconnected {
		t.Fatalf("State() = %v after transport failure", e.State())
	}
}

func TestRequestWhileDisconnected(t *testing.T) {
	b := bus.New(testLogger())
	defer b.Close()
	e := New(testLogger(), b, newFakeTransport())

	_, err := request(e, protocol.GroupBasic, protocol.CmdGetDevInfo)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Request() error = %v, want ErrNotConnected", err)
	}
}

func fragmentEventBody(t *testing.T, f protocol.DataFragment) []byte {
	t.Helper()

	payload, err := protocol.EncodeDataFragment(f)
	if err != nil {
		t.Fatalf("EncodeDataFragment() error = %v", err)
	}

	return append([]byte{byte(protocol.EventDataRxd)}, payload...)
}

func TestEventsFanOutInRegistrationOrder(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 1)
	e.Subscribe(func(ev protocol.Event) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	e.Subscribe(func(ev protocol.Event) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		done <- struct{}{}
	})

	body := fragmentEventBody(t, protocol.DataFragment{IsFinalFragment: true, FragmentID: 1, Data: []byte{0x42}})
	tr.deliver(protocol.Envelope{Group: protocol.GroupBasic, Command: protocol.CmdEventNotification, Body: body})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	var count int
	var mu sync.Mutex
	unsub := e.Subscribe(func(ev protocol.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	delivered := make(chan struct{}, 2)
	e.Subscribe(func(ev protocol.Event) {
		delivered <- struct{}{}
	})

	body := fragmentEventBody(t, protocol.DataFragment{IsFinalFragment: true, FragmentID: 2, Data: []byte{0x01}})
	eventEnv := protocol.Envelope{Group: protocol.GroupBasic, Command: protocol.CmdEventNotification, Body: body}

	tr.deliver(eventEnv)
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("first event was not delivered")
	}

	unsub()
	tr.deliver(eventEnv)
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("second event was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("unsubscribed listener saw %d events, want 1", count)
	}
}

func TestUnknownEventStillDelivered(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	got := make(chan protocol.Event, 1)
	e.Subscribe(func(ev protocol.Event) {
		got <- ev
	})

	tr.deliver(protocol.Envelope{
		Group:   protocol.GroupBasic,
		Command: protocol.CmdEventNotification,
		Body:    []byte{0x7F, 0xDE, 0xAD},
	})

	select {
	case ev := <-got:
		if ev.Type != protocol.EventType(0x7F) {
			t.Fatalf("event type = %v", ev.Type)
		}
		if len(ev.Raw) != 2 || ev.Raw[0] != 0xDE {
			t.Fatalf("event raw payload = %v", ev.Raw)
		}
	case <-time.After(time.Second):
		t.Fatal("unknown event was not delivered")
	}
}

func TestMalformedFrameKeepsSessionAlive(t *testing.T) {
	tr := newFakeTransport()
	e := testEngine(t, tr)

	// Bad group value decodes to an envelope error and is dropped.
	tr.inbound <- []byte{0x00, 0x07, 0x00, 0x04}

	res := startRequest(t, e, tr, protocol.CmdGetDevInfo)
	tr.deliver(reply(protocol.GroupBasic, protocol.CmdGetDevInfo, []byte{0x00}))
	if r := <-res; r.err != nil {
		t.Fatalf("Request() after malformed frame error = %v", r.err)
	}
}
