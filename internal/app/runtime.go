package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"htgo/internal/bus"
	"htgo/internal/config"
	"htgo/internal/device"
	"htgo/internal/events"
	"htgo/internal/logging"
	"htgo/internal/session"
	"htgo/internal/transport"
)

const (
	reconnectBackoffStart = time.Second
	reconnectBackoffMax   = 15 * time.Second
)

// hydrateBackoff is waited after each failed hydration attempt; its
// length caps the attempt count.
var hydrateBackoff = []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}

// Runtime wires config, logging, bus, transport, session and the device
// layer together and owns the reconnect loop.
type Runtime struct {
	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	Transport  transport.Transport
	Session    *session.Engine
	Store      *device.StateStore
	Facade     *device.Facade
	Hydrator   *device.HydrationController

	logger *slog.Logger

	// lastGood survives disconnects so consumers can keep rendering the
	// previous snapshot while the link is down.
	lastGoodMu    sync.RWMutex
	lastGood      device.RadioState
	lastGoodKnown bool
}

// InitializeWithConfig builds the runtime from an already loaded config,
// letting the CLI override connection parameters from flags.
func InitializeWithConfig(parent context.Context, paths Paths, cfg config.AppConfig) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		cancel()

		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	rt.logger = logMgr.Logger("app")

	rt.Bus = bus.New(logMgr.Logger("bus"))

	tr, err := NewTransportForConnection(cfg.Connection)
	if err != nil {
		_ = rt.Close()

		return nil, err
	}
	rt.Transport = tr

	rt.Session = session.New(logMgr.Logger("session"), rt.Bus, tr,
		session.WithTimeout(time.Duration(cfg.Protocol.RequestTimeoutSec)*time.Second))
	rt.Store = device.NewStateStore(rt.Bus)
	rt.Facade = device.NewFacade(logMgr.Logger("device"), rt.Session, rt.Store, cfg.Protocol.RegionNameWidth)
	rt.Hydrator = device.NewHydrationController(logMgr.Logger("hydrate"), rt.Facade, rt.Store, rt.Session, rt.Bus)

	return rt, nil
}

func NewTransportForConnection(cfg config.ConnectionConfig) (transport.Transport, error) {
	switch cfg.Connector {
	case config.ConnectorSerial:
		return transport.NewSerialTransport(cfg.SerialPort, cfg.SerialBaud), nil
	case config.ConnectorBluetooth:
		return transport.NewBluetoothTransport(cfg.BluetoothAddress, cfg.BluetoothAdapter), nil
	case config.ConnectorTCP:
		return transport.NewTCPTransport(cfg.TCPHost, cfg.TCPPort), nil
	default:
		return nil, fmt.Errorf("unknown connector: %q", cfg.Connector)
	}
}

// Start launches the connector loop.
func (r *Runtime) Start() {
	go r.runConnector(r.Ctx)
}

// ConnectAndHydrate performs a single connect plus hydration pass and
// returns the first error. One-shot CLI commands use this instead of the
// reconnect loop.
func (r *Runtime) ConnectAndHydrate(ctx context.Context) error {
	if err := r.Session.Connect(ctx); err != nil {
		return err
	}
	if err := r.Hydrator.Hydrate(ctx); err != nil {
		_ = r.Session.Close()

		return err
	}
	r.rememberSnapshot()

	return nil
}

func (r *Runtime) runConnector(ctx context.Context) {
	backoff := reconnectBackoffStart
	for {
		if ctx.Err() != nil {
			return
		}

		// A fresh subscription per cycle so stale statuses from a
		// previous attempt cannot trip awaitDisconnect early.
		statusSub := r.Bus.Subscribe(events.TopicConnStatus)

		if err := r.Session.Connect(ctx); err != nil {
			r.Bus.Unsubscribe(statusSub, events.TopicConnStatus)
			r.logger.Error("connect failed", "error", err)
			r.publishReconnecting(err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)

			continue
		}
		backoff = reconnectBackoffStart

		if err := r.hydrateWithRetry(ctx); err != nil {
			r.logger.Error("hydration failed, keeping previous snapshot", "error", err)
		} else {
			r.rememberSnapshot()
		}

		r.awaitDisconnect(ctx, statusSub)
		r.Bus.Unsubscribe(statusSub, events.TopicConnStatus)
		r.Store.Clear()
		if ctx.Err() != nil {
			return
		}
		r.logger.Info("link lost, reconnecting")
		r.publishReconnecting(nil)
		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

func (r *Runtime) hydrateWithRetry(ctx context.Context) error {
	var err error
	for attempt, wait := range hydrateBackoff {
		if err = r.Hydrator.Hydrate(ctx); err == nil {
			return nil
		}
		r.logger.Warn("hydration attempt failed",
			"attempt", attempt+1,
			"backoff", wait,
			"error", err)
		if !sleepWithContext(ctx, wait) {
			return err
		}
	}

	return err
}

func (r *Runtime) publishReconnecting(cause error) {
	status := events.ConnStatus{
		State:         events.ConnectionStateReconnecting,
		TransportName: r.Transport.Name(),
		Timestamp:     time.Now(),
	}
	if resolver, ok := r.Transport.(transport.StatusTargetResolver); ok {
		status.Target = resolver.StatusTarget()
	}
	if cause != nil {
		status.Err = cause.Error()
	}
	r.Bus.Publish(events.TopicConnStatus, status)
}

// awaitDisconnect blocks until the session reports a disconnect or the
// runtime shuts down.
func (r *Runtime) awaitDisconnect(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(events.ConnStatus)
			if !ok {
				continue
			}
			if status.State == events.ConnectionStateDisconnected {
				return
			}
		}
	}
}

func (r *Runtime) rememberSnapshot() {
	snapshot, ready := r.Store.Snapshot()
	if !ready {
		return
	}
	r.lastGoodMu.Lock()
	r.lastGood = snapshot
	r.lastGoodKnown = true
	r.lastGoodMu.Unlock()
}

// LastGoodSnapshot returns the most recent fully hydrated state, which
// may be stale while the link is down.
func (r *Runtime) LastGoodSnapshot() (device.RadioState, bool) {
	r.lastGoodMu.RLock()
	defer r.lastGoodMu.RUnlock()

	return r.lastGood, r.lastGoodKnown
}

func (r *Runtime) SaveConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		return err
	}
	r.Config = cfg

	return r.LogManager.Configure(cfg.Logging, r.Paths.LogFile)
}

func (r *Runtime) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.Session != nil {
		_ = r.Session.Close()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}

	return nil
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > reconnectBackoffMax {
		return reconnectBackoffMax
	}

	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
