package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"htgo/internal/bluetoothutil"
	"tinygo.org/x/bluetooth"
)

const defaultBluetoothFrameQueueSize = 128

type bluetoothConnState struct {
	device   bluetooth.Device
	toRadio  bluetooth.DeviceCharacteristic
	indicate bluetooth.DeviceCharacteristic

	frameCh chan []byte
	closed  chan struct{}

	closeOnce sync.Once
}

func (s *bluetoothConnState) markClosed() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

// BluetoothTransport talks to the radio over its BLE command service.
// The indicate characteristic delivers exactly one protocol envelope per
// notification, so no stream framing layer is needed.
type BluetoothTransport struct {
	address   string
	adapterID string

	mu      sync.RWMutex
	conn    *bluetoothConnState
	writeMu sync.Mutex
}

func NewBluetoothTransport(address, adapterID string) *BluetoothTransport {
	return &BluetoothTransport{
		address:   strings.TrimSpace(address),
		adapterID: strings.TrimSpace(adapterID),
	}
}

func (t *BluetoothTransport) Name() string {
	return "bluetooth"
}

func (t *BluetoothTransport) StatusTarget() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.address
}

func (t *BluetoothTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := transportLogger("bluetooth", "address", t.address, "adapter", t.adapterID)

	if t.conn != nil {
		logger.Debug("connect skipped: already connected")

		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.address == "" {
		return errors.New("bluetooth address is empty")
	}

	addr, err := parseBluetoothAddress(t.address)
	if err != nil {
		return err
	}

	adapter := bluetoothutil.ResolveAdapter(t.adapterID)
	logger.Info("connecting")
	if err := bluetoothutil.EnableAdapter(adapter); err != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	device, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		logger.Warn("connect device failed", "error", err)

		return fmt.Errorf("connect bluetooth device %q: %w", t.address, err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{bluetoothutil.RadioServiceUUID()})
	if err != nil {
		_ = device.Disconnect()

		return fmt.Errorf("discover radio command service: %w", err)
	}
	if len(services) == 0 {
		_ = device.Disconnect()

		return errors.New("radio command service is not available")
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{
		bluetoothutil.RadioWriteUUID(),
		bluetoothutil.RadioIndicateUUID(),
	})
	if err != nil {
		_ = device.Disconnect()

		return fmt.Errorf("discover radio characteristics: %w", err)
	}
	if len(chars) != 2 {
		_ = device.Disconnect()

		return fmt.Errorf("unexpected characteristic count: %d", len(chars))
	}

	state := &bluetoothConnState{
		device:   device,
		toRadio:  chars[0],
		indicate: chars[1],
		frameCh:  make(chan []byte, defaultBluetoothFrameQueueSize),
		closed:   make(chan struct{}),
	}

	if err := state.indicate.EnableNotifications(func(buf []byte) {
		frame := make([]byte, len(buf))
		copy(frame, buf)
		select {
		case state.frameCh <- frame:
		case <-state.closed:
		default:
			logger.Warn("inbound frame queue full, dropping frame", "len", len(frame))
		}
	}); err != nil {
		_ = device.Disconnect()

		return fmt.Errorf("subscribe to radio notifications: %w", err)
	}

	if err := ctx.Err(); err != nil {
		state.markClosed()
		_ = state.indicate.EnableNotifications(nil)
		_ = device.Disconnect()

		return err
	}

	t.conn = state
	logger.Info("connected")

	return nil
}

func (t *BluetoothTransport) Close() error {
	t.mu.Lock()
	state := t.conn
	t.conn = nil
	t.mu.Unlock()
	if state == nil {
		return nil
	}

	state.markClosed()

	var closeErr error
	if err := state.indicate.EnableNotifications(nil); err != nil {
		closeErr = errors.Join(closeErr, fmt.Errorf("disable radio notifications: %w", err))
	}
	if err := state.device.Disconnect(); err != nil {
		closeErr = errors.Join(closeErr, fmt.Errorf("disconnect bluetooth device: %w", err))
	}

	return closeErr
}

func (t *BluetoothTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	state, err := t.currentState()
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-state.closed:
		return nil, errors.New("transport is closed")
	case payload := <-state.frameCh:
		transportLogger("bluetooth").Debug("read frame", "len", len(payload))

		return payload, nil
	}
}

func (t *BluetoothTransport) WriteFrame(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := t.currentState()
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-state.closed:
		return errors.New("transport is closed")
	default:
	}

	written, err := state.toRadio.WriteWithoutResponse(payload)
	if err != nil {
		return fmt.Errorf("write to radio characteristic: %w", err)
	}
	if written != len(payload) {
		return fmt.Errorf("short write to radio characteristic: wrote %d of %d", written, len(payload))
	}
	transportLogger("bluetooth").Debug("write frame", "payload_len", len(payload))

	return nil
}

func (t *BluetoothTransport) currentState() (*bluetoothConnState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn == nil {
		return nil, errors.New("transport is not connected")
	}

	return t.conn, nil
}

func parseBluetoothAddress(raw string) (bluetooth.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return bluetooth.Address{}, errors.New("bluetooth address is empty")
	}
	mac, err := bluetooth.ParseMAC(strings.ToUpper(trimmed))
	if err != nil {
		return bluetooth.Address{}, fmt.Errorf("parse bluetooth address %q: %w", raw, err)
	}

	return bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}, nil
}
