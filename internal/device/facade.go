package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"htgo/internal/protocol"
)

// ErrInvalidReply marks a reply whose shape does not match the request
// that produced it. Mismatched variants are never coerced.
var ErrInvalidReply = errors.New("invalid reply")

// Session is the request/reply surface the facade drives. Satisfied by
// *session.Engine.
type Session interface {
	Request(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error)
	Send(ctx context.Context, env protocol.Envelope) error
	Subscribe(fn func(protocol.Event)) func()
}

// Facade exposes one typed method per device operation. Every call is a
// full round trip; the device stays authoritative and the store is only
// updated after a confirmed write.
type Facade struct {
	logger *slog.Logger
	sess   Session
	store  *StateStore

	regionNameWidth int
}

func NewFacade(logger *slog.Logger, sess Session, store *StateStore, regionNameWidth int) *Facade {
	if regionNameWidth <= 0 {
		regionNameWidth = protocol.DefaultRegionNameWidth
	}

	return &Facade{
		logger:          logger,
		sess:            sess,
		store:           store,
		regionNameWidth: regionNameWidth,
	}
}

// roundTrip issues one command and returns the reply payload past the
// status byte. The reply envelope must mirror the request's group and
// command with the reply flag set.
func (f *Facade) roundTrip(ctx context.Context, cmd protocol.CommandID, body []byte, op string) ([]byte, error) {
	req := protocol.Envelope{Group: protocol.GroupBasic, Command: cmd, Body: body}
	reply, err := f.sess.Request(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !reply.IsReply || reply.Group != req.Group || reply.Command != req.Command {
		return nil, fmt.Errorf("%s: %w: got command %d", op, ErrInvalidReply, reply.Command)
	}

	return protocol.DecodeReplyStatus(reply.Body, op)
}

func (f *Facade) GetDeviceInfo(ctx context.Context) (protocol.DeviceInfo, error) {
	payload, err := f.roundTrip(ctx, protocol.CmdGetDevInfo, nil, "get device info")
	if err != nil {
		return protocol.DeviceInfo{}, err
	}

	return protocol.DecodeDeviceInfo(payload)
}

func (f *Facade) GetChannel(ctx context.Context, channelID uint8) (protocol.Channel, error) {
	payload, err := f.roundTrip(ctx, protocol.CmdReadRFCh, []byte{channelID}, fmt.Sprintf("get channel %d", channelID))
	if err != nil {
		return protocol.Channel{}, err
	}
	ch, err := protocol.DecodeChannel(payload)
	if err != nil {
		return protocol.Channel{}, err
	}
	if ch.ChannelID != channelID {
		return protocol.Channel{}, fmt.Errorf("get channel %d: %w: reply carries channel %d", channelID, ErrInvalidReply, ch.ChannelID)
	}

	return ch, nil
}

func (f *Facade) SetChannel(ctx context.Context, ch protocol.Channel) error {
	op := fmt.Sprintf("set channel %d", ch.ChannelID)
	if _, err := f.roundTrip(ctx, protocol.CmdWriteRFCh, protocol.EncodeChannel(ch), op); err != nil {
		return err
	}
	f.store.PatchChannel(ch)

	return nil
}

func (f *Facade) GetSettings(ctx context.Context) (protocol.Settings, error) {
	payload, err := f.roundTrip(ctx, protocol.CmdReadSettings, nil, "get settings")
	if err != nil {
		return protocol.Settings{}, err
	}

	return protocol.DecodeSettings(payload)
}

// SetSettings merges patch into the last-known full settings record and
// writes the whole record back; the wire has no delta writes. When no
// record is cached yet it is fetched first.
func (f *Facade) SetSettings(ctx context.Context, patch func(*protocol.Settings)) (protocol.Settings, error) {
	current, ok := f.store.Settings()
	if !ok {
		var err error
		current, err = f.GetSettings(ctx)
		if err != nil {
			return protocol.Settings{}, err
		}
	}
	patch(&current)
	if _, err := f.roundTrip(ctx, protocol.CmdWriteSettings, protocol.EncodeSettings(current), "set settings"); err != nil {
		return protocol.Settings{}, err
	}
	f.store.PatchSettings(current)

	return current, nil
}

func (f *Facade) GetStatus(ctx context.Context) (protocol.Status, error) {
	payload, err := f.roundTrip(ctx, protocol.CmdGetHTStatus, nil, "get status")
	if err != nil {
		return protocol.Status{}, err
	}

	return protocol.DecodeStatus(payload)
}

func (f *Facade) GetPosition(ctx context.Context) (protocol.Position, error) {
	payload, err := f.roundTrip(ctx, protocol.CmdGetPosition, nil, "get position")
	if err != nil {
		return protocol.Position{}, err
	}

	return protocol.DecodePosition(payload)
}

func (f *Facade) GetBeaconSettings(ctx context.Context) (protocol.BeaconSettings, error) {
	payload, err := f.roundTrip(ctx, protocol.CmdReadBSSSettings, nil, "get beacon settings")
	if err != nil {
		return protocol.BeaconSettings{}, err
	}

	return protocol.DecodeBeaconSettings(payload)
}

// SetBeaconSettings merges patch into the last-known record and writes it
// back whole, like SetSettings.
func (f *Facade) SetBeaconSettings(ctx context.Context, patch func(*protocol.BeaconSettings)) (protocol.BeaconSettings, error) {
	current, ok := f.store.BeaconSettings()
	if !ok {
		var err error
		current, err = f.GetBeaconSettings(ctx)
		if err != nil {
			return protocol.BeaconSettings{}, err
		}
	}
	patch(&current)
	if _, err := f.roundTrip(ctx, protocol.CmdWriteBSSSettings, protocol.EncodeBeaconSettings(current), "set beacon settings"); err != nil {
		return protocol.BeaconSettings{}, err
	}
	f.store.PatchBeaconSettings(current)

	return current, nil
}

func (f *Facade) readPowerStatus(ctx context.Context, want protocol.PowerStatusType, op string) (protocol.PowerStatus, error) {
	payload, err := f.roundTrip(ctx, protocol.CmdReadPowerStatus, protocol.EncodePowerStatusRequest(want), op)
	if err != nil {
		return protocol.PowerStatus{}, err
	}
	p, err := protocol.DecodePowerStatus(payload)
	if err != nil {
		return protocol.PowerStatus{}, err
	}
	if p.Type != want {
		return protocol.PowerStatus{}, fmt.Errorf("%s: %w: reply carries type %d", op, ErrInvalidReply, p.Type)
	}

	return p, nil
}

func (f *Facade) GetBatteryVoltage(ctx context.Context) (float64, error) {
	p, err := f.readPowerStatus(ctx, protocol.PowerStatusBatteryVoltage, "get battery voltage")
	if err != nil {
		return 0, err
	}

	return p.Voltage, nil
}

func (f *Facade) GetBatteryLevel(ctx context.Context) (uint8, error) {
	p, err := f.readPowerStatus(ctx, protocol.PowerStatusBatteryLevel, "get battery level")
	if err != nil {
		return 0, err
	}

	return p.Level, nil
}

func (f *Facade) GetBatteryPercentage(ctx context.Context) (uint8, error) {
	p, err := f.readPowerStatus(ctx, protocol.PowerStatusBatteryPercentage, "get battery percentage")
	if err != nil {
		return 0, err
	}

	return p.Level, nil
}

func (f *Facade) SendDataFragment(ctx context.Context, frag protocol.DataFragment) error {
	body, err := protocol.EncodeDataFragment(frag)
	if err != nil {
		return fmt.Errorf("send data fragment: %w", err)
	}
	_, err = f.roundTrip(ctx, protocol.CmdHTSendData, body, "send data fragment")

	return err
}

func (f *Facade) GetRegionName(ctx context.Context, regionID uint8) (protocol.RegionName, error) {
	op := fmt.Sprintf("get region name %d", regionID)
	payload, err := f.roundTrip(ctx, protocol.CmdReadRegionName, []byte{regionID}, op)
	if err != nil {
		return protocol.RegionName{}, err
	}
	rn, err := protocol.DecodeRegionName(payload, f.regionNameWidth)
	if err != nil {
		return protocol.RegionName{}, err
	}
	if rn.RegionID != regionID {
		return protocol.RegionName{}, fmt.Errorf("%s: %w: reply carries region %d", op, ErrInvalidReply, rn.RegionID)
	}

	return rn, nil
}

func (f *Facade) SetRegionName(ctx context.Context, rn protocol.RegionName) error {
	op := fmt.Sprintf("set region name %d", rn.RegionID)
	if _, err := f.roundTrip(ctx, protocol.CmdWriteRegionName, protocol.EncodeRegionName(rn, f.regionNameWidth), op); err != nil {
		return err
	}
	f.store.PatchRegionName(rn)

	return nil
}

// SetRegion switches the device's active memory region. The channel table
// must be rehydrated afterwards; the caller owns that.
func (f *Facade) SetRegion(ctx context.Context, regionID uint8) error {
	if _, err := f.roundTrip(ctx, protocol.CmdSetRegion, []byte{regionID}, fmt.Sprintf("set region %d", regionID)); err != nil {
		return err
	}
	f.store.SetRegion(int(regionID))

	return nil
}

// AssignChannelToRegion binds an existing channel slot into a region's
// channel table.
func (f *Facade) AssignChannelToRegion(ctx context.Context, regionID, channelID uint8) error {
	op := fmt.Sprintf("assign channel %d to region %d", channelID, regionID)
	_, err := f.roundTrip(ctx, protocol.CmdWriteRegionCh, []byte{regionID, channelID}, op)

	return err
}

// EnableEvents registers for unsolicited notifications. The device sends
// no reply to this command.
func (f *Facade) EnableEvents(ctx context.Context) error {
	env := protocol.Envelope{Group: protocol.GroupBasic, Command: protocol.CmdRegisterNotification}
	if err := f.sess.Send(ctx, env); err != nil {
		return fmt.Errorf("enable events: %w", err)
	}

	return nil
}
