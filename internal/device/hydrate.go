package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"htgo/internal/bus"
	"htgo/internal/events"
	"htgo/internal/protocol"
)

// HydrationController runs the bulk read sequence that turns a freshly
// connected device into a coherent RadioState snapshot, and keeps the
// snapshot synchronized from change events afterwards.
//
// Slot failure policy: ordinary channel slots abort the whole hydrate,
// the VFO special slots are skipped with a log line, and region names
// fall back to a generated placeholder. All reads are sequential; the
// device misbehaves under pipelined bulk reads.
type HydrationController struct {
	logger *slog.Logger
	facade *Facade
	store  *StateStore
	sess   Session
	bus    bus.MessageBus

	attachOnce sync.Once
}

func NewHydrationController(logger *slog.Logger, facade *Facade, store *StateStore, sess Session, b bus.MessageBus) *HydrationController {
	return &HydrationController{
		logger: logger,
		facade: facade,
		store:  store,
		sess:   sess,
		bus:    b,
	}
}

// vfoSlots are fetched after the ordinary table, VFO-A first.
var vfoSlots = []uint8{protocol.ChannelVFOA, protocol.ChannelVFOB}

// Hydrate performs the full sequence: identity and settings records,
// the channel table, region names, then event registration. The store is
// only replaced once everything needed has been read, so a failed
// hydrate never publishes a half-built snapshot.
func (h *HydrationController) Hydrate(ctx context.Context) error {
	info, err := h.facade.GetDeviceInfo(ctx)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	settings, err := h.facade.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	status, err := h.facade.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	beacon, err := h.facade.GetBeaconSettings(ctx)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	channels, err := h.fetchChannels(ctx, info)
	if err != nil {
		return err
	}
	names := h.fetchRegionNames(ctx, info)

	h.attachOnce.Do(func() {
		h.sess.Subscribe(h.onEvent)
	})
	if err := h.facade.EnableEvents(ctx); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	h.store.Replace(RadioState{
		DeviceInfo:     info,
		Settings:       settings,
		Status:         status,
		BeaconSettings: beacon,
		Region:         int(status.CurrRegion),
		RegionNames:    names,
		Channels:       channels,
	})
	h.logger.Info("hydration complete",
		"channels", len(channels),
		"regions", len(names))

	return nil
}

// RehydrateChannels refreshes just the channel table and region names for
// the current region, after a region switch. The identity and settings
// records are kept as-is.
func (h *HydrationController) RehydrateChannels(ctx context.Context) error {
	state, ready := h.store.Snapshot()
	if !ready {
		return fmt.Errorf("rehydrate channels: no snapshot to refresh")
	}

	channels, err := h.fetchChannels(ctx, state.DeviceInfo)
	if err != nil {
		return err
	}
	state.RegionNames = h.fetchRegionNames(ctx, state.DeviceInfo)
	state.Channels = channels

	h.store.Replace(state)
	h.logger.Info("channel table refreshed", "region", state.Region, "channels", len(channels))

	return nil
}

func (h *HydrationController) fetchChannels(ctx context.Context, info protocol.DeviceInfo) (map[int]protocol.Channel, error) {
	channels := make(map[int]protocol.Channel, int(info.ChannelCount)+len(vfoSlots))
	for i := 0; i < int(info.ChannelCount); i++ {
		ch, err := h.facade.GetChannel(ctx, uint8(i))
		if err != nil {
			return nil, fmt.Errorf("hydrate channel table: %w", err)
		}
		channels[i] = ch
	}
	for _, slot := range vfoSlots {
		ch, err := h.facade.GetChannel(ctx, slot)
		if err != nil {
			h.logger.Warn("skipping unavailable VFO slot", "slot", slot, "error", err)

			continue
		}
		channels[int(slot)] = ch
	}

	return channels, nil
}

func (h *HydrationController) fetchRegionNames(ctx context.Context, info protocol.DeviceInfo) []protocol.RegionName {
	names := make([]protocol.RegionName, 0, info.RegionCount)
	for i := 0; i < int(info.RegionCount); i++ {
		rn, err := h.facade.GetRegionName(ctx, uint8(i))
		if err != nil {
			h.logger.Warn("region name read failed, using placeholder", "region", i, "error", err)
			rn = protocol.RegionName{RegionID: uint8(i), Name: fmt.Sprintf("Group %d", i+1)}
		}
		names = append(names, rn)
	}

	return names
}

// onEvent patches the snapshot from unsolicited notifications. Record
// events overwrite the corresponding state wholesale; data and unknown
// events are republished for app-level consumers.
func (h *HydrationController) onEvent(ev protocol.Event) {
	switch ev.Type {
	case protocol.EventHTStatusChanged:
		h.store.PatchStatus(*ev.Status)
	case protocol.EventHTSettingsChanged:
		h.store.PatchSettings(*ev.Settings)
	case protocol.EventHTChChanged:
		h.store.PatchChannel(*ev.Channel)
	case protocol.EventBSSSettingsChanged:
		h.store.PatchBeaconSettings(*ev.BeaconSettings)
	case protocol.EventDataRxd:
		h.bus.Publish(events.TopicDataFragment, *ev.Fragment)
	default:
		h.bus.Publish(events.TopicUnknownEvent, events.UnknownEvent{
			Tag:     uint8(ev.Type),
			Payload: ev.Raw,
		})
	}
}
