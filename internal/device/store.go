package device

import (
	"sync"

	"htgo/internal/bus"
	"htgo/internal/events"
	"htgo/internal/protocol"
)

// RadioState is the merged device snapshot: built once hydration
// completes, field-patched by writes and change events, cleared on
// disconnect.
type RadioState struct {
	DeviceInfo     protocol.DeviceInfo
	Settings       protocol.Settings
	Status         protocol.Status
	BeaconSettings protocol.BeaconSettings

	Region      int
	RegionNames []protocol.RegionName
	Channels    map[int]protocol.Channel
}

func (s RadioState) clone() RadioState {
	out := s
	out.RegionNames = append([]protocol.RegionName(nil), s.RegionNames...)
	out.Channels = make(map[int]protocol.Channel, len(s.Channels))
	for id, ch := range s.Channels {
		out.Channels[id] = ch
	}

	return out
}

// StateStore guards the snapshot with a mutex and publishes a copy on the
// bus after every mutation. Readers always get copies; nothing shares the
// internal maps.
type StateStore struct {
	mu    sync.Mutex
	state RadioState
	ready bool

	bus bus.MessageBus
}

func NewStateStore(b bus.MessageBus) *StateStore {
	return &StateStore{
		bus: b,
		state: RadioState{
			Channels: make(map[int]protocol.Channel),
		},
	}
}

// Replace installs a freshly hydrated snapshot and marks the store ready.
func (s *StateStore) Replace(state RadioState) {
	s.mu.Lock()
	if state.Channels == nil {
		state.Channels = make(map[int]protocol.Channel)
	}
	s.state = state.clone()
	s.ready = true
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.bus.Publish(events.TopicRadioState, snapshot)
}

// Clear empties the snapshot on disconnect. The caller keeps its own last
// good copy if it wants one.
func (s *StateStore) Clear() {
	s.mu.Lock()
	s.state = RadioState{Channels: make(map[int]protocol.Channel)}
	s.ready = false
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.bus.Publish(events.TopicRadioState, snapshot)
}

// Snapshot returns a copy of the current state and whether hydration has
// completed since the last clear.
func (s *StateStore) Snapshot() (RadioState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.clone(), s.ready
}

func (s *StateStore) Settings() (protocol.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Settings, s.ready
}

func (s *StateStore) BeaconSettings() (protocol.BeaconSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.BeaconSettings, s.ready
}

func (s *StateStore) PatchSettings(settings protocol.Settings) {
	s.mu.Lock()
	s.state.Settings = settings
	s.mu.Unlock()

	s.bus.Publish(events.TopicSettings, settings)
}

func (s *StateStore) PatchStatus(status protocol.Status) {
	s.mu.Lock()
	s.state.Status = status
	s.mu.Unlock()

	s.bus.Publish(events.TopicStatus, status)
}

func (s *StateStore) PatchBeaconSettings(beacon protocol.BeaconSettings) {
	s.mu.Lock()
	s.state.BeaconSettings = beacon
	s.mu.Unlock()

	s.bus.Publish(events.TopicBeacon, beacon)
}

func (s *StateStore) PatchChannel(ch protocol.Channel) {
	s.mu.Lock()
	s.state.Channels[int(ch.ChannelID)] = ch
	s.mu.Unlock()

	s.bus.Publish(events.TopicChannel, ch)
}

func (s *StateStore) PatchRegionName(rn protocol.RegionName) {
	s.mu.Lock()
	for i := range s.state.RegionNames {
		if s.state.RegionNames[i].RegionID == rn.RegionID {
			s.state.RegionNames[i] = rn
		}
	}
	s.mu.Unlock()
}

func (s *StateStore) SetRegion(region int) {
	s.mu.Lock()
	s.state.Region = region
	s.mu.Unlock()
}

func (s *StateStore) Region() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Region
}
