package protocol

// CommandGroup is the 16-bit group field leading every envelope. Only two
// values are legal on the wire.
type CommandGroup uint16

const (
	GroupBasic    CommandGroup = 2
	GroupExtended CommandGroup = 10
)

// CommandID is the 15-bit command identifier inside the envelope.
type CommandID uint16

// Basic-group commands used by this driver.
const (
	CmdGetDevInfo           CommandID = 4
	CmdReadPowerStatus      CommandID = 5
	CmdRegisterNotification CommandID = 6
	CmdEventNotification    CommandID = 9
	CmdReadSettings         CommandID = 10
	CmdWriteSettings        CommandID = 11
	CmdReadRFCh             CommandID = 13
	CmdWriteRFCh            CommandID = 14
	CmdGetHTStatus          CommandID = 20
	CmdHTSendData           CommandID = 31
	CmdGetPosition          CommandID = 32
	CmdReadBSSSettings      CommandID = 33
	CmdWriteBSSSettings     CommandID = 34
	CmdWriteRegionCh        CommandID = 58
	CmdWriteRegionName      CommandID = 59
	CmdSetRegion            CommandID = 60
	CmdReadRegionName       CommandID = 73
)

// EventType tags the first body byte of an event-notification frame.
type EventType uint8

const (
	EventUnknown            EventType = 0
	EventHTStatusChanged    EventType = 1
	EventDataRxd            EventType = 2
	EventHTChChanged        EventType = 5
	EventHTSettingsChanged  EventType = 6
	EventBSSSettingsChanged EventType = 11
)

// ReplyStatus is the single status byte prefixing reply bodies.
type ReplyStatus uint8

const (
	StatusSuccess               ReplyStatus = 0
	StatusNotSupported          ReplyStatus = 1
	StatusNotAuthenticated      ReplyStatus = 2
	StatusInsufficientResources ReplyStatus = 3
	StatusAuthenticating        ReplyStatus = 4
	StatusInvalidParameter      ReplyStatus = 5
	StatusIncorrectState        ReplyStatus = 6
	StatusInProgress            ReplyStatus = 7
)

func (s ReplyStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotSupported:
		return "not supported"
	case StatusNotAuthenticated:
		return "not authenticated"
	case StatusInsufficientResources:
		return "insufficient resources"
	case StatusAuthenticating:
		return "authenticating"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusIncorrectState:
		return "incorrect state"
	case StatusInProgress:
		return "in progress"
	default:
		return "unknown status"
	}
}

// Modulation of a channel's tx or rx path.
type Modulation uint8

const (
	ModulationFM  Modulation = 0
	ModulationAM  Modulation = 1
	ModulationDMR Modulation = 2
)

// Fixed special channel slots outside the ordinary 0..249 memory table.
const (
	ChannelVFOB        = 251
	ChannelVFOA        = 252
	ChannelNOAAMonitor = 253
)

// PowerStatusType selects what a power-status query reads.
type PowerStatusType uint16

const (
	PowerStatusBatteryLevel      PowerStatusType = 1
	PowerStatusBatteryVoltage    PowerStatusType = 2
	PowerStatusRCBatteryLevel    PowerStatusType = 3
	PowerStatusBatteryPercentage PowerStatusType = 4
)

// MaxDataFragmentLen bounds the payload of a single outbound data fragment.
const MaxDataFragmentLen = 50

// MaxDataFragmentID is the largest fragment id the 6-bit wire field can
// carry. Larger ids would be truncated by the writer's field mask.
const MaxDataFragmentID = 63

// DefaultRegionNameWidth is the wire byte-width of a region name. The value
// is inferred from captures and not confirmed against vendor documentation,
// so codecs take it as an option.
const DefaultRegionNameWidth = 16
