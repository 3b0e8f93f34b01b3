package events

const (
	TopicConnStatus   = "conn.status"
	TopicRadioState   = "radio.state"
	TopicStatus       = "radio.status"
	TopicChannel      = "radio.channel"
	TopicSettings     = "radio.settings"
	TopicBeacon       = "radio.beacon"
	TopicDataFragment = "radio.data"
	TopicUnknownEvent = "radio.event.unknown"
	TopicRawFrameIn   = "raw.frame.in"
	TopicRawFrameOut  = "raw.frame.out"
)
