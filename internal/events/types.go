package events

import "time"

// ConnectionState describes the connection lifecycle of the radio link.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateReconnecting ConnectionState = "reconnecting"
)

// ConnStatus is a bus snapshot of the current link status.
type ConnStatus struct {
	State         ConnectionState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// RawFrame carries frame diagnostics for debug views.
type RawFrame struct {
	Hex string
	Len int
}

// UnknownEvent is an unsolicited notification the codec has no decoder
// for. The raw payload is preserved so new device firmware never loses
// events silently.
type UnknownEvent struct {
	Tag     uint8
	Payload []byte
}
