package transport

import "context"

// Transport is the byte-stream link to the radio. Implementations own
// message framing: every ReadFrame delivers exactly one protocol
// envelope's bytes and every WriteFrame sends one.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, payload []byte) error
}

type StatusTargetResolver interface {
	StatusTarget() string
}
