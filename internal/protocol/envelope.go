package protocol

import (
	"errors"
	"fmt"
)

// Envelope is the fixed 32-bit header wrapping every message:
// [group:16][isReply:1][commandID:15] followed by a whole-byte body.
type Envelope struct {
	Group   CommandGroup
	IsReply bool
	Command CommandID
	Body    []byte
}

const envelopeHeaderLen = 4

// ErrBadGroup marks an envelope whose 16-bit group field is neither of the
// two legal values.
var ErrBadGroup = errors.New("unrecognized command group")

func DecodeEnvelope(frame []byte) (Envelope, error) {
	r := NewBitReader(frame)
	group := r.Uint(16)
	isReply := r.Bool()
	command := r.Uint(15)
	if err := r.Err(); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope header: %w", err)
	}
	switch CommandGroup(group) {
	case GroupBasic, GroupExtended:
	default:
		return Envelope{}, fmt.Errorf("%w: %d", ErrBadGroup, group)
	}
	body, err := r.ReadBytes(r.Remaining() / 8)
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope body: %w", err)
	}

	return Envelope{
		Group:   CommandGroup(group),
		IsReply: isReply,
		Command: CommandID(command),
		Body:    body,
	}, nil
}

func (e Envelope) Encode() []byte {
	w := NewBitWriter()
	w.WriteUint(uint64(e.Group), 16)
	w.WriteBool(e.IsReply)
	w.WriteUint(uint64(e.Command), 15)
	w.WriteBytes(e.Body)

	return w.Bytes()
}

// CommandError is a successfully decoded reply that carries a non-success
// status byte. It is a protocol-level outcome distinct from decode errors.
type CommandError struct {
	Status ReplyStatus
	Op     string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: device replied %s (%d)", e.Op, e.Status, uint8(e.Status))
}

// DecodeReplyStatus splits a reply body into its leading status byte and
// the remaining payload. A non-success status short-circuits further
// decoding: the rest of the body is not guaranteed to be present.
func DecodeReplyStatus(body []byte, op string) ([]byte, error) {
	if len(body) < 1 {
		return nil, fmt.Errorf("%s: empty reply body: %w", op, ErrEndOfStream)
	}
	status := ReplyStatus(body[0])
	if status > StatusInProgress {
		return nil, fmt.Errorf("%s: unrecognized reply status byte %d", op, body[0])
	}
	if status != StatusSuccess {
		return nil, &CommandError{Status: status, Op: op}
	}

	return body[1:], nil
}
