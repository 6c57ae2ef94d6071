package protocol

import (
	"fmt"

	"github.com/danmuck/fannport/internal/protocol/term"
)

const (
	StatusOK    = term.Atom("ok")
	StatusError = term.Atom("error")
)

// Envelope is one decoded request: {Command, Arg} or {Command, Token, Arg}.
// The token is opaque and never interpreted.
type Envelope struct {
	Command  string
	Token    term.Term
	HasToken bool
	Arg      term.Term
}

// DecodeEnvelope validates the request shape. Payloads that do not decode
// return term.ErrMalformed; well-formed terms of the wrong shape return
// ErrUnsupportedCommand.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	t, err := term.Unmarshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	tuple, ok := t.(term.Tuple)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: envelope is a %s", ErrUnsupportedCommand, t.Kind())
	}
	if len(tuple) != 2 && len(tuple) != 3 {
		return Envelope{}, fmt.Errorf("%w: envelope arity %d", ErrUnsupportedCommand, len(tuple))
	}
	cmd, ok := tuple[0].(term.Atom)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: command is a %s", ErrUnsupportedCommand, tuple[0].Kind())
	}
	env := Envelope{Command: string(cmd), Arg: tuple[len(tuple)-1]}
	if len(tuple) == 3 {
		env.Token = tuple[1]
		env.HasToken = true
	}
	return env, nil
}

// OK wraps a result as {ok, Result}.
func OK(result term.Term) term.Tuple {
	return term.Tuple{StatusOK, result}
}

// Error wraps a reason as {error, Reason}.
func Error(reason term.Term) term.Tuple {
	return term.Tuple{StatusError, reason}
}

// EncodeResponse marshals resp and enforces the frame payload limit. When
// the encoded response is too large the error carries its size.
func EncodeResponse(resp term.Tuple, maxBytes int) ([]byte, error) {
	b, err := term.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && len(b) > maxBytes {
		return nil, &TooLargeError{Size: len(b), Max: maxBytes}
	}
	return b, nil
}

// TooLargeError reports a response that does not fit one frame.
type TooLargeError struct {
	Size int
	Max  int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%v: %d bytes exceeds %d", ErrResponseTooLarge, e.Size, e.Max)
}

func (e *TooLargeError) Unwrap() error {
	return ErrResponseTooLarge
}
