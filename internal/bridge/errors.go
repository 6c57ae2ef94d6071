package bridge

import (
	"errors"
	"fmt"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol"
	"github.com/danmuck/fannport/internal/protocol/term"
	"github.com/danmuck/fannport/internal/registry"
)

var (
	ErrArgumentShape     = errors.New("bridge: argument shape mismatch")
	ErrLibrary           = errors.New("bridge: library operation failed")
	ErrUnrecognizedParam = errors.New("bridge: unrecognized parameter")
	ErrBadDescriptor     = errors.New("bridge: bad descriptor")
	errHandlerPanic      = errors.New("bridge: handler panic")
)

// Reason atoms sent back in {error, Reason}.
const (
	reasonUnsupported   = term.Atom("unsupported_command")
	reasonMalformed     = term.Atom("malformed_term")
	reasonNotFound      = term.Atom("handle_not_found")
	reasonWrongKind     = term.Atom("wrong_handle_kind")
	reasonShape         = term.Atom("argument_shape_mismatch")
	reasonLibrary       = term.Atom("library_operation_failed")
	reasonUnrecognized  = term.Atom("unrecognized_param")
	reasonResponseLarge = term.Atom("response_too_large")
)

// HandleError ties a registry failure to the key the peer sent.
type HandleError struct {
	Key registry.Key
	Err error
}

func (e *HandleError) Error() string { return e.Err.Error() }

func (e *HandleError) Unwrap() error { return e.Err }

// ParamError names a parameter get_param does not know.
type ParamError struct {
	Name string
}

func (e *ParamError) Error() string { return fmt.Sprintf("%v: %s", ErrUnrecognizedParam, e.Name) }

func (e *ParamError) Unwrap() error { return ErrUnrecognizedParam }

// LibraryError wraps a computation library failure with the operation name.
type LibraryError struct {
	Op  string
	Err error
}

func (e *LibraryError) Error() string { return fmt.Sprintf("%v: %s: %v", ErrLibrary, e.Op, e.Err) }

func (e *LibraryError) Unwrap() []error { return []error{ErrLibrary, e.Err} }

func library(op string, err error) error {
	if err == nil {
		return nil
	}
	return &LibraryError{Op: op, Err: err}
}

func shapef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrArgumentShape, fmt.Sprintf(format, args...))
}

// Reason maps an error to the term reported to the peer.
func Reason(err error) term.Term {
	var (
		tooLarge *protocol.TooLargeError
		handle   *HandleError
		param    *ParamError
		lib      *LibraryError
	)
	switch {
	case errors.As(err, &tooLarge):
		return term.Tuple{reasonResponseLarge, term.Int(tooLarge.Size)}
	case errors.Is(err, protocol.ErrUnsupportedCommand):
		return reasonUnsupported
	case errors.As(err, &handle):
		if errors.Is(err, registry.ErrWrongKind) {
			return term.Tuple{reasonWrongKind, term.Int(handle.Key)}
		}
		return term.Tuple{reasonNotFound, term.Int(handle.Key)}
	case errors.As(err, &param):
		return term.Tuple{reasonUnrecognized, term.Atom(param.Name)}
	case errors.Is(err, ErrArgumentShape), errors.Is(err, fann.ErrWidthMismatch):
		return term.Tuple{reasonShape, term.String(detail(err))}
	case errors.Is(err, term.ErrMalformed):
		return term.Tuple{reasonMalformed, term.String(err.Error())}
	case errors.As(err, &lib):
		return term.Tuple{reasonLibrary, term.String(lib.Op + ": " + lib.Err.Error())}
	default:
		return term.Tuple{reasonLibrary, term.String(err.Error())}
	}
}

func detail(err error) string {
	var lib *LibraryError
	if errors.As(err, &lib) {
		return lib.Op + ": " + lib.Err.Error()
	}
	return err.Error()
}
