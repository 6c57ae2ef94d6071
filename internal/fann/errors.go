package fann

import "errors"

var (
	ErrDestroyed       = errors.New("fann: object destroyed")
	ErrWidthMismatch   = errors.New("fann: vector width mismatch")
	ErrIndexRange      = errors.New("fann: index out of range")
	ErrNoConnection    = errors.New("fann: no such connection")
	ErrNoScaling       = errors.New("fann: scaling parameters not set")
	ErrEmptyData       = errors.New("fann: empty training data")
	ErrFormat          = errors.New("fann: bad file format")
	ErrInvalidArgument = errors.New("fann: invalid argument")

	// ErrStopTraining may be returned by a Reporter to end training early
	// without failing the call.
	ErrStopTraining = errors.New("fann: training stopped by reporter")
)
