package protocol

import "errors"

var (
	ErrUnsupportedCommand = errors.New("protocol: unsupported command")
	ErrResponseTooLarge   = errors.New("protocol: response too large")
)
