package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	DefaultWidth      = 2
	initialBufferSize = 128
)

var (
	ErrTruncated       = errors.New("frame: truncated frame")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrInvalidWidth    = errors.New("frame: invalid length prefix width")
)

// Config fixes the length prefix both ends agree on.
type Config struct {
	Width int
}

func DefaultConfig() Config {
	return Config{Width: DefaultWidth}
}

func (c Config) Validate() error {
	switch c.Width {
	case 1, 2, 4:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidWidth, c.Width)
	}
}

// MaxPayload is the largest payload the prefix can describe.
func (c Config) MaxPayload() int {
	switch c.Width {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	case 4:
		return math.MaxInt32
	default:
		return 0
	}
}

// Reader reads length-prefixed frames and reuses its receive buffer.
type Reader struct {
	r      io.Reader
	cfg    Config
	prefix [4]byte
	buf    []byte
}

func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Reader{r: r, cfg: cfg, buf: make([]byte, initialBufferSize)}, nil
}

// ReadFrame returns the next payload. The slice is only valid until the next
// call. io.EOF means the peer closed the stream between frames.
func (fr *Reader) ReadFrame() ([]byte, error) {
	prefix := fr.prefix[:fr.cfg.Width]
	if _, err := io.ReadFull(fr.r, prefix); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short length prefix", ErrTruncated)
		}
		return nil, fmt.Errorf("frame: read prefix: %w", err)
	}

	n := decodeLength(prefix)
	if n > fr.cfg.MaxPayload() {
		return nil, fmt.Errorf("%w: declared %d bytes", ErrPayloadTooLarge, n)
	}
	if n > len(fr.buf) {
		fr.buf = make([]byte, n)
	}
	payload := fr.buf[:n]
	if n == 0 {
		return payload, nil
	}
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d payload bytes", ErrTruncated, n)
		}
		return nil, fmt.Errorf("frame: read payload: %w", err)
	}
	return payload, nil
}

// BufferSize reports the current receive buffer capacity.
func (fr *Reader) BufferSize() int {
	return len(fr.buf)
}

// Writer writes length-prefixed frames.
type Writer struct {
	w   io.Writer
	cfg Config
	out []byte
}

func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Writer{w: w, cfg: cfg}, nil
}

// WriteFrame writes prefix and payload in one buffer, retrying short writes.
func (fw *Writer) WriteFrame(payload []byte) error {
	if len(payload) > fw.cfg.MaxPayload() {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(payload), fw.cfg.MaxPayload())
	}
	fw.out = appendLength(fw.out[:0], fw.cfg.Width, len(payload))
	fw.out = append(fw.out, payload...)
	return writeFull(fw.w, fw.out)
}

// MaxPayload reports the largest payload this writer accepts.
func (fw *Writer) MaxPayload() int {
	return fw.cfg.MaxPayload()
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return fmt.Errorf("frame: write: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("frame: write: %w", io.ErrShortWrite)
		}
		b = b[n:]
	}
	return nil
}

func decodeLength(prefix []byte) int {
	switch len(prefix) {
	case 1:
		return int(prefix[0])
	case 2:
		return int(binary.BigEndian.Uint16(prefix))
	default:
		return int(binary.BigEndian.Uint32(prefix))
	}
}

func appendLength(dst []byte, width, n int) []byte {
	switch width {
	case 1:
		return append(dst, byte(n))
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		return binary.BigEndian.AppendUint32(dst, uint32(n))
	}
}
