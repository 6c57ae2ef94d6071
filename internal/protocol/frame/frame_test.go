package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{131, 100, 0, 2, 'o', 'k'},
		bytes.Repeat([]byte{0xAB}, 1000),
		bytes.Repeat([]byte{0x01}, 0xFFFF),
	}
	var buf bytes.Buffer
	w, err := NewWriter(&buf, DefaultConfig())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, p := range payloads {
		if err := w.WriteFrame(p); err != nil {
			t.Fatalf("write frame len=%d: %v", len(p), err)
		}
	}
	r, err := NewReader(&buf, DefaultConfig())
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	for _, want := range payloads {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("read frame len=%d: %v", len(want), err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("payload mismatch: got %d bytes want %d", len(got), len(want))
		}
	}
	if _, err := r.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

func TestWriteFramePrefixIsBigEndian(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, DefaultConfig())
	if err := w.WriteFrame(bytes.Repeat([]byte{7}, 0x0102)); err != nil {
		t.Fatalf("write: %v", err)
	}
	b := buf.Bytes()
	if b[0] != 0x01 || b[1] != 0x02 {
		t.Fatalf("unexpected prefix: %x %x", b[0], b[1])
	}
	if len(b) != 2+0x0102 {
		t.Fatalf("unexpected frame size: %d", len(b))
	}
}

func TestReadFrameGrowsBuffer(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, DefaultConfig())
	_ = w.WriteFrame(bytes.Repeat([]byte{1}, 4096))
	r, _ := NewReader(&buf, DefaultConfig())
	if r.BufferSize() >= 4096 {
		t.Fatalf("initial buffer unexpectedly large: %d", r.BufferSize())
	}
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 4096 || r.BufferSize() < 4096 {
		t.Fatalf("buffer not grown: len=%d cap=%d", len(got), r.BufferSize())
	}
}

func TestReadFrameShortPrefixIsTruncated(t *testing.T) {
	r, _ := NewReader(bytes.NewReader([]byte{0x00}), DefaultConfig())
	_, err := r.ReadFrame()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameShortPayloadIsTruncated(t *testing.T) {
	r, _ := NewReader(bytes.NewReader([]byte{0x00, 0x05, 'a', 'b'}), DefaultConfig())
	_, err := r.ReadFrame()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, Config{Width: 1})
	err := w.WriteFrame(make([]byte, 256))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("oversized frame wrote %d bytes", buf.Len())
	}
}

func TestFourByteWidth(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Width: 4}
	w, _ := NewWriter(&buf, cfg)
	payload := bytes.Repeat([]byte{9}, 70000)
	if err := w.WriteFrame(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, _ := NewReader(&buf, cfg)
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestInvalidWidth(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(nil), Config{Width: 3}); !errors.Is(err, ErrInvalidWidth) {
		t.Fatalf("expected ErrInvalidWidth, got %v", err)
	}
	if _, err := NewWriter(io.Discard, Config{Width: 0}); !errors.Is(err, ErrInvalidWidth) {
		t.Fatalf("expected ErrInvalidWidth, got %v", err)
	}
}

type chunkWriter struct {
	bytes.Buffer
	max int
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	if len(p) > c.max {
		p = p[:c.max]
	}
	return c.Buffer.Write(p)
}

func TestWriteFrameRetriesShortWrites(t *testing.T) {
	cw := &chunkWriter{max: 3}
	w, _ := NewWriter(cw, DefaultConfig())
	if err := w.WriteFrame([]byte("hello world")); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, _ := NewReader(&cw.Buffer, DefaultConfig())
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("unexpected payload %q", got)
	}
}
