package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/fannport/internal/observability"
	"github.com/danmuck/fannport/internal/protocol/frame"
	"github.com/danmuck/fannport/internal/protocol/term"
	"github.com/danmuck/fannport/internal/testutil/testlog"
)

func framed(t *testing.T, width int, reqs ...term.Term) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w, err := frame.NewWriter(&buf, frame.Config{Width: width})
	require.NoError(t, err)
	for _, r := range reqs {
		payload, err := term.Marshal(r)
		require.NoError(t, err)
		require.NoError(t, w.WriteFrame(payload))
	}
	return &buf
}

func responses(t *testing.T, width int, raw []byte) []term.Tuple {
	t.Helper()
	r, err := frame.NewReader(bytes.NewReader(raw), frame.Config{Width: width})
	require.NoError(t, err)
	var out []term.Tuple
	for {
		payload, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		resp, err := term.Unmarshal(payload)
		require.NoError(t, err)
		tuple, err := term.AsTuple(resp, 2)
		require.NoError(t, err)
		out = append(out, tuple)
	}
}

func TestServeAnswersEveryFrame(t *testing.T) {
	b := newTestBridge(t)
	in := framed(t, 2,
		T{A("create_standard"), T{T{I(2), I(2), I(1)}}},
		T{A("nonsense"), T{}},
		T{A("run"), T{I(1), T{T{F(1)}}}},
		T{A("run"), A("tok"), T{I(1), T{T{F(1), F(0)}}}},
		T{A("destroy"), T{I(1), T{}}},
	)
	// a malformed term in a well-formed frame
	fw, err := frame.NewWriter(in, frame.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, fw.WriteFrame([]byte{131, 255}))

	r, err := frame.NewReader(in, frame.DefaultConfig())
	require.NoError(t, err)
	var out bytes.Buffer
	w, err := frame.NewWriter(&out, frame.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, b.Serve(context.Background(), r, w))

	got := responses(t, 2, out.Bytes())
	require.Len(t, got, 6)
	require.Equal(t, T{A("ok"), I(1)}, got[0])
	require.Equal(t, T{A("error"), A("unsupported_command")}, got[1])
	require.Equal(t, A("argument_shape_mismatch"), reasonAtom(t, got[2][1]))
	require.Equal(t, A("ok"), got[3][0])
	require.Equal(t, T{A("ok"), unit}, got[4])
	require.Equal(t, A("malformed_term"), reasonAtom(t, got[5][1]))
}

func TestServeTruncatedFrameIsFatal(t *testing.T) {
	b := newTestBridge(t)
	in := bytes.NewReader([]byte{0, 10, 131, 97})
	r, err := frame.NewReader(in, frame.DefaultConfig())
	require.NoError(t, err)
	w, err := frame.NewWriter(io.Discard, frame.DefaultConfig())
	require.NoError(t, err)

	err = b.Serve(context.Background(), r, w)
	require.ErrorIs(t, err, frame.ErrTruncated)
}

func TestServeOneBytePackets(t *testing.T) {
	testlog.Start(t)
	b := New(Config{MaxResponse: frame.Config{Width: 1}.MaxPayload(), Seed: 3}, log.Logger, nil)
	in := framed(t, 1,
		T{A("create_standard"), T{T{I(2), I(8), I(1)}}},
		T{A("get_param"), T{I(1), T{A("connections")}}},
		T{A("registry_info"), T{}},
	)
	r, err := frame.NewReader(in, frame.Config{Width: 1})
	require.NoError(t, err)
	var out bytes.Buffer
	w, err := frame.NewWriter(&out, frame.Config{Width: 1})
	require.NoError(t, err)

	require.NoError(t, b.Serve(context.Background(), r, w))
	got := responses(t, 1, out.Bytes())
	require.Len(t, got, 3)
	require.Equal(t, A("response_too_large"), reasonAtom(t, got[1][1]))
	require.Equal(t, A("ok"), got[2][0])
}

func TestServiceServeStreams(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultServiceConfig()
	cfg.Seed = 9
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "fannport.prom")
	s := NewServiceWithConfig(cfg)
	require.NotEmpty(t, s.RunID())

	in := framed(t, 2,
		T{A("create_standard"), T{T{I(2), I(2), I(1)}}},
		T{A("create_standard"), T{T{I(3), I(1)}}},
		T{A("copy"), T{I(1), T{}}},
	)
	var out bytes.Buffer
	require.NoError(t, s.ServeStreams(context.Background(), io.NopCloser(in), &out))

	got := responses(t, 2, out.Bytes())
	require.Len(t, got, 3)
	require.Equal(t, T{A("ok"), I(3)}, got[2])

	// everything still registered at EOF is released
	require.Equal(t, 0, s.Bridge().Registry().Counts().Models)

	raw, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), `fannport_commands_total{command="create_standard",status="ok"} 2`), string(raw))
	require.True(t, strings.Contains(string(raw), `fannport_handles{kind="model"} 0`), string(raw))
}

func TestServiceStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	s := NewServiceWithConfig(DefaultServiceConfig())
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ServeStreams(ctx, pr, io.Discard)
	}()

	payload, err := term.Marshal(T{A("create_standard"), T{T{I(1), I(1)}}})
	require.NoError(t, err)
	fw, err := frame.NewWriter(pw, frame.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, fw.WriteFrame(payload))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("service did not stop after cancel")
	}
}

func TestServiceRejectsBadPacket(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultServiceConfig()
	cfg.Packet = 3
	s := NewServiceWithConfig(cfg)
	err := s.ServeStreams(context.Background(), io.NopCloser(bytes.NewReader(nil)), io.Discard)
	require.ErrorIs(t, err, frame.ErrInvalidWidth)
}

func TestMetricsCountCommands(t *testing.T) {
	testlog.Start(t)
	m := observability.NewMetrics()
	b := New(Config{MaxResponse: 0xFFFF}, log.Logger, m)
	payload, err := term.Marshal(T{A("nope"), T{}})
	require.NoError(t, err)
	b.Handle(context.Background(), payload)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() != "fannport_commands_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["command"] == unknownCommand && labels["status"] == observability.StatusError {
				found = metric.GetCounter().GetValue() == 1
			}
		}
	}
	require.True(t, found)
}
