package bridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/fannport/internal/observability"
	"github.com/danmuck/fannport/internal/protocol/frame"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ServiceConfig configures the port process.
type ServiceConfig struct {
	InFD            int
	OutFD           int
	Stdio           bool
	Packet          int
	Seed            uint64
	ReportProgress  bool
	MetricsTextfile string
}

// DefaultServiceConfig matches an Erlang port opened with {packet, 2} and
// nouse_stdio.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		InFD:           3,
		OutFD:          4,
		Stdio:          false,
		Packet:         frame.DefaultWidth,
		ReportProgress: true,
	}
}

// Service runs one bridge over the port streams for the process lifetime.
type Service struct {
	cfg     ServiceConfig
	runID   string
	log     zerolog.Logger
	metrics *observability.Metrics
	bridge  *Bridge
}

func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) *Service {
	if cfg.Packet == 0 {
		cfg.Packet = frame.DefaultWidth
	}
	runID := uuid.NewString()
	logger := log.Logger.With().Str("run_id", runID).Logger()
	metrics := observability.NewMetrics()
	fcfg := frame.Config{Width: cfg.Packet}
	return &Service{
		cfg:     cfg,
		runID:   runID,
		log:     logger,
		metrics: metrics,
		bridge: New(Config{
			MaxResponse:    fcfg.MaxPayload(),
			Seed:           cfg.Seed,
			ReportProgress: cfg.ReportProgress,
		}, logger, metrics),
	}
}

func (s *Service) Bridge() *Bridge { return s.bridge }

func (s *Service) Metrics() *observability.Metrics { return s.metrics }

func (s *Service) RunID() string { return s.runID }

// Run blocks until the peer closes the port or the process is signalled.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext opens the configured descriptors and serves them until ctx is
// done or the input stream ends.
func (s *Service) RunContext(ctx context.Context) error {
	in, out, err := s.streams()
	if err != nil {
		return err
	}
	defer out.Close()
	return s.ServeStreams(ctx, in, out)
}

func (s *Service) streams() (*os.File, *os.File, error) {
	inFD, outFD := s.cfg.InFD, s.cfg.OutFD
	if s.cfg.Stdio {
		inFD, outFD = 0, 1
	}
	in, err := openStream(inFD, "port-in", true)
	if err != nil {
		return nil, nil, err
	}
	out, err := openStream(outFD, "port-out", false)
	if err != nil {
		in.Close()
		return nil, nil, err
	}
	return in, out, nil
}

// ServeStreams runs the serve loop over in and out. in is closed when ctx is
// done so a blocked read returns; the registry is released and metrics are
// flushed before it returns.
func (s *Service) ServeStreams(ctx context.Context, in io.ReadCloser, out io.Writer) error {
	fcfg := frame.Config{Width: s.cfg.Packet}
	reader, err := frame.NewReader(in, fcfg)
	if err != nil {
		return err
	}
	writer, err := frame.NewWriter(out, fcfg)
	if err != nil {
		return err
	}

	s.log.Info().
		Int("packet", s.cfg.Packet).
		Bool("stdio", s.cfg.Stdio).
		Int("in_fd", s.cfg.InFD).
		Int("out_fd", s.cfg.OutFD).
		Msg("fannport ready")

	start := time.Now()
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(serveCtx)
	g.Go(func() error {
		defer cancel()
		return s.bridge.Serve(gctx, reader, writer)
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := in.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close input")
		}
		return nil
	})
	serveErr := g.Wait()

	counts := s.bridge.Close()
	if err := s.metrics.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
		s.log.Warn().Err(err).Str("path", s.cfg.MetricsTextfile).Msg("metrics textfile")
	}
	s.log.Info().
		Dur("uptime", time.Since(start)).
		Int("released_models", counts.Models).
		Int("released_datasets", counts.Datasets).
		Msg("fannport stopped")
	if serveErr != nil {
		return fmt.Errorf("bridge: serve: %w", serveErr)
	}
	return nil
}
