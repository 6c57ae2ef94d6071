package bridge

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/observability"
	"github.com/danmuck/fannport/internal/protocol"
	"github.com/danmuck/fannport/internal/protocol/term"
	"github.com/danmuck/fannport/internal/registry"
	"github.com/rs/zerolog"
)

// unknownCommand labels metrics for requests that never reached a handler.
const unknownCommand = "unknown"

// Config tunes one Bridge.
type Config struct {
	// MaxResponse is the largest encoded response the transport can frame.
	// Zero disables the check.
	MaxResponse int
	// Seed makes object construction reproducible. Zero seeds from the
	// runtime source.
	Seed uint64
	// ReportProgress logs training progress at the peer's report cadence.
	ReportProgress bool
}

// Bridge owns the handle registry and dispatches decoded requests to the
// command handlers. Requests are handled one at a time.
type Bridge struct {
	reg     *registry.Registry
	cfg     Config
	log     zerolog.Logger
	metrics *observability.Metrics
}

// New builds a Bridge with an empty registry. metrics may be nil.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Bridge {
	return &Bridge{
		reg:     registry.New(),
		cfg:     cfg,
		log:     logger,
		metrics: metrics,
	}
}

func (b *Bridge) Registry() *registry.Registry {
	return b.reg
}

// options derives per-object construction options. A fixed seed is offset
// by the next key so objects built in sequence do not share weights.
func (b *Bridge) options() []fann.Option {
	if b.cfg.Seed == 0 {
		return nil
	}
	return []fann.Option{fann.WithSeed(b.cfg.Seed + uint64(b.reg.Counts().NextKey))}
}

// Handle decodes one request payload and returns the encoded response. It
// never fails: every problem is reported to the peer as {error, Reason}.
func (b *Bridge) Handle(ctx context.Context, payload []byte) []byte {
	start := time.Now()
	name, result, status, err := b.dispatch(ctx, payload)

	resp := protocol.OK(result)
	if err != nil {
		resp = protocol.Error(Reason(err))
	}
	out, encErr := protocol.EncodeResponse(resp, b.cfg.MaxResponse)
	if encErr != nil {
		err = encErr
		status = observability.StatusError
		out, encErr = protocol.EncodeResponse(protocol.Error(Reason(encErr)), b.cfg.MaxResponse)
		if encErr != nil {
			out, _ = term.Marshal(protocol.Error(reasonLibrary))
		}
	}

	observability.ObserveCommand(b.log, b.metrics, name, status, start, err)
	b.recordHandles()
	return out
}

func (b *Bridge) dispatch(ctx context.Context, payload []byte) (string, term.Term, string, error) {
	env, err := protocol.DecodeEnvelope(payload)
	if err != nil {
		return unknownCommand, nil, observability.StatusError, err
	}
	cmd, ok := Lookup(env.Command)
	if !ok {
		return unknownCommand, nil, observability.StatusError,
			fmt.Errorf("%w: %s", protocol.ErrUnsupportedCommand, env.Command)
	}
	if env.HasToken {
		b.log.Debug().Str("command", cmd.Name).Str("token", fmt.Sprint(env.Token)).Msg("request")
	}

	result, panicked, err := b.invoke(ctx, cmd, env.Arg)
	switch {
	case panicked:
		return cmd.Name, nil, observability.StatusPanic, err
	case err != nil:
		return cmd.Name, nil, observability.StatusError, err
	case result == nil:
		result = unit
	}
	return cmd.Name, result, observability.StatusOK, nil
}

// invoke runs a handler and converts a panic into a library failure so one
// bad request cannot take the port down.
func (b *Bridge) invoke(ctx context.Context, cmd Command, arg term.Term) (result term.Term, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("command", cmd.Name).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("handler panic")
			result = nil
			panicked = true
			err = &LibraryError{Op: cmd.Name, Err: fmt.Errorf("%w: %v", errHandlerPanic, r)}
		}
	}()
	result, err = cmd.Handler(ctx, b, arg)
	return result, false, err
}

func (b *Bridge) recordHandles() {
	if b.metrics == nil {
		return
	}
	c := b.reg.Counts()
	b.metrics.SetHandles(registry.KindModel, c.Models)
	b.metrics.SetHandles(registry.KindDataset, c.Datasets)
}

// Close releases every object still registered.
func (b *Bridge) Close() registry.Counts {
	c := b.reg.Close()
	b.recordHandles()
	b.log.Info().Int("models", c.Models).Int("datasets", c.Datasets).Msg("registry released")
	return c
}
