package bridge

import (
	"context"
	"errors"
	"io"

	"github.com/danmuck/fannport/internal/protocol/frame"
)

// Serve reads one frame, handles it and writes the response, until the peer
// closes the stream or ctx is done. Request-level problems are answered on
// the stream; only transport failures end the loop with an error.
func (b *Bridge) Serve(ctx context.Context, r *frame.Reader, w *frame.Writer) error {
	handled := 0
	for {
		if ctx.Err() != nil {
			b.log.Info().Int("handled", handled).Msg("serve loop stopping")
			return nil
		}
		payload, err := r.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.log.Info().Int("handled", handled).Msg("peer closed input")
				return nil
			}
			if ctx.Err() != nil {
				b.log.Info().Int("handled", handled).Msg("serve loop interrupted")
				return nil
			}
			return err
		}
		if err := w.WriteFrame(b.Handle(ctx, payload)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		handled++
	}
}
