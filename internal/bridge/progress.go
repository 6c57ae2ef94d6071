package bridge

import (
	"github.com/danmuck/fannport/internal/fann"
)

// newProgress returns the reporter used for train_on_data and train_on_file.
// It sees every epoch so the epoch counter stays exact, and logs on the
// peer's cadence: the first epoch, every `every` epochs, the last epoch and
// the epoch that reaches the desired error. every == 0 disables logging.
func (b *Bridge) newProgress(every int) fann.Reporter {
	return fann.ReporterFunc(func(p fann.Progress) error {
		b.metrics.AddEpochs(1)
		if !b.cfg.ReportProgress || every <= 0 {
			return nil
		}
		if p.Epoch != 1 && p.Epoch%every != 0 && p.Epoch != p.MaxEpochs && !p.Done {
			return nil
		}
		b.log.Info().
			Int("epoch", p.Epoch).
			Int("max_epochs", p.MaxEpochs).
			Float64("mse", p.MSE).
			Float64("desired_error", p.DesiredError).
			Int("bit_fail", p.BitFail).
			Bool("done", p.Done).
			Msg("training progress")
		return nil
	})
}
