package bridge

import (
	"context"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
)

func runModel(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 1)
	if err != nil {
		return nil, err
	}
	in, err := vector(f[0], n.NumInput())
	if err != nil {
		return nil, err
	}
	out, err := n.Run(in)
	if err != nil {
		return nil, library("run", err)
	}
	return floats(out), nil
}

// pattern decodes {Input, Output} against the model's widths.
func pattern(n *fann.Network, params term.Term) (in, out []float64, err error) {
	f, err := fields(params, 2)
	if err != nil {
		return nil, nil, err
	}
	if in, err = vector(f[0], n.NumInput()); err != nil {
		return nil, nil, err
	}
	if out, err = vector(f[1], n.NumOutput()); err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

func trainPattern(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	in, out, err := pattern(n, params)
	if err != nil {
		return nil, err
	}
	if err := n.Train(in, out); err != nil {
		return nil, library("train", err)
	}
	return unit, nil
}

func testPattern(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	in, out, err := pattern(n, params)
	if err != nil {
		return nil, err
	}
	got, err := n.Test(in, out)
	if err != nil {
		return nil, library("test", err)
	}
	return floats(got), nil
}

// trainOptions decodes {MaxEpochs, EpochsBetweenReports, DesiredError}.
func (b *Bridge) trainOptions(f term.Tuple) (fann.TrainOptions, error) {
	maxEpochs, err := intField(f[0])
	if err != nil {
		return fann.TrainOptions{}, err
	}
	between, err := intField(f[1])
	if err != nil {
		return fann.TrainOptions{}, err
	}
	desired, err := term.AsNumber(f[2])
	if err != nil {
		return fann.TrainOptions{}, err
	}
	if maxEpochs < 0 || between < 0 {
		return fann.TrainOptions{}, shapef("negative epoch count")
	}
	return fann.TrainOptions{
		MaxEpochs:            maxEpochs,
		EpochsBetweenReports: 1,
		DesiredError:         desired,
		Reporter:             b.newProgress(between),
	}, nil
}

func trainOnFile(ctx context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 4)
	if err != nil {
		return nil, err
	}
	path, err := term.AsString(f[0])
	if err != nil {
		return nil, err
	}
	opts, err := b.trainOptions(f[1:])
	if err != nil {
		return nil, err
	}
	if err := n.TrainOnFile(ctx, path, opts); err != nil {
		return nil, library("train_on_file", err)
	}
	return unit, nil
}

func trainOnData(ctx context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, d, params, err := b.pairArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 3)
	if err != nil {
		return nil, err
	}
	opts, err := b.trainOptions(f)
	if err != nil {
		return nil, err
	}
	if err := n.TrainOnData(ctx, d, opts); err != nil {
		return nil, library("train_on_data", err)
	}
	return unit, nil
}

func trainEpoch(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, d, _, err := b.pairArg(arg)
	if err != nil {
		return nil, err
	}
	mse, err := n.TrainEpoch(d)
	if err != nil {
		return nil, library("train_epoch", err)
	}
	b.metrics.AddEpochs(1)
	return term.Float(mse), nil
}

func testData(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, d, _, err := b.pairArg(arg)
	if err != nil {
		return nil, err
	}
	mse, err := n.TestData(d)
	if err != nil {
		return nil, library("test_data", err)
	}
	return term.Float(mse), nil
}

func resetMSE(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, _, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	n.ResetMSE()
	return unit, nil
}
