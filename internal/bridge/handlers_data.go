package bridge

import (
	"context"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
)

func readTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	path, err := term.AsString(arg)
	if err != nil {
		return nil, err
	}
	d, err := fann.ReadTrainFile(path, b.options()...)
	if err != nil {
		return nil, library("read_train_from_file", err)
	}
	return b.addDataset(d), nil
}

func destroyTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	target, _, err := split(arg)
	if err != nil {
		return nil, err
	}
	k, err := key(target)
	if err != nil {
		return nil, err
	}
	if err := b.reg.RemoveDataset(k); err != nil {
		return nil, &HandleError{Key: k, Err: err}
	}
	b.log.Debug().Uint64("handle", uint64(k)).Msg("dataset destroyed")
	return unit, nil
}

func duplicateTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	d, _, err := b.datasetArg(arg)
	if err != nil {
		return nil, err
	}
	c, err := d.Duplicate()
	if err != nil {
		return nil, library("duplicate_train", err)
	}
	return b.addDataset(c), nil
}

func mergeTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	target, _, err := split(arg)
	if err != nil {
		return nil, err
	}
	pair, err := term.AsTuple(target, 2)
	if err != nil {
		return nil, err
	}
	_, d1, err := b.dataset(pair[0])
	if err != nil {
		return nil, err
	}
	_, d2, err := b.dataset(pair[1])
	if err != nil {
		return nil, err
	}
	m, err := d1.Merge(d2)
	if err != nil {
		return nil, library("merge_train", err)
	}
	return b.addDataset(m), nil
}

func subsetTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	d, params, err := b.datasetArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 2)
	if err != nil {
		return nil, err
	}
	pos, err := intField(f[0])
	if err != nil {
		return nil, err
	}
	length, err := intField(f[1])
	if err != nil {
		return nil, err
	}
	s, err := d.Subset(pos, length)
	if err != nil {
		return nil, library("subset_train_data", err)
	}
	return b.addDataset(s), nil
}

func shuffleTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	d, _, err := b.datasetArg(arg)
	if err != nil {
		return nil, err
	}
	if err := d.Shuffle(); err != nil {
		return nil, library("shuffle_train", err)
	}
	return unit, nil
}

func saveTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	d, params, err := b.datasetArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 1)
	if err != nil {
		return nil, err
	}
	path, err := term.AsString(f[0])
	if err != nil {
		return nil, err
	}
	if err := d.Save(path); err != nil {
		return nil, library("save_train", err)
	}
	return unit, nil
}

func trainParams(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	d, _, err := b.datasetArg(arg)
	if err != nil {
		return nil, err
	}
	return term.Map{
		{Key: term.Atom("length"), Value: term.Int(d.Length())},
		{Key: term.Atom("num_input"), Value: term.Int(d.NumInput())},
		{Key: term.Atom("num_output"), Value: term.Int(d.NumOutput())},
	}, nil
}
