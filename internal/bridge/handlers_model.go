package bridge

import (
	"context"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
	"github.com/danmuck/fannport/internal/registry"
)

// createStandard accepts {Layers}, {Layers, Kind}, {Layers, Kind, ConnRate}
// or {Layers, Kind, ConnRate, Options}. ConnRate is read only for sparse
// networks.
func createStandard(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	args, err := term.AsTuple(arg, -1)
	if err != nil {
		return nil, err
	}
	if len(args) < 1 || len(args) > 4 {
		return nil, shapef("create_standard takes 1 to 4 fields, got %d", len(args))
	}
	layerTuple, err := term.AsTuple(args[0], -1)
	if err != nil {
		return nil, err
	}
	sizes := make([]int, len(layerTuple))
	for i, l := range layerTuple {
		if sizes[i], err = intField(l); err != nil {
			return nil, err
		}
	}

	var opts term.Map
	if len(args) == 4 {
		if opts, err = term.AsMap(args[3]); err != nil {
			return nil, err
		}
	}

	kind := "standard"
	if len(args) > 1 {
		if kind, err = term.AsAtom(args[1]); err != nil {
			return nil, err
		}
	}

	var n *fann.Network
	switch kind {
	case "standard":
		n, err = fann.NewStandard(sizes, b.options()...)
	case "shortcut":
		n, err = fann.NewShortcut(sizes, b.options()...)
	case "sparse":
		rate := 1.0
		if len(args) > 2 {
			if rate, err = term.AsNumber(args[2]); err != nil {
				return nil, err
			}
		}
		n, err = fann.NewSparse(rate, sizes, b.options()...)
	default:
		return nil, shapef("unknown network kind %q", kind)
	}
	if err != nil {
		return nil, library("create_standard", err)
	}

	if len(opts) > 0 {
		p := n.Params()
		applyParams(b.log, &p, opts)
		n.SetParams(p)
	}
	return b.addModel(n), nil
}

func createFromFile(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	path, err := term.AsString(arg)
	if err != nil {
		return nil, err
	}
	n, err := fann.Load(path, b.options()...)
	if err != nil {
		return nil, library("create_from_file", err)
	}
	return b.addModel(n), nil
}

func copyModel(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, _, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	c, err := n.Copy()
	if err != nil {
		return nil, library("copy", err)
	}
	return b.addModel(c), nil
}

func destroyModel(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	target, _, err := split(arg)
	if err != nil {
		return nil, err
	}
	k, err := key(target)
	if err != nil {
		return nil, err
	}
	if err := b.reg.RemoveModel(k); err != nil {
		return nil, &HandleError{Key: k, Err: err}
	}
	b.log.Debug().Uint64("handle", uint64(k)).Msg("model destroyed")
	return unit, nil
}

func saveModel(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
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
	if err := n.Save(path); err != nil {
		return nil, library("save_to_file", err)
	}
	return unit, nil
}

func registryInfo(_ context.Context, b *Bridge, _ term.Term) (term.Term, error) {
	c := b.reg.Counts()
	return term.Map{
		{Key: term.Atom("models"), Value: term.Int(c.Models)},
		{Key: term.Atom("datasets"), Value: term.Int(c.Datasets)},
		{Key: term.Atom("next_key"), Value: term.Int(c.NextKey)},
	}, nil
}

func (b *Bridge) addModel(n *fann.Network) term.Term {
	k := b.reg.AddModel(n)
	b.log.Debug().Uint64("handle", uint64(k)).Str("kind", registry.KindModel).Ints("layers", n.Layers()).Msg("model registered")
	return term.Int(k)
}

func (b *Bridge) addDataset(d *fann.TrainData) term.Term {
	k := b.reg.AddDataset(d)
	b.log.Debug().Uint64("handle", uint64(k)).Str("kind", registry.KindDataset).Int("length", d.Length()).Msg("dataset registered")
	return term.Int(k)
}
