package bridge

import (
	"context"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
)

func getParam(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 1)
	if err != nil {
		return nil, err
	}
	name, err := term.AsAtom(f[0])
	if err != nil {
		return nil, err
	}
	desc, ok := paramTable[name]
	if !ok {
		return nil, &ParamError{Name: name}
	}
	return desc.get(n), nil
}

func setParams(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 1)
	if err != nil {
		return nil, err
	}
	m, err := term.AsMap(f[0])
	if err != nil {
		return nil, err
	}
	p := n.Params()
	applied := applyParams(b.log, &p, m)
	n.SetParams(p)
	b.log.Debug().Int("applied", applied).Int("given", len(m)).Msg("set_params")
	return unit, nil
}

func randomizeWeights(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 2)
	if err != nil {
		return nil, err
	}
	lo, err := term.AsNumber(f[0])
	if err != nil {
		return nil, err
	}
	hi, err := term.AsNumber(f[1])
	if err != nil {
		return nil, err
	}
	if err := n.RandomizeWeights(lo, hi); err != nil {
		return nil, library("randomize_weights", err)
	}
	return unit, nil
}

func initWeights(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, d, _, err := b.pairArg(arg)
	if err != nil {
		return nil, err
	}
	if err := n.InitWeights(d); err != nil {
		return nil, library("init_weights", err)
	}
	return unit, nil
}

// setWeights applies #{{From, To} => W}. Keys that are not {From, To}
// pairs and non-numeric weights are skipped.
func setWeights(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 1)
	if err != nil {
		return nil, err
	}
	m, err := term.AsMap(f[0])
	if err != nil {
		return nil, err
	}
	conns := make([]fann.Connection, 0, len(m))
	for _, pair := range m {
		c, ok := connection(pair)
		if !ok {
			b.log.Debug().Str("kind", pair.Key.Kind().String()).Msg("set_weights: skipping entry")
			continue
		}
		conns = append(conns, c)
	}
	applied, err := n.SetWeights(conns)
	if err != nil {
		return nil, library("set_weights", err)
	}
	b.log.Debug().Int("applied", applied).Int("given", len(m)).Msg("set_weights")
	return unit, nil
}

func connection(pair term.Pair) (fann.Connection, bool) {
	k, err := term.AsTuple(pair.Key, 2)
	if err != nil {
		return fann.Connection{}, false
	}
	from, err := intField(k[0])
	if err != nil {
		return fann.Connection{}, false
	}
	to, err := intField(k[1])
	if err != nil {
		return fann.Connection{}, false
	}
	w, err := term.AsNumber(pair.Value)
	if err != nil {
		return fann.Connection{}, false
	}
	return fann.Connection{From: from, To: to, Weight: w}, true
}

func setWeight(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 3)
	if err != nil {
		return nil, err
	}
	from, err := intField(f[0])
	if err != nil {
		return nil, err
	}
	to, err := intField(f[1])
	if err != nil {
		return nil, err
	}
	w, err := term.AsNumber(f[2])
	if err != nil {
		return nil, err
	}
	if err := n.SetWeight(from, to, w); err != nil {
		return nil, library("set_weight", err)
	}
	return unit, nil
}
