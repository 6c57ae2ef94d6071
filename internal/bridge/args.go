package bridge

import (
	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
	"github.com/danmuck/fannport/internal/registry"
)

// unit is the empty tuple returned by commands with no result.
var unit = term.Tuple{}

// split decodes the {Target, Params} argument shape.
func split(arg term.Term) (target, params term.Term, err error) {
	t, err := term.AsTuple(arg, 2)
	if err != nil {
		return nil, nil, err
	}
	return t[0], t[1], nil
}

func key(t term.Term) (registry.Key, error) {
	v, err := term.AsUint(t)
	if err != nil {
		return 0, err
	}
	return registry.Key(v), nil
}

func (b *Bridge) model(t term.Term) (registry.Key, *fann.Network, error) {
	k, err := key(t)
	if err != nil {
		return 0, nil, err
	}
	n, err := b.reg.Model(k)
	if err != nil {
		return k, nil, &HandleError{Key: k, Err: err}
	}
	return k, n, nil
}

func (b *Bridge) dataset(t term.Term) (registry.Key, *fann.TrainData, error) {
	k, err := key(t)
	if err != nil {
		return 0, nil, err
	}
	d, err := b.reg.Dataset(k)
	if err != nil {
		return k, nil, &HandleError{Key: k, Err: err}
	}
	return k, d, nil
}

// modelArg resolves {M, Params}.
func (b *Bridge) modelArg(arg term.Term) (*fann.Network, term.Term, error) {
	target, params, err := split(arg)
	if err != nil {
		return nil, nil, err
	}
	_, n, err := b.model(target)
	if err != nil {
		return nil, nil, err
	}
	return n, params, nil
}

// datasetArg resolves {D, Params}.
func (b *Bridge) datasetArg(arg term.Term) (*fann.TrainData, term.Term, error) {
	target, params, err := split(arg)
	if err != nil {
		return nil, nil, err
	}
	_, d, err := b.dataset(target)
	if err != nil {
		return nil, nil, err
	}
	return d, params, nil
}

// pairArg resolves {{M, D}, Params}.
func (b *Bridge) pairArg(arg term.Term) (*fann.Network, *fann.TrainData, term.Term, error) {
	target, params, err := split(arg)
	if err != nil {
		return nil, nil, nil, err
	}
	pair, err := term.AsTuple(target, 2)
	if err != nil {
		return nil, nil, nil, err
	}
	_, n, err := b.model(pair[0])
	if err != nil {
		return nil, nil, nil, err
	}
	_, d, err := b.dataset(pair[1])
	if err != nil {
		return nil, nil, nil, err
	}
	return n, d, params, nil
}

// fields decodes a parameter tuple of fixed arity.
func fields(params term.Term, arity int) (term.Tuple, error) {
	return term.AsTuple(params, arity)
}

func intField(t term.Term) (int, error) {
	v, err := term.AsInt(t)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// vector decodes a tuple of numbers that must have exactly width entries.
func vector(t term.Term, width int) ([]float64, error) {
	tup, err := term.AsTuple(t, -1)
	if err != nil {
		return nil, err
	}
	if len(tup) != width {
		return nil, shapef("vector has %d values, expected %d", len(tup), width)
	}
	out := make([]float64, len(tup))
	for i, e := range tup {
		if out[i], err = term.AsNumber(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func floats(v []float64) term.Tuple {
	out := make(term.Tuple, len(v))
	for i, f := range v {
		out[i] = term.Float(f)
	}
	return out
}

func ints(v []int) term.Tuple {
	out := make(term.Tuple, len(v))
	for i, n := range v {
		out[i] = term.Int(n)
	}
	return out
}
