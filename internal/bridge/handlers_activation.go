package bridge

import (
	"context"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
)

// neuronPosition decodes {Layer, Neuron} for the read commands.
func neuronPosition(params term.Term) (layer, neuron int, err error) {
	f, err := fields(params, 2)
	if err != nil {
		return 0, 0, err
	}
	if layer, err = intField(f[0]); err != nil {
		return 0, 0, err
	}
	if neuron, err = intField(f[1]); err != nil {
		return 0, 0, err
	}
	return layer, neuron, nil
}

func getActivationFunction(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	layer, neuron, err := neuronPosition(params)
	if err != nil {
		return nil, err
	}
	f, err := n.ActivationFunction(layer, neuron)
	if err != nil {
		return nil, library("get_activation_function", err)
	}
	return term.Atom(f.String()), nil
}

func getActivationSteepness(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	layer, neuron, err := neuronPosition(params)
	if err != nil {
		return nil, err
	}
	s, err := n.ActivationSteepness(layer, neuron)
	if err != nil {
		return nil, library("get_activation_steepness", err)
	}
	return term.Float(s), nil
}

func setActivationFunction(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := term.AsTuple(params, -1)
	if err != nil {
		return nil, err
	}
	layer, neuron, err := parseTargets(f)
	if err != nil {
		return nil, err
	}
	name, err := term.AsAtom(f[0])
	if err != nil {
		return nil, err
	}
	fn, ok := fann.ParseActivationFunc(name)
	if !ok {
		return nil, shapef("unknown activation function %q", name)
	}
	if err := applyActivation(n, fn, layer, neuron); err != nil {
		return nil, library("set_activation_function", err)
	}
	return unit, nil
}

func setActivationSteepness(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, params, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := term.AsTuple(params, -1)
	if err != nil {
		return nil, err
	}
	layer, neuron, err := parseTargets(f)
	if err != nil {
		return nil, err
	}
	s, err := term.AsNumber(f[0])
	if err != nil {
		return nil, err
	}
	if err := applySteepness(n, s, layer, neuron); err != nil {
		return nil, library("set_activation_steepness", err)
	}
	return unit, nil
}
