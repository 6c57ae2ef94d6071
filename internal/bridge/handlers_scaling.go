package bridge

import (
	"context"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
)

func setScalingParams(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, d, params, err := b.pairArg(arg)
	if err != nil {
		return nil, err
	}
	f, err := fields(params, 4)
	if err != nil {
		return nil, err
	}
	var bounds [4]float64
	for i := range bounds {
		if bounds[i], err = term.AsNumber(f[i]); err != nil {
			return nil, err
		}
	}
	if err := n.SetScalingParams(d, bounds[0], bounds[1], bounds[2], bounds[3]); err != nil {
		return nil, library("set_scaling_params", err)
	}
	return unit, nil
}

func clearScalingParams(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, _, err := b.modelArg(arg)
	if err != nil {
		return nil, err
	}
	if err := n.ClearScalingParams(); err != nil {
		return nil, library("clear_scaling_params", err)
	}
	return unit, nil
}

func scaleTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, d, _, err := b.pairArg(arg)
	if err != nil {
		return nil, err
	}
	if err := n.ScaleTrain(d); err != nil {
		return nil, library("scale_train", err)
	}
	return unit, nil
}

func descaleTrain(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
	n, d, _, err := b.pairArg(arg)
	if err != nil {
		return nil, err
	}
	if err := n.DescaleTrain(d); err != nil {
		return nil, library("descale_train", err)
	}
	return unit, nil
}

// scaleVector handles the four {M, {Vector}} scaling commands.
func scaleVector(op string, width func(*fann.Network) int, apply func(*fann.Network, []float64) error) HandlerFunc {
	return func(_ context.Context, b *Bridge, arg term.Term) (term.Term, error) {
		n, params, err := b.modelArg(arg)
		if err != nil {
			return nil, err
		}
		f, err := fields(params, 1)
		if err != nil {
			return nil, err
		}
		v, err := vector(f[0], width(n))
		if err != nil {
			return nil, err
		}
		if err := apply(n, v); err != nil {
			return nil, library(op, err)
		}
		return floats(v), nil
	}
}

var (
	scaleInput    = scaleVector("scale_input", (*fann.Network).NumInput, (*fann.Network).ScaleInput)
	descaleInput  = scaleVector("descale_input", (*fann.Network).NumInput, (*fann.Network).DescaleInput)
	scaleOutput   = scaleVector("scale_output", (*fann.Network).NumOutput, (*fann.Network).ScaleOutput)
	descaleOutput = scaleVector("descale_output", (*fann.Network).NumOutput, (*fann.Network).DescaleOutput)
)
