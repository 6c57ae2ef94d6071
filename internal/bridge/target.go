package bridge

import (
	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
)

type layerScope int

const (
	layerAll layerScope = iota
	layerHidden
	layerOutput
	layerIndex
)

// LayerTarget selects the layers an activation setting applies to.
type LayerTarget struct {
	scope layerScope
	index int
}

// NeuronTarget selects neurons within one indexed layer.
type NeuronTarget struct {
	all   bool
	index int
}

// Symbolic reports whether the target names a layer group rather than an
// index.
func (l LayerTarget) Symbolic() bool { return l.scope != layerIndex }

func parseLayerTarget(t term.Term) (LayerTarget, error) {
	switch t.Kind() {
	case term.KindInt:
		n, err := intField(t)
		if err != nil {
			return LayerTarget{}, err
		}
		if n < 0 {
			return LayerTarget{}, shapef("layer %d", n)
		}
		return LayerTarget{scope: layerIndex, index: n}, nil
	case term.KindAtom:
		name, _ := term.AsAtom(t)
		switch name {
		case "all":
			return LayerTarget{scope: layerAll}, nil
		case "hidden":
			return LayerTarget{scope: layerHidden}, nil
		case "output":
			return LayerTarget{scope: layerOutput}, nil
		}
		return LayerTarget{}, shapef("unknown layer target %q", name)
	default:
		return LayerTarget{}, shapef("layer target is a %s", t.Kind())
	}
}

func parseNeuronTarget(t term.Term) (NeuronTarget, error) {
	switch t.Kind() {
	case term.KindInt:
		n, err := intField(t)
		if err != nil {
			return NeuronTarget{}, err
		}
		if n < 0 {
			return NeuronTarget{}, shapef("neuron %d", n)
		}
		return NeuronTarget{index: n}, nil
	case term.KindAtom:
		if name, _ := term.AsAtom(t); name == "all" {
			return NeuronTarget{all: true}, nil
		}
		return NeuronTarget{}, shapef("unknown neuron target %v", t)
	default:
		return NeuronTarget{}, shapef("neuron target is a %s", t.Kind())
	}
}

// parseTargets decodes {Value, LayerTarget} or {Value, LayerTarget,
// NeuronTarget}. The neuron position is optional and ignored when the layer
// target is symbolic; an indexed layer without a neuron means the whole
// layer.
func parseTargets(params term.Tuple) (LayerTarget, NeuronTarget, error) {
	if len(params) != 2 && len(params) != 3 {
		return LayerTarget{}, NeuronTarget{}, shapef("want {Value, Layer} or {Value, Layer, Neuron}, got %d fields", len(params))
	}
	layer, err := parseLayerTarget(params[1])
	if err != nil {
		return LayerTarget{}, NeuronTarget{}, err
	}
	neuron := NeuronTarget{all: true}
	if len(params) == 3 && !layer.Symbolic() {
		if neuron, err = parseNeuronTarget(params[2]); err != nil {
			return LayerTarget{}, NeuronTarget{}, err
		}
	}
	return layer, neuron, nil
}

func applyActivation(n *fann.Network, f fann.ActivationFunc, l LayerTarget, nt NeuronTarget) error {
	switch l.scope {
	case layerAll:
		return n.SetActivationFunctionAll(f)
	case layerHidden:
		return n.SetActivationFunctionHidden(f)
	case layerOutput:
		return n.SetActivationFunctionOutput(f)
	}
	if nt.all {
		return n.SetActivationFunctionLayer(f, l.index)
	}
	return n.SetActivationFunction(f, l.index, nt.index)
}

func applySteepness(n *fann.Network, s float64, l LayerTarget, nt NeuronTarget) error {
	switch l.scope {
	case layerAll:
		return n.SetActivationSteepnessAll(s)
	case layerHidden:
		return n.SetActivationSteepnessHidden(s)
	case layerOutput:
		return n.SetActivationSteepnessOutput(s)
	}
	if nt.all {
		return n.SetActivationSteepnessLayer(s, l.index)
	}
	return n.SetActivationSteepness(s, l.index, nt.index)
}
