package fann

import (
	"fmt"
	"math"
)

// Connections lists every connection ordered by destination then source.
func (n *Network) Connections() []Connection {
	out := make([]Connection, 0, len(n.weights))
	for to, nr := range n.neurons {
		for c := nr.first; c < nr.last; c++ {
			out = append(out, Connection{From: n.sources[c], To: to, Weight: n.weights[c]})
		}
	}
	return out
}

func (n *Network) findConnection(from, to int) (int, bool) {
	if to < 0 || to >= len(n.neurons) {
		return 0, false
	}
	nr := n.neurons[to]
	for c := nr.first; c < nr.last; c++ {
		if n.sources[c] == from {
			return c, true
		}
	}
	return 0, false
}

// SetWeight changes one existing connection.
func (n *Network) SetWeight(from, to int, w float64) error {
	if n.destroyed {
		return ErrDestroyed
	}
	c, ok := n.findConnection(from, to)
	if !ok {
		return fmt.Errorf("%w: %d->%d", ErrNoConnection, from, to)
	}
	n.weights[c] = w
	return nil
}

// SetWeights applies every entry naming an existing connection and
// returns how many were applied. Entries for missing connections are
// skipped.
func (n *Network) SetWeights(conns []Connection) (int, error) {
	if n.destroyed {
		return 0, ErrDestroyed
	}
	applied := 0
	for _, cn := range conns {
		if c, ok := n.findConnection(cn.From, cn.To); ok {
			n.weights[c] = cn.Weight
			applied++
		}
	}
	return applied, nil
}

// RandomizeWeights draws every weight uniformly from [lo, hi].
func (n *Network) RandomizeWeights(lo, hi float64) error {
	if n.destroyed {
		return ErrDestroyed
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return fmt.Errorf("%w: weight range [%v, %v]", ErrInvalidArgument, lo, hi)
	}
	n.randomize(lo, hi)
	return nil
}

func (n *Network) randomize(lo, hi float64) {
	for c := range n.weights {
		n.weights[c] = uniform(n.rng, lo, hi)
	}
	n.clearTrainArrays()
}

// InitWeights applies Widrow-Nguyen initialisation using the input range
// found in data.
func (n *Network) InitWeights(data *TrainData) error {
	if err := n.checkData(data); err != nil {
		return err
	}
	smallest, largest := data.input[0][0], data.input[0][0]
	for _, row := range data.input {
		for _, v := range row {
			smallest = math.Min(smallest, v)
			largest = math.Max(largest, v)
		}
	}
	span := largest - smallest
	if span == 0 {
		span = 1
	}
	hidden := len(n.neurons) - n.numInput - n.numOutput
	for _, l := range n.layers {
		if l.bias {
			hidden--
		}
	}
	scale := math.Pow(0.7*float64(hidden), 1/float64(n.numInput)) / span

	for li := 1; li < len(n.layers); li++ {
		l := n.layers[li]
		for i := l.first; i < l.first+l.real(); i++ {
			nr := n.neurons[i]
			for c := nr.first; c < nr.last; c++ {
				if n.isBias(n.sources[c]) {
					n.weights[c] = uniform(n.rng, -scale, scale)
				} else {
					n.weights[c] = uniform(n.rng, 0, scale)
				}
			}
		}
	}
	n.clearTrainArrays()
	return nil
}

// neuronAt resolves a non-bias neuron in a non-input layer.
func (n *Network) neuronAt(layer, idx int) (*neuron, error) {
	if n.destroyed {
		return nil, ErrDestroyed
	}
	if layer < 1 || layer >= len(n.layers) {
		return nil, fmt.Errorf("%w: layer %d", ErrIndexRange, layer)
	}
	l := n.layers[layer]
	if idx < 0 || idx >= l.real() {
		return nil, fmt.Errorf("%w: neuron %d in layer %d", ErrIndexRange, idx, layer)
	}
	return &n.neurons[l.first+idx], nil
}

// eachNeuron visits the non-bias neurons of layers [from, to).
func (n *Network) eachNeuron(from, to int, fn func(*neuron)) error {
	if n.destroyed {
		return ErrDestroyed
	}
	if from < 1 || to > len(n.layers) || from >= to {
		return fmt.Errorf("%w: layers %d..%d", ErrIndexRange, from, to-1)
	}
	for li := from; li < to; li++ {
		l := n.layers[li]
		for i := l.first; i < l.first+l.real(); i++ {
			fn(&n.neurons[i])
		}
	}
	return nil
}

func (n *Network) ActivationFunction(layer, idx int) (ActivationFunc, error) {
	nr, err := n.neuronAt(layer, idx)
	if err != nil {
		return 0, err
	}
	return nr.activation, nil
}

func (n *Network) SetActivationFunction(f ActivationFunc, layer, idx int) error {
	nr, err := n.neuronAt(layer, idx)
	if err != nil {
		return err
	}
	nr.activation = f
	return nil
}

func (n *Network) SetActivationFunctionLayer(f ActivationFunc, layer int) error {
	return n.eachNeuron(layer, layer+1, func(nr *neuron) { nr.activation = f })
}

// SetActivationFunctionHidden is a no-op on networks without hidden layers.
func (n *Network) SetActivationFunctionHidden(f ActivationFunc) error {
	if len(n.layers) == 2 && !n.destroyed {
		return nil
	}
	return n.eachNeuron(1, len(n.layers)-1, func(nr *neuron) { nr.activation = f })
}

func (n *Network) SetActivationFunctionOutput(f ActivationFunc) error {
	return n.eachNeuron(len(n.layers)-1, len(n.layers), func(nr *neuron) { nr.activation = f })
}

// SetActivationFunctionAll covers every hidden and output neuron.
func (n *Network) SetActivationFunctionAll(f ActivationFunc) error {
	return n.eachNeuron(1, len(n.layers), func(nr *neuron) { nr.activation = f })
}

func (n *Network) ActivationSteepness(layer, idx int) (float64, error) {
	nr, err := n.neuronAt(layer, idx)
	if err != nil {
		return 0, err
	}
	return nr.steepness, nil
}

func (n *Network) SetActivationSteepness(s float64, layer, idx int) error {
	nr, err := n.neuronAt(layer, idx)
	if err != nil {
		return err
	}
	nr.steepness = s
	return nil
}

func (n *Network) SetActivationSteepnessLayer(s float64, layer int) error {
	return n.eachNeuron(layer, layer+1, func(nr *neuron) { nr.steepness = s })
}

func (n *Network) SetActivationSteepnessHidden(s float64) error {
	if len(n.layers) == 2 && !n.destroyed {
		return nil
	}
	return n.eachNeuron(1, len(n.layers)-1, func(nr *neuron) { nr.steepness = s })
}

func (n *Network) SetActivationSteepnessOutput(s float64) error {
	return n.eachNeuron(len(n.layers)-1, len(n.layers), func(nr *neuron) { nr.steepness = s })
}

func (n *Network) SetActivationSteepnessAll(s float64) error {
	return n.eachNeuron(1, len(n.layers), func(nr *neuron) { nr.steepness = s })
}
