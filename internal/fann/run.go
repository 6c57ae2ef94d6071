package fann

import (
	"fmt"
	"math"
)

const maxScaledSum = 150.0

// Run feeds input forward and returns a fresh slice of output values.
func (n *Network) Run(input []float64) ([]float64, error) {
	if n.destroyed {
		return nil, ErrDestroyed
	}
	if len(input) != n.numInput {
		return nil, fmt.Errorf("%w: input has %d values, network takes %d", ErrWidthMismatch, len(input), n.numInput)
	}
	n.forward(input)
	return n.outputs(), nil
}

func (n *Network) forward(input []float64) {
	in := n.layers[0]
	for i := 0; i < n.numInput; i++ {
		n.neurons[in.first+i].value = input[i]
	}
	for _, l := range n.layers {
		if l.bias {
			n.neurons[l.last-1].value = 1
		}
	}
	for li := 1; li < len(n.layers); li++ {
		l := n.layers[li]
		for i := l.first; i < l.first+l.real(); i++ {
			nr := &n.neurons[i]
			sum := 0.0
			for c := nr.first; c < nr.last; c++ {
				sum += n.weights[c] * n.neurons[n.sources[c]].value
			}
			sum = clamp(sum*nr.steepness, -maxScaledSum, maxScaledSum)
			nr.sum = sum
			nr.value = activate(nr.activation, sum)
		}
	}
}

func (n *Network) outputs() []float64 {
	out := n.layers[len(n.layers)-1]
	values := make([]float64, n.numOutput)
	for i := range values {
		values[i] = n.neurons[out.first+i].value
	}
	return values
}

// Train runs one incremental backpropagation step on a single pattern.
func (n *Network) Train(input, desired []float64) error {
	if err := n.checkPattern(input, desired); err != nil {
		return err
	}
	n.forward(input)
	n.computeMSE(desired)
	n.backpropagate()
	n.updateIncremental()
	return nil
}

// Test runs input forward and accumulates the error against desired
// without changing any weight.
func (n *Network) Test(input, desired []float64) ([]float64, error) {
	if err := n.checkPattern(input, desired); err != nil {
		return nil, err
	}
	n.forward(input)
	n.computeMSE(desired)
	return n.outputs(), nil
}

func (n *Network) checkPattern(input, desired []float64) error {
	if n.destroyed {
		return ErrDestroyed
	}
	if len(input) != n.numInput {
		return fmt.Errorf("%w: input has %d values, network takes %d", ErrWidthMismatch, len(input), n.numInput)
	}
	if len(desired) != n.numOutput {
		return fmt.Errorf("%w: desired output has %d values, network gives %d", ErrWidthMismatch, len(desired), n.numOutput)
	}
	return nil
}

// computeMSE accumulates error statistics and seeds the output layer's
// error terms for backpropagation.
func (n *Network) computeMSE(desired []float64) {
	if len(n.trainErrors) != len(n.neurons) {
		n.trainErrors = make([]float64, len(n.neurons))
	} else {
		clear(n.trainErrors)
	}
	out := n.layers[len(n.layers)-1]
	for k := 0; k < n.numOutput; k++ {
		i := out.first + k
		nr := n.neurons[i]
		diff := desired[k] - nr.value
		if nr.activation.Symmetric() {
			diff /= 2
		}
		n.mse += diff * diff
		if math.Abs(diff) >= n.params.BitFailLimit {
			n.bitFail++
		}
		if n.params.TrainErrorFunction == ErrorFuncTanh {
			switch {
			case diff < -0.9999999:
				diff = -17
			case diff > 0.9999999:
				diff = 17
			default:
				diff = math.Log((1 + diff) / (1 - diff))
			}
		}
		n.trainErrors[i] = derive(nr.activation, nr.steepness, nr.value, nr.sum) * diff
		n.numMSE++
	}
}

func (n *Network) backpropagate() {
	for li := len(n.layers) - 1; li > 0; li-- {
		l := n.layers[li]
		for i := l.first; i < l.first+l.real(); i++ {
			e := n.trainErrors[i]
			nr := n.neurons[i]
			for c := nr.first; c < nr.last; c++ {
				n.trainErrors[n.sources[c]] += e * n.weights[c]
			}
		}
		if li-1 == 0 {
			break
		}
		prev := n.layers[li-1]
		for i := prev.first; i < prev.first+prev.real(); i++ {
			nr := n.neurons[i]
			n.trainErrors[i] *= derive(nr.activation, nr.steepness, nr.value, nr.sum)
		}
	}
}

func (n *Network) updateIncremental() {
	rate, momentum := n.params.LearningRate, n.params.LearningMomentum
	if len(n.prevDeltas) != len(n.weights) {
		n.prevDeltas = make([]float64, len(n.weights))
	}
	for li := 1; li < len(n.layers); li++ {
		l := n.layers[li]
		for i := l.first; i < l.first+l.real(); i++ {
			e := n.trainErrors[i] * rate
			nr := n.neurons[i]
			for c := nr.first; c < nr.last; c++ {
				delta := e*n.neurons[n.sources[c]].value + momentum*n.prevDeltas[c]
				n.weights[c] += delta
				n.prevDeltas[c] = delta
			}
		}
	}
}

func (n *Network) accumulateSlopes() {
	for li := 1; li < len(n.layers); li++ {
		l := n.layers[li]
		for i := l.first; i < l.first+l.real(); i++ {
			e := n.trainErrors[i]
			nr := n.neurons[i]
			for c := nr.first; c < nr.last; c++ {
				n.slopes[c] += e * n.neurons[n.sources[c]].value
			}
		}
	}
}
