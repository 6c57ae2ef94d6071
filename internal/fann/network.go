package fann

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

const (
	defaultActivation = SigmoidStepwise
	defaultSteepness  = 0.5
	initWeightRange   = 0.1
	weightLimit       = 1500.0
)

// Size limits for a single network. Layer sizes come from the peer, and
// allocation failures cannot be recovered.
const (
	MaxNeurons     = 1 << 20
	MaxConnections = 1 << 22
)

// Params are the tunable training parameters of a network.
type Params struct {
	TrainingAlgorithm  TrainAlgorithm
	LearningRate       float64
	LearningMomentum   float64
	TrainErrorFunction ErrorFunc
	TrainStopFunction  StopFunc
	BitFailLimit       float64

	QuickpropDecay float64
	QuickpropMu    float64

	RPROPIncreaseFactor float64
	RPROPDecreaseFactor float64
	RPROPDeltaMin       float64
	RPROPDeltaMax       float64
	RPROPDeltaZero      float64

	SARPROPWeightDecayShift         float64
	SARPROPStepErrorThresholdFactor float64
	SARPROPStepErrorShift           float64
	SARPROPTemperature              float64
}

func DefaultParams() Params {
	return Params{
		TrainingAlgorithm:  TrainRPROP,
		LearningRate:       0.7,
		LearningMomentum:   0,
		TrainErrorFunction: ErrorFuncTanh,
		TrainStopFunction:  StopFuncMSE,
		BitFailLimit:       0.35,

		QuickpropDecay: -0.0001,
		QuickpropMu:    1.75,

		RPROPIncreaseFactor: 1.2,
		RPROPDecreaseFactor: 0.5,
		RPROPDeltaMin:       0,
		RPROPDeltaMax:       50,
		RPROPDeltaZero:      0.1,

		SARPROPWeightDecayShift:         -6.644,
		SARPROPStepErrorThresholdFactor: 0.1,
		SARPROPStepErrorShift:           1.385,
		SARPROPTemperature:              0.015,
	}
}

// Connection is one weighted edge, addressed by global neuron index.
type Connection struct {
	From   int
	To     int
	Weight float64
}

type layer struct {
	first, last int
	bias        bool
}

// real is the number of non-bias neurons in the layer.
func (l layer) real() int {
	if l.bias {
		return l.last - l.first - 1
	}
	return l.last - l.first
}

type neuron struct {
	first, last int
	sum, value  float64
	activation  ActivationFunc
	steepness   float64
}

// Network is a feed-forward neural network.
//
// Neurons are numbered globally in layer order. Every layer except the
// output layer of a layered network, and only the input layer of a
// shortcut network, ends with a bias neuron whose value is fixed at 1.
type Network struct {
	netType        NetType
	connectionRate float64
	layers         []layer
	neurons        []neuron
	layerOf        []int
	sources        []int
	weights        []float64
	numInput       int
	numOutput      int

	params  Params
	mse     float64
	numMSE  int
	bitFail int

	trainErrors  []float64
	slopes       []float64
	prevSlopes   []float64
	prevSteps    []float64
	prevDeltas   []float64
	sarpropEpoch int

	scale *scaling
	rng   *rand.Rand

	destroyed bool
}

// NewStandard builds a fully connected layered network.
func NewStandard(sizes []int, opts ...Option) (*Network, error) {
	return newNetwork(NetTypeLayer, 1, sizes, opts)
}

// NewSparse builds a layered network where each neuron is connected to
// roughly rate of the neurons in the previous layer.
func NewSparse(rate float64, sizes []int, opts ...Option) (*Network, error) {
	if math.IsNaN(rate) || rate <= 0 {
		return nil, fmt.Errorf("%w: connection rate %v", ErrInvalidArgument, rate)
	}
	return newNetwork(NetTypeLayer, math.Min(rate, 1), sizes, opts)
}

// NewShortcut builds a network where every layer connects to all
// earlier layers.
func NewShortcut(sizes []int, opts ...Option) (*Network, error) {
	return newNetwork(NetTypeShortcut, 1, sizes, opts)
}

func newNetwork(netType NetType, rate float64, sizes []int, opts []Option) (*Network, error) {
	n, err := newTopology(netType, rate, sizes)
	if err != nil {
		return nil, err
	}
	n.rng = newRand(opts)
	if err := n.connect(n.generateConnections()); err != nil {
		return nil, err
	}
	n.randomize(-initWeightRange, initWeightRange)
	return n, nil
}

func newTopology(netType NetType, rate float64, sizes []int) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidArgument, len(sizes))
	}
	total := 0
	for i, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("%w: layer %d has %d neurons", ErrInvalidArgument, i, s)
		}
		if s > MaxNeurons || total+s+1 > MaxNeurons {
			return nil, fmt.Errorf("%w: more than %d neurons", ErrInvalidArgument, MaxNeurons)
		}
		total += s + 1
	}
	if netType != NetTypeLayer && netType != NetTypeShortcut {
		return nil, fmt.Errorf("%w: network type %d", ErrInvalidArgument, netType)
	}
	n := &Network{
		netType:        netType,
		connectionRate: rate,
		numInput:       sizes[0],
		numOutput:      sizes[len(sizes)-1],
		params:         DefaultParams(),
	}
	for i, s := range sizes {
		bias := i < len(sizes)-1
		if netType == NetTypeShortcut {
			bias = i == 0
		}
		first := len(n.neurons)
		count := s
		if bias {
			count++
		}
		for k := 0; k < count; k++ {
			nr := neuron{activation: Linear}
			if i > 0 && !(bias && k == count-1) {
				nr.activation = defaultActivation
				nr.steepness = defaultSteepness
			}
			n.neurons = append(n.neurons, nr)
			n.layerOf = append(n.layerOf, i)
		}
		n.layers = append(n.layers, layer{first: first, last: len(n.neurons), bias: bias})
	}
	if c := n.plannedConnections(); c > MaxConnections {
		return nil, fmt.Errorf("%w: %d connections, limit %d", ErrInvalidArgument, c, MaxConnections)
	}
	return n, nil
}

// plannedConnections counts what generateConnections will produce.
func (n *Network) plannedConnections() int {
	total := 0
	for l := 1; l < len(n.layers); l++ {
		prev := n.layers[l-1]
		per := prev.last - prev.first
		switch {
		case n.connectionRate < 1:
			per = n.sparseFanIn(prev)
			if prev.bias {
				per++
			}
		case n.netType == NetTypeShortcut:
			per = prev.last
		}
		total += n.layers[l].real() * per
	}
	return total
}

// sparseFanIn is the number of non-bias sources each neuron takes from prev.
func (n *Network) sparseFanIn(prev layer) int {
	p := prev.real()
	k := int(math.Round(n.connectionRate * float64(p)))
	return max(1, min(k, p))
}

func (n *Network) generateConnections() []Connection {
	conns := make([]Connection, 0, n.plannedConnections())
	for l := 1; l < len(n.layers); l++ {
		prev := n.layers[l-1]
		lo := prev.first
		if n.netType == NetTypeShortcut {
			lo = 0
		}
		for j, to := 0, n.layers[l].first; j < n.layers[l].real(); j, to = j+1, to+1 {
			if n.connectionRate >= 1 {
				for from := lo; from < prev.last; from++ {
					conns = append(conns, Connection{From: from, To: to})
				}
				continue
			}
			p := prev.real()
			k := n.sparseFanIn(prev)
			start := (j * k) % p
			for t := 0; t < k; t++ {
				conns = append(conns, Connection{From: prev.first + (start+t)%p, To: to})
			}
			if prev.bias {
				conns = append(conns, Connection{From: prev.last - 1, To: to})
			}
		}
	}
	return conns
}

// connect installs the connection list, replacing any existing one.
func (n *Network) connect(conns []Connection) error {
	sorted := make([]Connection, len(conns))
	copy(sorted, conns)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].To != sorted[j].To {
			return sorted[i].To < sorted[j].To
		}
		return sorted[i].From < sorted[j].From
	})
	for i, c := range sorted {
		if err := n.checkConnection(c); err != nil {
			return err
		}
		if i > 0 && sorted[i-1].To == c.To && sorted[i-1].From == c.From {
			return fmt.Errorf("%w: duplicate connection %d->%d", ErrInvalidArgument, c.From, c.To)
		}
	}
	n.sources = make([]int, len(sorted))
	n.weights = make([]float64, len(sorted))
	for i := range n.neurons {
		n.neurons[i].first, n.neurons[i].last = 0, 0
	}
	c := 0
	for i := range n.neurons {
		n.neurons[i].first = c
		for c < len(sorted) && sorted[c].To == i {
			n.sources[c] = sorted[c].From
			n.weights[c] = sorted[c].Weight
			c++
		}
		n.neurons[i].last = c
	}
	n.clearTrainArrays()
	return nil
}

func (n *Network) checkConnection(c Connection) error {
	if c.To < 0 || c.To >= len(n.neurons) || c.From < 0 || c.From >= len(n.neurons) {
		return fmt.Errorf("%w: connection %d->%d", ErrIndexRange, c.From, c.To)
	}
	toLayer, fromLayer := n.layerOf[c.To], n.layerOf[c.From]
	if toLayer == 0 || n.isBias(c.To) {
		return fmt.Errorf("%w: neuron %d takes no input", ErrInvalidArgument, c.To)
	}
	if fromLayer >= toLayer || (n.netType == NetTypeLayer && fromLayer != toLayer-1) {
		return fmt.Errorf("%w: connection %d->%d crosses layers illegally", ErrInvalidArgument, c.From, c.To)
	}
	return nil
}

func (n *Network) isBias(i int) bool {
	l := n.layers[n.layerOf[i]]
	return l.bias && i == l.last-1
}

// Copy returns an independent deep copy.
func (n *Network) Copy() (*Network, error) {
	if n.destroyed {
		return nil, ErrDestroyed
	}
	c := *n
	c.layers = append([]layer(nil), n.layers...)
	c.neurons = append([]neuron(nil), n.neurons...)
	c.layerOf = append([]int(nil), n.layerOf...)
	c.sources = append([]int(nil), n.sources...)
	c.weights = append([]float64(nil), n.weights...)
	c.trainErrors = nil
	c.clearTrainArrays()
	if n.scale != nil {
		c.scale = n.scale.clone()
	}
	c.rng = child(n.rng)
	return &c, nil
}

// Destroy releases the network. Every later call fails with ErrDestroyed.
func (n *Network) Destroy() {
	n.destroyed = true
	n.layers = nil
	n.neurons = nil
	n.layerOf = nil
	n.sources = nil
	n.weights = nil
	n.trainErrors = nil
	n.clearTrainArrays()
	n.scale = nil
}

func (n *Network) Destroyed() bool { return n.destroyed }

func (n *Network) NetType() NetType { return n.netType }

func (n *Network) ConnectionRate() float64 { return n.connectionRate }

func (n *Network) NumInput() int { return n.numInput }

func (n *Network) NumOutput() int { return n.numOutput }

func (n *Network) NumLayers() int { return len(n.layers) }

// TotalNeurons counts every neuron including bias neurons.
func (n *Network) TotalNeurons() int { return len(n.neurons) }

func (n *Network) TotalConnections() int { return len(n.weights) }

// Layers returns the number of non-bias neurons in each layer.
func (n *Network) Layers() []int {
	out := make([]int, len(n.layers))
	for i, l := range n.layers {
		out[i] = l.real()
	}
	return out
}

// Bias returns the number of bias neurons in each layer.
func (n *Network) Bias() []int {
	out := make([]int, len(n.layers))
	for i, l := range n.layers {
		if l.bias {
			out[i] = 1
		}
	}
	return out
}

func (n *Network) Params() Params { return n.params }

// SetParams replaces the training parameters. Changing the algorithm
// discards accumulated slopes and steps.
func (n *Network) SetParams(p Params) {
	if p.TrainingAlgorithm != n.params.TrainingAlgorithm {
		n.clearTrainArrays()
	}
	n.params = p
}

// MSE is the mean squared error accumulated since the last reset.
func (n *Network) MSE() float64 {
	if n.numMSE == 0 {
		return 0
	}
	return n.mse / float64(n.numMSE)
}

// BitFail counts outputs whose error exceeded the bit fail limit since the
// last reset.
func (n *Network) BitFail() int { return n.bitFail }

func (n *Network) ResetMSE() {
	n.mse = 0
	n.numMSE = 0
	n.bitFail = 0
}
