package fann

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const fileFormat = "fannport-network/1"

type networkFile struct {
	Format         string           `yaml:"format"`
	NetworkType    string           `yaml:"network_type"`
	ConnectionRate float64          `yaml:"connection_rate"`
	Layers         []int            `yaml:"layers"`
	Params         paramsFile       `yaml:"params"`
	Neurons        []neuronFile     `yaml:"neurons"`
	Connections    []connectionFile `yaml:"connections"`
	Scaling        *scalingFile     `yaml:"scaling,omitempty"`
}

type paramsFile struct {
	TrainingAlgorithm  string  `yaml:"training_algorithm"`
	LearningRate       float64 `yaml:"learning_rate"`
	LearningMomentum   float64 `yaml:"learning_momentum"`
	TrainErrorFunction string  `yaml:"train_error_function"`
	TrainStopFunction  string  `yaml:"train_stop_function"`
	BitFailLimit       float64 `yaml:"bit_fail_limit"`

	QuickpropDecay float64 `yaml:"quickprop_decay"`
	QuickpropMu    float64 `yaml:"quickprop_mu"`

	RPROPIncreaseFactor float64 `yaml:"rprop_increase_factor"`
	RPROPDecreaseFactor float64 `yaml:"rprop_decrease_factor"`
	RPROPDeltaMin       float64 `yaml:"rprop_delta_min"`
	RPROPDeltaMax       float64 `yaml:"rprop_delta_max"`
	RPROPDeltaZero      float64 `yaml:"rprop_delta_zero"`

	SARPROPWeightDecayShift         float64 `yaml:"sarprop_weight_decay_shift"`
	SARPROPStepErrorThresholdFactor float64 `yaml:"sarprop_step_error_threshold_factor"`
	SARPROPStepErrorShift           float64 `yaml:"sarprop_step_error_shift"`
	SARPROPTemperature              float64 `yaml:"sarprop_temperature"`
}

// neuronFile covers the non-bias neurons of the non-input layers in order.
type neuronFile struct {
	Activation string  `yaml:"activation"`
	Steepness  float64 `yaml:"steepness"`
}

type connectionFile struct {
	From   int     `yaml:"from"`
	To     int     `yaml:"to"`
	Weight float64 `yaml:"weight"`
}

type scalingFile struct {
	InputMean    []float64 `yaml:"input_mean,flow"`
	InputDev     []float64 `yaml:"input_deviation,flow"`
	InputMin     float64   `yaml:"input_min"`
	InputFactor  float64   `yaml:"input_factor"`
	OutputMean   []float64 `yaml:"output_mean,flow"`
	OutputDev    []float64 `yaml:"output_deviation,flow"`
	OutputMin    float64   `yaml:"output_min"`
	OutputFactor float64   `yaml:"output_factor"`
}

// Save writes the network as YAML.
func (n *Network) Save(path string) error {
	if n.destroyed {
		return ErrDestroyed
	}
	var buf bytes.Buffer
	if err := n.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (n *Network) Encode(w io.Writer) error {
	if n.destroyed {
		return ErrDestroyed
	}
	p := n.params
	f := networkFile{
		Format:         fileFormat,
		NetworkType:    n.netType.String(),
		ConnectionRate: n.connectionRate,
		Layers:         n.Layers(),
		Params: paramsFile{
			TrainingAlgorithm:               p.TrainingAlgorithm.String(),
			LearningRate:                    p.LearningRate,
			LearningMomentum:                p.LearningMomentum,
			TrainErrorFunction:              p.TrainErrorFunction.String(),
			TrainStopFunction:               p.TrainStopFunction.String(),
			BitFailLimit:                    p.BitFailLimit,
			QuickpropDecay:                  p.QuickpropDecay,
			QuickpropMu:                     p.QuickpropMu,
			RPROPIncreaseFactor:             p.RPROPIncreaseFactor,
			RPROPDecreaseFactor:             p.RPROPDecreaseFactor,
			RPROPDeltaMin:                   p.RPROPDeltaMin,
			RPROPDeltaMax:                   p.RPROPDeltaMax,
			RPROPDeltaZero:                  p.RPROPDeltaZero,
			SARPROPWeightDecayShift:         p.SARPROPWeightDecayShift,
			SARPROPStepErrorThresholdFactor: p.SARPROPStepErrorThresholdFactor,
			SARPROPStepErrorShift:           p.SARPROPStepErrorShift,
			SARPROPTemperature:              p.SARPROPTemperature,
		},
	}
	_ = n.eachNeuron(1, len(n.layers), func(nr *neuron) {
		f.Neurons = append(f.Neurons, neuronFile{Activation: nr.activation.String(), Steepness: nr.steepness})
	})
	for _, c := range n.Connections() {
		f.Connections = append(f.Connections, connectionFile(c))
	}
	if s := n.scale; s != nil {
		f.Scaling = &scalingFile{
			InputMean: s.inMean, InputDev: s.inDev, InputMin: s.inMin, InputFactor: s.inFactor,
			OutputMean: s.outMean, OutputDev: s.outDev, OutputMin: s.outMin, OutputFactor: s.outFactor,
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return err
	}
	return enc.Close()
}

// Load reads a network written by Save.
func Load(path string, opts ...Option) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n, err := Decode(bytes.NewReader(raw), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

func Decode(r io.Reader, opts ...Option) (*Network, error) {
	var f networkFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if f.Format != fileFormat {
		return nil, fmt.Errorf("%w: unknown format %q", ErrFormat, f.Format)
	}
	netType, ok := ParseNetType(f.NetworkType)
	if !ok {
		return nil, fmt.Errorf("%w: network type %q", ErrFormat, f.NetworkType)
	}
	params, err := f.Params.decode()
	if err != nil {
		return nil, err
	}
	n, err := newTopology(netType, f.ConnectionRate, f.Layers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	n.params = params
	n.rng = newRand(opts)

	conns := make([]Connection, len(f.Connections))
	for i, c := range f.Connections {
		conns[i] = Connection(c)
	}
	if err := n.connect(conns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	i := 0
	var bad error
	_ = n.eachNeuron(1, len(n.layers), func(nr *neuron) {
		if bad != nil {
			return
		}
		if i >= len(f.Neurons) {
			bad = fmt.Errorf("%w: %d neuron entries, topology needs more", ErrFormat, len(f.Neurons))
			return
		}
		act, ok := ParseActivationFunc(f.Neurons[i].Activation)
		if !ok {
			bad = fmt.Errorf("%w: activation %q", ErrFormat, f.Neurons[i].Activation)
			return
		}
		nr.activation = act
		nr.steepness = f.Neurons[i].Steepness
		i++
	})
	if bad != nil {
		return nil, bad
	}
	if i != len(f.Neurons) {
		return nil, fmt.Errorf("%w: %d neuron entries, topology has %d", ErrFormat, len(f.Neurons), i)
	}

	if s := f.Scaling; s != nil {
		if len(s.InputMean) != n.numInput || len(s.InputDev) != n.numInput ||
			len(s.OutputMean) != n.numOutput || len(s.OutputDev) != n.numOutput {
			return nil, fmt.Errorf("%w: scaling widths", ErrFormat)
		}
		n.scale = &scaling{
			inMean: s.InputMean, inDev: s.InputDev, inMin: s.InputMin, inFactor: s.InputFactor,
			outMean: s.OutputMean, outDev: s.OutputDev, outMin: s.OutputMin, outFactor: s.OutputFactor,
		}
	}
	return n, nil
}

func (p paramsFile) decode() (Params, error) {
	algo, ok := ParseTrainAlgorithm(p.TrainingAlgorithm)
	if !ok {
		return Params{}, fmt.Errorf("%w: training algorithm %q", ErrFormat, p.TrainingAlgorithm)
	}
	errFn, ok := ParseErrorFunc(p.TrainErrorFunction)
	if !ok {
		return Params{}, fmt.Errorf("%w: error function %q", ErrFormat, p.TrainErrorFunction)
	}
	stopFn, ok := ParseStopFunc(p.TrainStopFunction)
	if !ok {
		return Params{}, fmt.Errorf("%w: stop function %q", ErrFormat, p.TrainStopFunction)
	}
	return Params{
		TrainingAlgorithm:               algo,
		LearningRate:                    p.LearningRate,
		LearningMomentum:                p.LearningMomentum,
		TrainErrorFunction:              errFn,
		TrainStopFunction:               stopFn,
		BitFailLimit:                    p.BitFailLimit,
		QuickpropDecay:                  p.QuickpropDecay,
		QuickpropMu:                     p.QuickpropMu,
		RPROPIncreaseFactor:             p.RPROPIncreaseFactor,
		RPROPDecreaseFactor:             p.RPROPDecreaseFactor,
		RPROPDeltaMin:                   p.RPROPDeltaMin,
		RPROPDeltaMax:                   p.RPROPDeltaMax,
		RPROPDeltaZero:                  p.RPROPDeltaZero,
		SARPROPWeightDecayShift:         p.SARPROPWeightDecayShift,
		SARPROPStepErrorThresholdFactor: p.SARPROPStepErrorThresholdFactor,
		SARPROPStepErrorShift:           p.SARPROPStepErrorShift,
		SARPROPTemperature:              p.SARPROPTemperature,
	}, nil
}
