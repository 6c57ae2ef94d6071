package bridge

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/protocol/term"
)

// param describes one named network parameter. Read-only parameters have
// a nil set.
type param struct {
	get func(n *fann.Network) term.Term
	set func(p *fann.Params, v term.Term) bool
}

func numberParam(field func(p *fann.Params) *float64) param {
	return param{
		get: func(n *fann.Network) term.Term {
			p := n.Params()
			return term.Float(*field(&p))
		},
		set: func(p *fann.Params, v term.Term) bool {
			f, err := term.AsNumber(v)
			if err != nil {
				return false
			}
			*field(p) = f
			return true
		},
	}
}

func enumParam[E interface{ String() string }](field func(p *fann.Params) *E, parse func(string) (E, bool)) param {
	return param{
		get: func(n *fann.Network) term.Term {
			p := n.Params()
			return term.Atom((*field(&p)).String())
		},
		set: func(p *fann.Params, v term.Term) bool {
			name, err := term.AsAtom(v)
			if err != nil {
				return false
			}
			e, ok := parse(name)
			if !ok {
				return false
			}
			*field(p) = e
			return true
		},
	}
}

func readOnly(get func(n *fann.Network) term.Term) param {
	return param{get: get}
}

var paramTable = map[string]param{
	"learning_rate":     numberParam(func(p *fann.Params) *float64 { return &p.LearningRate }),
	"learning_momentum": numberParam(func(p *fann.Params) *float64 { return &p.LearningMomentum }),
	"bit_fail_limit":    numberParam(func(p *fann.Params) *float64 { return &p.BitFailLimit }),
	"quickprop_decay":   numberParam(func(p *fann.Params) *float64 { return &p.QuickpropDecay }),
	"quickprop_mu":      numberParam(func(p *fann.Params) *float64 { return &p.QuickpropMu }),

	"rprop_increase_factor": numberParam(func(p *fann.Params) *float64 { return &p.RPROPIncreaseFactor }),
	"rprop_decrease_factor": numberParam(func(p *fann.Params) *float64 { return &p.RPROPDecreaseFactor }),
	"rprop_delta_min":       numberParam(func(p *fann.Params) *float64 { return &p.RPROPDeltaMin }),
	"rprop_delta_max":       numberParam(func(p *fann.Params) *float64 { return &p.RPROPDeltaMax }),
	"rprop_delta_zero":      numberParam(func(p *fann.Params) *float64 { return &p.RPROPDeltaZero }),

	"sarprop_weight_decay_shift":          numberParam(func(p *fann.Params) *float64 { return &p.SARPROPWeightDecayShift }),
	"sarprop_step_error_threshold_factor": numberParam(func(p *fann.Params) *float64 { return &p.SARPROPStepErrorThresholdFactor }),
	"sarprop_step_error_shift":            numberParam(func(p *fann.Params) *float64 { return &p.SARPROPStepErrorShift }),
	"sarprop_temperature":                 numberParam(func(p *fann.Params) *float64 { return &p.SARPROPTemperature }),

	"training_algorithm": enumParam(
		func(p *fann.Params) *fann.TrainAlgorithm { return &p.TrainingAlgorithm }, fann.ParseTrainAlgorithm),
	"train_error_function": enumParam(
		func(p *fann.Params) *fann.ErrorFunc { return &p.TrainErrorFunction }, fann.ParseErrorFunc),
	"train_stop_function": enumParam(
		func(p *fann.Params) *fann.StopFunc { return &p.TrainStopFunction }, fann.ParseStopFunc),

	"mean_square_error": readOnly(func(n *fann.Network) term.Term { return term.Float(n.MSE()) }),
	"bit_fail":          readOnly(func(n *fann.Network) term.Term { return term.Int(n.BitFail()) }),
	"network_type":      readOnly(func(n *fann.Network) term.Term { return term.Atom(n.NetType().String()) }),
	"num_input":         readOnly(func(n *fann.Network) term.Term { return term.Int(n.NumInput()) }),
	"num_output":        readOnly(func(n *fann.Network) term.Term { return term.Int(n.NumOutput()) }),
	"total_neurons":     readOnly(func(n *fann.Network) term.Term { return term.Int(n.TotalNeurons()) }),
	"total_connections": readOnly(func(n *fann.Network) term.Term { return term.Int(n.TotalConnections()) }),
	"connection_rate":   readOnly(func(n *fann.Network) term.Term { return term.Float(n.ConnectionRate()) }),
	"num_layers":        readOnly(func(n *fann.Network) term.Term { return term.Int(n.NumLayers()) }),
	"layers":            readOnly(func(n *fann.Network) term.Term { return ints(n.Layers()) }),
	"bias":              readOnly(func(n *fann.Network) term.Term { return ints(n.Bias()) }),
	"connections":       readOnly(connectionMap),
}

// ParamNames lists every readable parameter in sorted order.
func ParamNames() []string {
	names := make([]string, 0, len(paramTable))
	for name := range paramTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func connectionMap(n *fann.Network) term.Term {
	conns := n.Connections()
	m := make(term.Map, len(conns))
	for i, c := range conns {
		m[i] = term.Pair{
			Key:   term.Tuple{term.Int(c.From), term.Int(c.To)},
			Value: term.Float(c.Weight),
		}
	}
	return m
}

// applyParams sets every recognised entry of m on p and returns how many
// were applied. Unknown names, non-atom keys, read-only names and values
// of the wrong type are skipped.
func applyParams(logger zerolog.Logger, p *fann.Params, m term.Map) int {
	applied := 0
	for _, pair := range m {
		name, err := term.AsAtom(pair.Key)
		if err != nil {
			logger.Debug().Err(err).Msg("set_params: skipping non-atom key")
			continue
		}
		desc, ok := paramTable[name]
		if !ok || desc.set == nil {
			logger.Debug().Str("param", name).Msg("set_params: skipping unknown or read-only parameter")
			continue
		}
		if !desc.set(p, pair.Value) {
			logger.Debug().Str("param", name).Str("kind", pair.Value.Kind().String()).Msg("set_params: skipping bad value")
			continue
		}
		applied++
	}
	return applied
}
