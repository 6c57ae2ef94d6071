package fann

// NetType is the connection layout of a network.
type NetType int

const (
	NetTypeLayer NetType = iota
	NetTypeShortcut
)

var netTypeNames = []string{"fann_nettype_layer", "fann_nettype_shortcut"}

func (t NetType) String() string { return enumName(netTypeNames, int(t)) }

func ParseNetType(name string) (NetType, bool) {
	i, ok := enumIndex(netTypeNames, name)
	return NetType(i), ok
}

// ActivationFunc selects a neuron transfer function.
type ActivationFunc int

const (
	Linear ActivationFunc = iota
	Threshold
	ThresholdSymmetric
	Sigmoid
	SigmoidStepwise
	SigmoidSymmetric
	SigmoidSymmetricStepwise
	Gaussian
	GaussianSymmetric
	GaussianStepwise
	Elliot
	ElliotSymmetric
	LinearPiece
	LinearPieceSymmetric
	SinSymmetric
	CosSymmetric
	Sin
	Cos
)

var activationNames = []string{
	"fann_linear",
	"fann_threshold",
	"fann_threshold_symmetric",
	"fann_sigmoid",
	"fann_sigmoid_stepwise",
	"fann_sigmoid_symmetric",
	"fann_sigmoid_symmetric_stepwise",
	"fann_gaussian",
	"fann_gaussian_symmetric",
	"fann_gaussian_stepwise",
	"fann_elliot",
	"fann_elliot_symmetric",
	"fann_linear_piece",
	"fann_linear_piece_symmetric",
	"fann_sin_symmetric",
	"fann_cos_symmetric",
	"fann_sin",
	"fann_cos",
}

func (f ActivationFunc) String() string { return enumName(activationNames, int(f)) }

func ParseActivationFunc(name string) (ActivationFunc, bool) {
	i, ok := enumIndex(activationNames, name)
	return ActivationFunc(i), ok
}

// Symmetric reports whether the function's range is centred on zero.
func (f ActivationFunc) Symmetric() bool {
	switch f {
	case ThresholdSymmetric, SigmoidSymmetric, SigmoidSymmetricStepwise,
		GaussianSymmetric, ElliotSymmetric, LinearPieceSymmetric,
		SinSymmetric, CosSymmetric:
		return true
	default:
		return false
	}
}

// TrainAlgorithm selects how weights are updated.
type TrainAlgorithm int

const (
	TrainIncremental TrainAlgorithm = iota
	TrainBatch
	TrainRPROP
	TrainQuickprop
	TrainSARPROP
)

var trainAlgorithmNames = []string{
	"fann_train_incremental",
	"fann_train_batch",
	"fann_train_rprop",
	"fann_train_quickprop",
	"fann_train_sarprop",
}

func (a TrainAlgorithm) String() string { return enumName(trainAlgorithmNames, int(a)) }

func ParseTrainAlgorithm(name string) (TrainAlgorithm, bool) {
	i, ok := enumIndex(trainAlgorithmNames, name)
	return TrainAlgorithm(i), ok
}

// ErrorFunc shapes the output error before backpropagation.
type ErrorFunc int

const (
	ErrorFuncLinear ErrorFunc = iota
	ErrorFuncTanh
)

var errorFuncNames = []string{"fann_errorfunc_linear", "fann_errorfunc_tanh"}

func (e ErrorFunc) String() string { return enumName(errorFuncNames, int(e)) }

func ParseErrorFunc(name string) (ErrorFunc, bool) {
	i, ok := enumIndex(errorFuncNames, name)
	return ErrorFunc(i), ok
}

// StopFunc decides when TrainOnData has reached the desired error.
type StopFunc int

const (
	StopFuncMSE StopFunc = iota
	StopFuncBit
)

var stopFuncNames = []string{"fann_stopfunc_mse", "fann_stopfunc_bit"}

func (s StopFunc) String() string { return enumName(stopFuncNames, int(s)) }

func ParseStopFunc(name string) (StopFunc, bool) {
	i, ok := enumIndex(stopFuncNames, name)
	return StopFunc(i), ok
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "undefined"
	}
	return names[i]
}

func enumIndex(names []string, name string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}
