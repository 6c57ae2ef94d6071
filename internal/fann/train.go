package fann

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Progress describes training state at a report point.
type Progress struct {
	Epoch                int
	MaxEpochs            int
	EpochsBetweenReports int
	MSE                  float64
	BitFail              int
	DesiredError         float64
	// Done is set on the epoch that met the stop function's target.
	Done bool
}

// Reporter observes TrainOnData. Returning ErrStopTraining ends training
// normally; any other error aborts it.
type Reporter interface {
	Report(Progress) error
}

type ReporterFunc func(Progress) error

func (f ReporterFunc) Report(p Progress) error { return f(p) }

// TrainOptions bound a TrainOnData run.
type TrainOptions struct {
	MaxEpochs            int
	EpochsBetweenReports int
	DesiredError         float64
	Reporter             Reporter
}

func (n *Network) clearTrainArrays() {
	n.slopes = nil
	n.prevSlopes = nil
	n.prevSteps = nil
	n.prevDeltas = nil
	n.sarpropEpoch = 0
}

func (n *Network) ensureTrainArrays() {
	if len(n.slopes) == len(n.weights) && n.slopes != nil {
		return
	}
	n.slopes = make([]float64, len(n.weights))
	n.prevSlopes = make([]float64, len(n.weights))
	n.prevSteps = make([]float64, len(n.weights))
	if n.params.TrainingAlgorithm == TrainRPROP {
		for i := range n.prevSteps {
			n.prevSteps[i] = n.params.RPROPDeltaZero
		}
	}
}

// TrainEpoch trains once over data with the configured algorithm and
// returns the MSE observed during the epoch.
func (n *Network) TrainEpoch(data *TrainData) (float64, error) {
	if err := n.checkData(data); err != nil {
		return 0, err
	}
	n.ResetMSE()
	if n.params.TrainingAlgorithm == TrainIncremental {
		for i := range data.input {
			n.forward(data.input[i])
			n.computeMSE(data.output[i])
			n.backpropagate()
			n.updateIncremental()
		}
		return n.MSE(), nil
	}

	n.ensureTrainArrays()
	for i := range data.input {
		n.forward(data.input[i])
		n.computeMSE(data.output[i])
		n.backpropagate()
		n.accumulateSlopes()
	}
	switch n.params.TrainingAlgorithm {
	case TrainBatch:
		n.updateBatch(len(data.input))
	case TrainRPROP:
		n.updateRPROP()
	case TrainQuickprop:
		n.updateQuickprop(len(data.input))
	case TrainSARPROP:
		n.updateSARPROP()
		n.sarpropEpoch++
	}
	return n.MSE(), nil
}

// TestData runs every pattern without training and returns the MSE.
func (n *Network) TestData(data *TrainData) (float64, error) {
	if err := n.checkData(data); err != nil {
		return 0, err
	}
	n.ResetMSE()
	for i := range data.input {
		n.forward(data.input[i])
		n.computeMSE(data.output[i])
	}
	return n.MSE(), nil
}

// TrainOnData trains until the desired error is reached, MaxEpochs have
// run, or ctx is done. Cancellation is observed between epochs.
func (n *Network) TrainOnData(ctx context.Context, data *TrainData, opts TrainOptions) error {
	if err := n.checkData(data); err != nil {
		return err
	}
	for epoch := 1; epoch <= opts.MaxEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		mse, err := n.TrainEpoch(data)
		if err != nil {
			return err
		}
		done := mse <= opts.DesiredError
		if n.params.TrainStopFunction == StopFuncBit {
			done = float64(n.bitFail) <= opts.DesiredError
		}
		if opts.Reporter != nil && opts.EpochsBetweenReports > 0 &&
			(epoch%opts.EpochsBetweenReports == 0 || epoch == opts.MaxEpochs || epoch == 1 || done) {
			err := opts.Reporter.Report(Progress{
				Epoch:                epoch,
				MaxEpochs:            opts.MaxEpochs,
				EpochsBetweenReports: opts.EpochsBetweenReports,
				MSE:                  mse,
				BitFail:              n.bitFail,
				DesiredError:         opts.DesiredError,
				Done:                 done,
			})
			if errors.Is(err, ErrStopTraining) {
				return nil
			}
			if err != nil {
				return err
			}
		}
		if done {
			return nil
		}
	}
	return nil
}

// TrainOnFile reads a training file and trains on it.
func (n *Network) TrainOnFile(ctx context.Context, path string, opts TrainOptions) error {
	data, err := ReadTrainFile(path)
	if err != nil {
		return err
	}
	defer data.Destroy()
	return n.TrainOnData(ctx, data, opts)
}

func (n *Network) checkData(data *TrainData) error {
	if n.destroyed || data == nil || data.destroyed {
		return ErrDestroyed
	}
	if data.numInput != n.numInput || data.numOutput != n.numOutput {
		return fmt.Errorf("%w: data is %dx%d, network is %dx%d",
			ErrWidthMismatch, data.numInput, data.numOutput, n.numInput, n.numOutput)
	}
	if len(data.input) == 0 {
		return ErrEmptyData
	}
	return nil
}

func (n *Network) updateBatch(numData int) {
	epsilon := n.params.LearningRate / float64(numData)
	for c := range n.weights {
		n.weights[c] += n.slopes[c] * epsilon
		n.slopes[c] = 0
	}
}

func (n *Network) updateRPROP() {
	p := n.params
	for c := range n.weights {
		prevStep := math.Max(n.prevSteps[c], 0.0001)
		slope := n.slopes[c]
		prevSlope := n.prevSlopes[c]
		var next float64
		if prevSlope*slope >= 0 {
			next = math.Min(prevStep*p.RPROPIncreaseFactor, p.RPROPDeltaMax)
		} else {
			next = math.Max(prevStep*p.RPROPDecreaseFactor, p.RPROPDeltaMin)
			slope = 0
		}
		if slope < 0 {
			n.weights[c] = math.Max(n.weights[c]-next, -weightLimit)
		} else if slope > 0 {
			n.weights[c] = math.Min(n.weights[c]+next, weightLimit)
		}
		n.prevSteps[c] = next
		n.prevSlopes[c] = slope
		n.slopes[c] = 0
	}
}

func (n *Network) updateQuickprop(numData int) {
	p := n.params
	epsilon := p.LearningRate / float64(numData)
	shrink := p.QuickpropMu / (1 + p.QuickpropMu)
	for c := range n.weights {
		w := n.weights[c]
		prevStep := n.prevSteps[c]
		slope := n.slopes[c] + p.QuickpropDecay*w
		prevSlope := n.prevSlopes[c]
		next := 0.0
		switch {
		case prevStep > 0.001:
			if slope > 0 {
				next += epsilon * slope
			}
			next += quickStep(slope, prevSlope, prevStep, p.QuickpropMu, slope > shrink*prevSlope)
		case prevStep < -0.001:
			if slope < 0 {
				next += epsilon * slope
			}
			next += quickStep(slope, prevSlope, prevStep, p.QuickpropMu, slope < shrink*prevSlope)
		default:
			next += epsilon * slope
		}
		n.prevSteps[c] = next
		n.weights[c] = clamp(w+next, -weightLimit, weightLimit)
		n.prevSlopes[c] = slope
		n.slopes[c] = 0
	}
}

func quickStep(slope, prevSlope, prevStep, mu float64, growing bool) float64 {
	if growing || prevSlope == slope {
		return mu * prevStep
	}
	return prevStep * slope / (prevSlope - slope)
}

func (n *Network) updateSARPROP() {
	p := n.params
	mse := n.MSE()
	rmse := math.Sqrt(mse)
	decay := math.Exp2(p.SARPROPWeightDecayShift)
	for c := range n.weights {
		prevStep := math.Max(n.prevSteps[c], 0.000001)
		slope := -n.slopes[c] - n.weights[c]*decay
		prevSlope := n.prevSlopes[c]
		next := prevStep
		switch same := prevSlope * slope; {
		case same > 0:
			next = math.Min(prevStep*p.RPROPIncreaseFactor, p.RPROPDeltaMax)
			n.moveAgainst(c, slope, next)
		case same < 0:
			if prevStep < p.SARPROPStepErrorThresholdFactor*mse {
				noise := n.rng.Float64() * rmse * math.Exp2(-p.SARPROPTemperature*float64(n.sarpropEpoch)+p.SARPROPStepErrorShift)
				next = prevStep*p.RPROPDecreaseFactor + noise
			} else {
				next = math.Max(prevStep*p.RPROPDecreaseFactor, p.RPROPDeltaMin)
			}
			slope = 0
		default:
			n.moveAgainst(c, slope, prevStep)
		}
		n.prevSteps[c] = next
		n.prevSlopes[c] = slope
		n.slopes[c] = 0
	}
}

func (n *Network) moveAgainst(c int, slope, step float64) {
	if slope < 0 {
		n.weights[c] = math.Min(n.weights[c]+step, weightLimit)
	} else {
		n.weights[c] = math.Max(n.weights[c]-step, -weightLimit)
	}
}
