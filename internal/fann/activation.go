package fann

import "math"

// activate evaluates f on a sum already multiplied by the steepness.
func activate(f ActivationFunc, sum float64) float64 {
	switch f {
	case Linear:
		return sum
	case Threshold:
		if sum < 0 {
			return 0
		}
		return 1
	case ThresholdSymmetric:
		if sum < 0 {
			return -1
		}
		return 1
	case Sigmoid, SigmoidStepwise:
		return 1 / (1 + math.Exp(-2*sum))
	case SigmoidSymmetric, SigmoidSymmetricStepwise:
		return 2/(1+math.Exp(-2*sum)) - 1
	case Gaussian, GaussianStepwise:
		return math.Exp(-sum * sum)
	case GaussianSymmetric:
		return 2*math.Exp(-sum*sum) - 1
	case Elliot:
		return (sum/2)/(1+math.Abs(sum)) + 0.5
	case ElliotSymmetric:
		return sum / (1 + math.Abs(sum))
	case LinearPiece:
		return clamp(sum, 0, 1)
	case LinearPieceSymmetric:
		return clamp(sum, -1, 1)
	case SinSymmetric:
		return math.Sin(sum)
	case CosSymmetric:
		return math.Cos(sum)
	case Sin:
		return math.Sin(sum)/2 + 0.5
	case Cos:
		return math.Cos(sum)/2 + 0.5
	default:
		return sum
	}
}

// derive is the slope of f at the neuron's current value and sum.
// Threshold functions are not differentiable and contribute nothing.
func derive(f ActivationFunc, steepness, value, sum float64) float64 {
	switch f {
	case Linear, LinearPiece, LinearPieceSymmetric:
		return steepness
	case Sigmoid, SigmoidStepwise:
		value = clamp(value, 0.01, 0.99)
		return 2 * steepness * value * (1 - value)
	case SigmoidSymmetric, SigmoidSymmetricStepwise:
		value = clamp(value, -0.98, 0.98)
		return steepness * (1 - value*value)
	case Gaussian, GaussianStepwise:
		return -2 * sum * value * steepness
	case GaussianSymmetric:
		return -2 * sum * (value + 1) * steepness
	case Elliot:
		d := 1 + math.Abs(sum)
		return steepness / (2 * d * d)
	case ElliotSymmetric:
		d := 1 + math.Abs(sum)
		return steepness / (d * d)
	case SinSymmetric:
		return steepness * math.Cos(sum)
	case CosSymmetric:
		return -steepness * math.Sin(sum)
	case Sin:
		return steepness * math.Cos(sum) / 2
	case Cos:
		return -steepness * math.Sin(sum) / 2
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
