package fann

import (
	"fmt"
	"math"
)

// scaling maps each column to mean 0, deviation 1, then onto the target
// range [newMin, newMin+2*factor].
type scaling struct {
	inMean, inDev     []float64
	inMin, inFactor   float64
	outMean, outDev   []float64
	outMin, outFactor float64
}

func (s *scaling) clone() *scaling {
	c := *s
	c.inMean = append([]float64(nil), s.inMean...)
	c.inDev = append([]float64(nil), s.inDev...)
	c.outMean = append([]float64(nil), s.outMean...)
	c.outDev = append([]float64(nil), s.outDev...)
	return &c
}

// SetScalingParams derives per-column scaling from data so that inputs map
// onto [inMin, inMax] and outputs onto [outMin, outMax].
func (n *Network) SetScalingParams(data *TrainData, inMin, inMax, outMin, outMax float64) error {
	if err := n.checkData(data); err != nil {
		return err
	}
	if !(inMax > inMin) || !(outMax > outMin) {
		return fmt.Errorf("%w: scaling range [%v, %v] / [%v, %v]", ErrInvalidArgument, inMin, inMax, outMin, outMax)
	}
	s := &scaling{
		inMin:     inMin,
		inFactor:  (inMax - inMin) / 2,
		outMin:    outMin,
		outFactor: (outMax - outMin) / 2,
	}
	s.inMean, s.inDev = columnStats(data.input, n.numInput)
	s.outMean, s.outDev = columnStats(data.output, n.numOutput)
	n.scale = s
	return nil
}

func (n *Network) ClearScalingParams() error {
	if n.destroyed {
		return ErrDestroyed
	}
	n.scale = nil
	return nil
}

func (n *Network) HasScaling() bool { return n.scale != nil }

func columnStats(rows [][]float64, width int) (mean, dev []float64) {
	mean = make([]float64, width)
	dev = make([]float64, width)
	count := float64(len(rows))
	for _, row := range rows {
		for i, v := range row {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= count
	}
	for _, row := range rows {
		for i, v := range row {
			d := v - mean[i]
			dev[i] += d * d
		}
	}
	for i := range dev {
		dev[i] = math.Sqrt(dev[i] / count)
		if dev[i] == 0 {
			dev[i] = 1
		}
	}
	return mean, dev
}

func scaleVec(v, mean, dev []float64, newMin, factor float64) {
	for i := range v {
		v[i] = ((v[i]-mean[i])/dev[i]+1)*factor + newMin
	}
}

func descaleVec(v, mean, dev []float64, newMin, factor float64) {
	for i := range v {
		v[i] = ((v[i]-newMin)/factor-1)*dev[i] + mean[i]
	}
}

func (n *Network) checkScaling(v []float64, width int) error {
	if n.destroyed {
		return ErrDestroyed
	}
	if n.scale == nil {
		return ErrNoScaling
	}
	if len(v) != width {
		return fmt.Errorf("%w: vector has %d values, expected %d", ErrWidthMismatch, len(v), width)
	}
	return nil
}

// ScaleInput rescales v in place.
func (n *Network) ScaleInput(v []float64) error {
	if err := n.checkScaling(v, n.numInput); err != nil {
		return err
	}
	scaleVec(v, n.scale.inMean, n.scale.inDev, n.scale.inMin, n.scale.inFactor)
	return nil
}

func (n *Network) DescaleInput(v []float64) error {
	if err := n.checkScaling(v, n.numInput); err != nil {
		return err
	}
	descaleVec(v, n.scale.inMean, n.scale.inDev, n.scale.inMin, n.scale.inFactor)
	return nil
}

func (n *Network) ScaleOutput(v []float64) error {
	if err := n.checkScaling(v, n.numOutput); err != nil {
		return err
	}
	scaleVec(v, n.scale.outMean, n.scale.outDev, n.scale.outMin, n.scale.outFactor)
	return nil
}

func (n *Network) DescaleOutput(v []float64) error {
	if err := n.checkScaling(v, n.numOutput); err != nil {
		return err
	}
	descaleVec(v, n.scale.outMean, n.scale.outDev, n.scale.outMin, n.scale.outFactor)
	return nil
}

// ScaleTrain rescales every pattern of data in place.
func (n *Network) ScaleTrain(data *TrainData) error {
	if err := n.checkData(data); err != nil {
		return err
	}
	if n.scale == nil {
		return ErrNoScaling
	}
	s := n.scale
	for i := range data.input {
		scaleVec(data.input[i], s.inMean, s.inDev, s.inMin, s.inFactor)
		scaleVec(data.output[i], s.outMean, s.outDev, s.outMin, s.outFactor)
	}
	return nil
}

func (n *Network) DescaleTrain(data *TrainData) error {
	if err := n.checkData(data); err != nil {
		return err
	}
	if n.scale == nil {
		return ErrNoScaling
	}
	s := n.scale
	for i := range data.input {
		descaleVec(data.input[i], s.inMean, s.inDev, s.inMin, s.inFactor)
		descaleVec(data.output[i], s.outMean, s.outDev, s.outMin, s.outFactor)
	}
	return nil
}
