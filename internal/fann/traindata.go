package fann

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

// TrainData is a set of input/output patterns of fixed widths.
type TrainData struct {
	input     [][]float64
	output    [][]float64
	numInput  int
	numOutput int
	rng       *rand.Rand
	destroyed bool
}

// NewTrainData copies the given patterns. Every row must have the width of
// the first row of its side.
func NewTrainData(inputs, outputs [][]float64, opts ...Option) (*TrainData, error) {
	if len(inputs) != len(outputs) {
		return nil, fmt.Errorf("%w: %d inputs, %d outputs", ErrWidthMismatch, len(inputs), len(outputs))
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyData
	}
	d := &TrainData{numInput: len(inputs[0]), numOutput: len(outputs[0]), rng: newRand(opts)}
	for i := range inputs {
		if len(inputs[i]) != d.numInput || len(outputs[i]) != d.numOutput {
			return nil, fmt.Errorf("%w: pattern %d", ErrWidthMismatch, i)
		}
		d.input = append(d.input, append([]float64(nil), inputs[i]...))
		d.output = append(d.output, append([]float64(nil), outputs[i]...))
	}
	return d, nil
}

// ReadTrainFile loads the text format: a header "count num_input
// num_output" followed by count input rows each followed by an output row.
func ReadTrainFile(path string, opts ...Option) (*TrainData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := ParseTrainData(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func ParseTrainData(r io.Reader, opts ...Option) (*TrainData, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	field := 0
	nextInt := func() (int, error) {
		if !sc.Scan() {
			return 0, fmt.Errorf("%w: header truncated at field %d", ErrFormat, field)
		}
		field++
		v, err := strconv.Atoi(sc.Text())
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: header field %d %q", ErrFormat, field, sc.Text())
		}
		return v, nil
	}
	nextFloat := func() (float64, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("%w: data truncated after %d values", ErrFormat, field-3)
		}
		field++
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: value %q", ErrFormat, sc.Text())
		}
		return v, nil
	}

	count, err := nextInt()
	if err != nil {
		return nil, err
	}
	numIn, err := nextInt()
	if err != nil {
		return nil, err
	}
	numOut, err := nextInt()
	if err != nil {
		return nil, err
	}
	if count == 0 || numIn == 0 || numOut == 0 {
		return nil, fmt.Errorf("%w: header %d %d %d", ErrFormat, count, numIn, numOut)
	}

	// Header sizes are untrusted: rows grow only as values are parsed.
	nextRow := func(width int) ([]float64, error) {
		row := make([]float64, 0, min(width, rowPrealloc))
		for len(row) < width {
			v, err := nextFloat()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		return row, nil
	}

	d := &TrainData{numInput: numIn, numOutput: numOut, rng: newRand(opts)}
	for i := 0; i < count; i++ {
		in, err := nextRow(numIn)
		if err != nil {
			return nil, err
		}
		out, err := nextRow(numOut)
		if err != nil {
			return nil, err
		}
		d.input = append(d.input, in)
		d.output = append(d.output, out)
	}
	return d, nil
}

const rowPrealloc = 1024

// Save writes data in the format ReadTrainFile reads.
func (d *TrainData) Save(path string) error {
	if d.destroyed {
		return ErrDestroyed
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := d.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *TrainData) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d %d\n", len(d.input), d.numInput, d.numOutput)
	for i := range d.input {
		writeRow(&b, d.input[i])
		writeRow(&b, d.output[i])
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func writeRow(b *strings.Builder, row []float64) {
	for j, v := range row {
		if j > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte('\n')
}

func (d *TrainData) Length() int { return len(d.input) }

func (d *TrainData) NumInput() int { return d.numInput }

func (d *TrainData) NumOutput() int { return d.numOutput }

// Input returns a copy of pattern i's input row.
func (d *TrainData) Input(i int) []float64 {
	return append([]float64(nil), d.input[i]...)
}

func (d *TrainData) Output(i int) []float64 {
	return append([]float64(nil), d.output[i]...)
}

func (d *TrainData) Destroyed() bool { return d.destroyed }

// Destroy releases the patterns. Every later call fails with ErrDestroyed.
func (d *TrainData) Destroy() {
	d.destroyed = true
	d.input = nil
	d.output = nil
}

func (d *TrainData) Duplicate() (*TrainData, error) {
	return d.Subset(0, len(d.input))
}

// Subset copies length patterns starting at pos.
func (d *TrainData) Subset(pos, length int) (*TrainData, error) {
	if d.destroyed {
		return nil, ErrDestroyed
	}
	if pos < 0 || length < 0 || pos > len(d.input) || length > len(d.input)-pos {
		return nil, fmt.Errorf("%w: subset %d+%d of %d", ErrIndexRange, pos, length, len(d.input))
	}
	if length == 0 {
		return nil, ErrEmptyData
	}
	out := &TrainData{
		input:     make([][]float64, length),
		output:    make([][]float64, length),
		numInput:  d.numInput,
		numOutput: d.numOutput,
		rng:       child(d.rng),
	}
	for i := 0; i < length; i++ {
		out.input[i] = append([]float64(nil), d.input[pos+i]...)
		out.output[i] = append([]float64(nil), d.output[pos+i]...)
	}
	return out, nil
}

// Merge returns a new set holding d's patterns followed by other's.
func (d *TrainData) Merge(other *TrainData) (*TrainData, error) {
	if d.destroyed || other == nil || other.destroyed {
		return nil, ErrDestroyed
	}
	if d.numInput != other.numInput || d.numOutput != other.numOutput {
		return nil, fmt.Errorf("%w: merging %dx%d with %dx%d",
			ErrWidthMismatch, d.numInput, d.numOutput, other.numInput, other.numOutput)
	}
	out, err := d.Duplicate()
	if err != nil {
		return nil, err
	}
	for i := range other.input {
		out.input = append(out.input, append([]float64(nil), other.input[i]...))
		out.output = append(out.output, append([]float64(nil), other.output[i]...))
	}
	return out, nil
}

// Shuffle permutes the patterns, keeping each input with its output.
func (d *TrainData) Shuffle() error {
	if d.destroyed {
		return ErrDestroyed
	}
	d.rng.Shuffle(len(d.input), func(i, j int) {
		d.input[i], d.input[j] = d.input[j], d.input[i]
		d.output[i], d.output[j] = d.output[j], d.output[i]
	})
	return nil
}
