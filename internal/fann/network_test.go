package fann

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/fannport/internal/testutil/testlog"
)

func identityData(t *testing.T) *TrainData {
	t.Helper()
	d, err := NewTrainData(
		[][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		[][]float64{{0.1}, {0.1}, {0.9}, {0.9}},
		WithSeed(7),
	)
	require.NoError(t, err)
	return d
}

func TestStandardTopology(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 3, 1}, WithSeed(1))
	require.NoError(t, err)

	require.Equal(t, []int{2, 3, 1}, n.Layers())
	require.Equal(t, []int{1, 1, 0}, n.Bias())
	require.Equal(t, 8, n.TotalNeurons())
	require.Equal(t, 3*3+1*4, n.TotalConnections())
	require.Equal(t, 3, n.NumLayers())
	require.Equal(t, 2, n.NumInput())
	require.Equal(t, 1, n.NumOutput())
	require.Equal(t, NetTypeLayer, n.NetType())
	require.Equal(t, 1.0, n.ConnectionRate())

	for _, c := range n.Connections() {
		require.GreaterOrEqual(t, c.Weight, -0.1)
		require.LessOrEqual(t, c.Weight, 0.1)
	}
}

func TestShortcutTopology(t *testing.T) {
	testlog.Start(t)
	n, err := NewShortcut([]int{2, 3, 1}, WithSeed(1))
	require.NoError(t, err)

	require.Equal(t, []int{1, 0, 0}, n.Bias())
	require.Equal(t, 7, n.TotalNeurons())
	// hidden: 3 neurons x (2 inputs + bias); output: inputs, bias and hidden.
	require.Equal(t, 3*3+1*6, n.TotalConnections())
	require.Equal(t, NetTypeShortcut, n.NetType())
}

func TestSparseTopology(t *testing.T) {
	testlog.Start(t)
	n, err := NewSparse(0.5, []int{4, 4, 1}, WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, 0.5, n.ConnectionRate())
	require.Equal(t, 4*3+1*3, n.TotalConnections())

	full, err := NewSparse(2, []int{4, 4, 1}, WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, 1.0, full.ConnectionRate())
	require.Equal(t, 4*5+1*5, full.TotalConnections())

	_, err = NewSparse(0, []int{2, 1})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConstructorRejectsBadLayers(t *testing.T) {
	testlog.Start(t)
	_, err := NewStandard([]int{2})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewStandard([]int{2, 0, 1})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConstructorRejectsOversizedTopology(t *testing.T) {
	testlog.Start(t)
	cases := map[string][]int{
		"huge layer":        {2, 1 << 40, 1},
		"neuron total":      {MaxNeurons / 2, MaxNeurons / 2, 1},
		"connections":       {2, 4096, 4096, 1},
		"overflowing sizes": {1 << 62, 1 << 62},
	}
	for name, sizes := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewStandard(sizes)
			require.ErrorIs(t, err, ErrInvalidArgument)
			_, err = NewShortcut(sizes)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	// a sparse net under the limit that a full one would exceed
	n, err := NewSparse(0.01, []int{2048, 2048, 1}, WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, 2048*(20+1)+1*(20+1), n.TotalConnections())
	_, err = NewStandard([]int{2048, 2048, 1})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSeedIsReproducible(t *testing.T) {
	testlog.Start(t)
	a, err := NewStandard([]int{3, 4, 2}, WithSeed(42))
	require.NoError(t, err)
	b, err := NewStandard([]int{3, 4, 2}, WithSeed(42))
	require.NoError(t, err)
	require.Equal(t, a.Connections(), b.Connections())
}

func TestRunWidthMismatch(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 1}, WithSeed(1))
	require.NoError(t, err)
	_, err = n.Run([]float64{1})
	require.ErrorIs(t, err, ErrWidthMismatch)

	out, err := n.Run([]float64{1, 0})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestRunLinearNetworkIsWeightedSum(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 1}, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, n.SetActivationFunctionOutput(Linear))
	require.NoError(t, n.SetActivationSteepnessOutput(1))
	// neurons: 0,1 inputs, 2 bias, 3 output
	_, err = n.SetWeights([]Connection{{From: 0, To: 3, Weight: 2}, {From: 1, To: 3, Weight: -1}, {From: 2, To: 3, Weight: 0.5}})
	require.NoError(t, err)

	out, err := n.Run([]float64{3, 4})
	require.NoError(t, err)
	require.InDelta(t, 2*3-4+0.5, out[0], 1e-12)
}

func TestEveryAlgorithmReducesError(t *testing.T) {
	testlog.Start(t)
	for _, algo := range []TrainAlgorithm{TrainIncremental, TrainBatch, TrainRPROP, TrainQuickprop, TrainSARPROP} {
		t.Run(algo.String(), func(t *testing.T) {
			n, err := NewStandard([]int{2, 3, 1}, WithSeed(3))
			require.NoError(t, err)
			p := n.Params()
			p.TrainingAlgorithm = algo
			n.SetParams(p)
			data := identityData(t)

			before, err := n.TestData(data)
			require.NoError(t, err)
			for i := 0; i < 300; i++ {
				_, err := n.TrainEpoch(data)
				require.NoError(t, err)
			}
			after, err := n.TestData(data)
			require.NoError(t, err)
			require.Less(t, after, before)
		})
	}
}

func TestTrainSinglePattern(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 1}, WithSeed(5))
	require.NoError(t, err)
	in, want := []float64{1, 0}, []float64{0.9}

	first, err := n.Test(in, want)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		require.NoError(t, n.Train(in, want))
	}
	last, err := n.Run(in)
	require.NoError(t, err)
	require.Less(t, abs(want[0]-last[0]), abs(want[0]-first[0]))

	require.ErrorIs(t, n.Train(in, []float64{1, 2}), ErrWidthMismatch)
}

func TestMSEAccumulatesAndResets(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 1}, WithSeed(5))
	require.NoError(t, err)
	require.Equal(t, 0.0, n.MSE())
	_, err = n.Test([]float64{0, 0}, []float64{1})
	require.NoError(t, err)
	require.Greater(t, n.MSE(), 0.0)
	require.Equal(t, 1, n.BitFail())
	n.ResetMSE()
	require.Equal(t, 0.0, n.MSE())
	require.Equal(t, 0, n.BitFail())
}

func TestTrainOnDataReportsAndStops(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 3, 1}, WithSeed(9))
	require.NoError(t, err)
	data := identityData(t)

	var epochs []int
	err = n.TrainOnData(context.Background(), data, TrainOptions{
		MaxEpochs:            30,
		EpochsBetweenReports: 10,
		DesiredError:         0,
		Reporter: ReporterFunc(func(p Progress) error {
			epochs = append(epochs, p.Epoch)
			return nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 10, 20, 30}, epochs)

	calls := 0
	err = n.TrainOnData(context.Background(), data, TrainOptions{
		MaxEpochs:            100,
		EpochsBetweenReports: 1,
		Reporter: ReporterFunc(func(Progress) error {
			calls++
			return ErrStopTraining
		}),
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	boom := errors.New("boom")
	err = n.TrainOnData(context.Background(), data, TrainOptions{
		MaxEpochs:            5,
		EpochsBetweenReports: 1,
		Reporter:             ReporterFunc(func(Progress) error { return boom }),
	})
	require.ErrorIs(t, err, boom)
}

func TestTrainOnDataStopsAtDesiredError(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 3, 1}, WithSeed(9))
	require.NoError(t, err)
	data := identityData(t)

	calls := 0
	err = n.TrainOnData(context.Background(), data, TrainOptions{
		MaxEpochs:            50,
		EpochsBetweenReports: 1,
		DesiredError:         1e9,
		Reporter:             ReporterFunc(func(p Progress) error { calls++; require.True(t, p.Done); return nil }),
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// bit stop compares the fail count, which never exceeds the pattern count here
	p := n.Params()
	p.TrainStopFunction = StopFuncBit
	n.SetParams(p)
	var last Progress
	calls = 0
	err = n.TrainOnData(context.Background(), data, TrainOptions{
		MaxEpochs:            50,
		EpochsBetweenReports: 10,
		DesiredError:         float64(data.Length()),
		Reporter:             ReporterFunc(func(p Progress) error { calls++; last = p; return nil }),
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.True(t, last.Done)
	require.Equal(t, 1, last.Epoch)
}

func TestTrainOnDataHonoursCancellation(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 3, 1}, WithSeed(9))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err = n.TrainOnData(ctx, identityData(t), TrainOptions{
		MaxEpochs:            10,
		EpochsBetweenReports: 1,
		Reporter:             ReporterFunc(func(Progress) error { calls++; return nil }),
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls)
}

func TestTrainOnDataRejectsMismatchedData(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{3, 1}, WithSeed(1))
	require.NoError(t, err)
	err = n.TrainOnData(context.Background(), identityData(t), TrainOptions{MaxEpochs: 1})
	require.ErrorIs(t, err, ErrWidthMismatch)
}

func TestTrainOnFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "and.data")
	require.NoError(t, identityData(t).Save(path))

	n, err := NewStandard([]int{2, 3, 1}, WithSeed(2))
	require.NoError(t, err)
	require.NoError(t, n.TrainOnFile(context.Background(), path, TrainOptions{MaxEpochs: 20}))

	err = n.TrainOnFile(context.Background(), filepath.Join(t.TempDir(), "missing"), TrainOptions{MaxEpochs: 1})
	require.Error(t, err)
}

func TestCopyIsIndependent(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 2, 1}, WithSeed(4))
	require.NoError(t, err)
	c, err := n.Copy()
	require.NoError(t, err)
	require.Equal(t, n.Connections(), c.Connections())

	require.NoError(t, c.SetWeight(0, 3, 5))
	orig := n.Connections()
	for _, cn := range orig {
		if cn.From == 0 && cn.To == 3 {
			require.NotEqual(t, 5.0, cn.Weight)
		}
	}
}

func TestSetWeight(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 1}, WithSeed(4))
	require.NoError(t, err)
	require.NoError(t, n.SetWeight(1, 3, 0.25))
	require.ErrorIs(t, n.SetWeight(3, 1, 1), ErrNoConnection)

	applied, err := n.SetWeights([]Connection{{From: 0, To: 3, Weight: 1}, {From: 0, To: 1, Weight: 1}})
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	got := map[[2]int]float64{}
	for _, c := range n.Connections() {
		got[[2]int{c.From, c.To}] = c.Weight
	}
	require.Equal(t, 1.0, got[[2]int{0, 3}])
	require.Equal(t, 0.25, got[[2]int{1, 3}])
}

func TestRandomizeWeights(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 4, 1}, WithSeed(4))
	require.NoError(t, err)
	require.NoError(t, n.RandomizeWeights(2, 3))
	for _, c := range n.Connections() {
		require.GreaterOrEqual(t, c.Weight, 2.0)
		require.LessOrEqual(t, c.Weight, 3.0)
	}
	require.ErrorIs(t, n.RandomizeWeights(1, -1), ErrInvalidArgument)
}

func TestInitWeights(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 4, 1}, WithSeed(4))
	require.NoError(t, err)
	require.NoError(t, n.InitWeights(identityData(t)))

	// 4 hidden neurons over an input span of 1.
	limit := pow(0.7*4, 0.5)
	for _, c := range n.Connections() {
		require.LessOrEqual(t, abs(c.Weight), limit)
	}
}

func TestActivationAccessors(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 3, 1}, WithSeed(4))
	require.NoError(t, err)

	f, err := n.ActivationFunction(1, 0)
	require.NoError(t, err)
	require.Equal(t, SigmoidStepwise, f)
	s, err := n.ActivationSteepness(2, 0)
	require.NoError(t, err)
	require.Equal(t, 0.5, s)

	_, err = n.ActivationFunction(0, 0)
	require.ErrorIs(t, err, ErrIndexRange)
	_, err = n.ActivationFunction(1, 3)
	require.ErrorIs(t, err, ErrIndexRange)

	require.NoError(t, n.SetActivationFunctionHidden(Elliot))
	require.NoError(t, n.SetActivationFunction(Cos, 1, 2))
	require.NoError(t, n.SetActivationSteepnessLayer(0.75, 2))

	f, _ = n.ActivationFunction(1, 0)
	require.Equal(t, Elliot, f)
	f, _ = n.ActivationFunction(1, 2)
	require.Equal(t, Cos, f)
	f, _ = n.ActivationFunction(2, 0)
	require.Equal(t, SigmoidStepwise, f)
	s, _ = n.ActivationSteepness(2, 0)
	require.Equal(t, 0.75, s)

	require.ErrorIs(t, n.SetActivationFunctionLayer(Linear, 3), ErrIndexRange)
}

func TestSaveLoadPreservesOutput(t *testing.T) {
	testlog.Start(t)
	n, err := NewShortcut([]int{2, 3, 2}, WithSeed(11))
	require.NoError(t, err)
	require.NoError(t, n.SetActivationFunction(GaussianSymmetric, 1, 1))
	require.NoError(t, n.SetActivationSteepness(0.3, 2, 1))
	p := n.Params()
	p.LearningRate = 0.25
	p.TrainingAlgorithm = TrainQuickprop
	n.SetParams(p)
	data, err := NewTrainData([][]float64{{0, 1}, {2, 5}}, [][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)
	require.NoError(t, n.SetScalingParams(data, -1, 1, -1, 1))

	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, n.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	in := []float64{0.3, -0.7}
	want, err := n.Run(in)
	require.NoError(t, err)
	got, err := loaded.Run(in)
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.Equal(t, n.Connections(), loaded.Connections())
	require.Equal(t, n.Params(), loaded.Params())
	require.Equal(t, n.Layers(), loaded.Layers())
	require.True(t, loaded.HasScaling())
}

func TestLoadRejectsGarbage(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, writeFile(bad, "format: something-else\n"))
	_, err = Load(bad)
	require.ErrorIs(t, err, ErrFormat)
}

func TestDestroyedNetworkFails(t *testing.T) {
	testlog.Start(t)
	n, err := NewStandard([]int{2, 1})
	require.NoError(t, err)
	n.Destroy()
	require.True(t, n.Destroyed())
	_, err = n.Run([]float64{0, 0})
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = n.Copy()
	require.ErrorIs(t, err, ErrDestroyed)
	require.ErrorIs(t, n.Save(filepath.Join(t.TempDir(), "x")), ErrDestroyed)
}

func TestEnumNames(t *testing.T) {
	testlog.Start(t)
	for i := range activationNames {
		f := ActivationFunc(i)
		got, ok := ParseActivationFunc(f.String())
		require.True(t, ok)
		require.Equal(t, f, got)
	}
	_, ok := ParseActivationFunc("fann_nope")
	require.False(t, ok)
	require.Equal(t, "undefined", ActivationFunc(99).String())

	a, ok := ParseTrainAlgorithm("fann_train_sarprop")
	require.True(t, ok)
	require.Equal(t, TrainSARPROP, a)
	s, ok := ParseStopFunc("fann_stopfunc_bit")
	require.True(t, ok)
	require.Equal(t, StopFuncBit, s)
	e, ok := ParseErrorFunc("fann_errorfunc_linear")
	require.True(t, ok)
	require.Equal(t, ErrorFuncLinear, e)
}
