package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/fannport/internal/fann"
	"github.com/danmuck/fannport/internal/testutil/testlog"
)

func newModel(t *testing.T) *fann.Network {
	t.Helper()
	n, err := fann.NewStandard([]int{2, 1}, fann.WithSeed(1))
	require.NoError(t, err)
	return n
}

func newDataset(t *testing.T) *fann.TrainData {
	t.Helper()
	d, err := fann.NewTrainData([][]float64{{0, 1}}, [][]float64{{1}})
	require.NoError(t, err)
	return d
}

func TestKeysAreSharedAndMonotonic(t *testing.T) {
	testlog.Start(t)
	r := New()
	m1 := r.AddModel(newModel(t))
	d1 := r.AddDataset(newDataset(t))
	m2 := r.AddModel(newModel(t))
	require.Equal(t, Key(1), m1)
	require.Equal(t, Key(2), d1)
	require.Equal(t, Key(3), m2)

	require.NoError(t, r.RemoveModel(m2))
	m3 := r.AddModel(newModel(t))
	require.Equal(t, Key(4), m3)
	require.Equal(t, Counts{Models: 2, Datasets: 1, NextKey: 5}, r.Counts())
}

func TestLookupAfterRemoveIsNotFound(t *testing.T) {
	testlog.Start(t)
	r := New()
	n := newModel(t)
	key := r.AddModel(n)
	require.NoError(t, r.RemoveModel(key))
	require.True(t, n.Destroyed())

	_, err := r.Model(key)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.RemoveModel(key), ErrNotFound)

	d := newDataset(t)
	dk := r.AddDataset(d)
	require.NoError(t, r.RemoveDataset(dk))
	require.True(t, d.Destroyed())
	_, err = r.Dataset(dk)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWrongKind(t *testing.T) {
	testlog.Start(t)
	r := New()
	mk := r.AddModel(newModel(t))
	dk := r.AddDataset(newDataset(t))

	_, err := r.Model(dk)
	require.ErrorIs(t, err, ErrWrongKind)
	require.NotErrorIs(t, err, ErrNotFound)
	_, err = r.Dataset(mk)
	require.ErrorIs(t, err, ErrWrongKind)
	require.ErrorIs(t, r.RemoveDataset(mk), ErrWrongKind)
	require.ErrorIs(t, r.RemoveModel(dk), ErrWrongKind)

	_, err = r.Model(99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreInsertIsNoOpWhenPresent(t *testing.T) {
	testlog.Start(t)
	s := NewStore[string]("thing")
	require.True(t, s.Insert(1, "a"))
	require.False(t, s.Insert(1, "b"))
	v, err := s.Lookup(1)
	require.NoError(t, err)
	require.Equal(t, "a", v)
	require.Equal(t, "thing", s.Kind())
}

func TestStoreKeysAndDrainAreSorted(t *testing.T) {
	testlog.Start(t)
	s := NewStore[int]("n")
	for _, k := range []Key{5, 2, 9, 1} {
		s.Insert(k, int(k)*10)
	}
	require.Equal(t, []Key{1, 2, 5, 9}, s.Keys())
	require.Equal(t, []int{10, 20, 50, 90}, s.Drain())
	require.Zero(t, s.Count())
}

func TestCloseDestroysEverything(t *testing.T) {
	testlog.Start(t)
	r := New()
	n := newModel(t)
	d := newDataset(t)
	r.AddModel(n)
	r.AddModel(newModel(t))
	r.AddDataset(d)

	counts := r.Close()
	require.Equal(t, 2, counts.Models)
	require.Equal(t, 1, counts.Datasets)
	require.True(t, n.Destroyed())
	require.True(t, d.Destroyed())
	require.Equal(t, Counts{Models: 0, Datasets: 0, NextKey: 4}, r.Counts())
}

func TestSequenceIsSafeForConcurrentUse(t *testing.T) {
	testlog.Start(t)
	var seq Sequence
	var wg sync.WaitGroup
	seen := make(chan Key, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- seq.Next()
		}()
	}
	wg.Wait()
	close(seen)
	uniq := map[Key]bool{}
	for k := range seen {
		require.NotZero(t, k)
		uniq[k] = true
	}
	require.Len(t, uniq, 100)
	require.Equal(t, Key(101), seq.Peek())
}
