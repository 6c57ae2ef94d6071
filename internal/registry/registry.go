// Package registry tracks the native objects the peer refers to by handle.
//
// Models and datasets live in separate stores but draw keys from one
// sequence, so a key never names objects of both kinds and a key presented
// to the wrong store is reported as ErrWrongKind.
package registry

import (
	"fmt"

	"github.com/danmuck/fannport/internal/fann"
)

const (
	KindModel   = "model"
	KindDataset = "dataset"
)

// Registry is the process-scoped handle table.
type Registry struct {
	seq      Sequence
	Models   *Store[*fann.Network]
	Datasets *Store[*fann.TrainData]
}

// Counts is a snapshot of live entries.
type Counts struct {
	Models   int
	Datasets int
	NextKey  Key
}

func New() *Registry {
	return &Registry{
		Models:   NewStore[*fann.Network](KindModel),
		Datasets: NewStore[*fann.TrainData](KindDataset),
	}
}

func (r *Registry) AddModel(n *fann.Network) Key {
	key := r.seq.Next()
	r.Models.Insert(key, n)
	return key
}

func (r *Registry) AddDataset(d *fann.TrainData) Key {
	key := r.seq.Next()
	r.Datasets.Insert(key, d)
	return key
}

func (r *Registry) Model(key Key) (*fann.Network, error) {
	n, err := r.Models.Lookup(key)
	if err != nil {
		return nil, classify(err, key, r.Datasets.Contains(key), KindDataset)
	}
	return n, nil
}

func (r *Registry) Dataset(key Key) (*fann.TrainData, error) {
	d, err := r.Datasets.Lookup(key)
	if err != nil {
		return nil, classify(err, key, r.Models.Contains(key), KindModel)
	}
	return d, nil
}

// RemoveModel detaches and destroys the model.
func (r *Registry) RemoveModel(key Key) error {
	n, err := r.Models.Remove(key)
	if err != nil {
		return classify(err, key, r.Datasets.Contains(key), KindDataset)
	}
	n.Destroy()
	return nil
}

// RemoveDataset detaches and destroys the dataset.
func (r *Registry) RemoveDataset(key Key) error {
	d, err := r.Datasets.Remove(key)
	if err != nil {
		return classify(err, key, r.Models.Contains(key), KindModel)
	}
	d.Destroy()
	return nil
}

func (r *Registry) Counts() Counts {
	return Counts{
		Models:   r.Models.Count(),
		Datasets: r.Datasets.Count(),
		NextKey:  r.seq.Peek(),
	}
}

// Close destroys every outstanding object and reports how many were live.
func (r *Registry) Close() Counts {
	models := r.Models.Drain()
	for _, n := range models {
		n.Destroy()
	}
	datasets := r.Datasets.Drain()
	for _, d := range datasets {
		d.Destroy()
	}
	return Counts{Models: len(models), Datasets: len(datasets), NextKey: r.seq.Peek()}
}

func classify(err error, key Key, inOther bool, otherKind string) error {
	if inOther {
		return fmt.Errorf("%w: %d is a %s", ErrWrongKind, key, otherKind)
	}
	return err
}
