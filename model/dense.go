package model

import (
	"context"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/lidbox/datasets/lid"
	"github.com/neurlang/lidbox/net/dense"
	"github.com/neurlang/lidbox/trainer"
)

// denseBackend classifies pooled utterance vectors with a dense network.
type denseBackend struct {
	m   *Model
	net *dense.Network
}

func newDenseBackend(m *Model, dim, labels int) (*denseBackend, error) {
	net, err := dense.New(dense.Config{
		Input:        lid.PoolDim(dim),
		Output:       labels,
		Hidden:       m.opts.Hidden,
		LearningRate: m.opts.LearningRate,
		WeightDecay:  m.opts.WeightDecay,
		Seed:         m.opts.Seed,
	})
	if err != nil {
		return nil, err
	}
	return &denseBackend{m: m, net: net}, nil
}

func pooled(batch []lid.Example) (*mat.Dense, []int) {
	var x *mat.Dense
	var labels = make([]int, len(batch))
	for i, ex := range batch {
		v := lid.Pool(ex)
		if x == nil {
			x = mat.NewDense(len(batch), len(v), nil)
		}
		x.SetRow(i, v)
		labels[i] = ex.Label
	}
	return x, labels
}

func (d *denseBackend) TrainEpoch(ctx context.Context, epoch int, train []lid.Example) (trainer.Result, error) {
	var res trainer.Result
	for _, batch := range trainer.Batches(train, d.m.opts.BatchSize) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		x, labels := pooled(batch)
		loss, err := d.net.TrainBatch(x, labels)
		if err != nil {
			return res, err
		}
		res.Loss += loss * float64(len(batch))
	}
	res.Loss /= float64(len(train))
	// accuracy of the trained weights, the loss is the running batch mean
	probs, err := predictAll(ctx, d, train, d.m.opts.EvalThreads)
	if err != nil {
		return res, err
	}
	res.Accuracy = score(train, probs).Accuracy
	return res, nil
}

func (d *denseBackend) Evaluate(ctx context.Context, set []lid.Example) (trainer.Result, error) {
	probs, err := predictAll(ctx, d, set, d.m.opts.EvalThreads)
	if err != nil {
		return trainer.Result{}, err
	}
	return score(set, probs), nil
}

func (d *denseBackend) predict(ex lid.Example) ([]float64, error) {
	p, err := d.net.Predict(mat.NewDense(1, 2*d.m.dim, lid.Pool(ex)))
	if err != nil {
		return nil, err
	}
	return p.RawRowView(0), nil
}

func (d *denseBackend) Snapshot() any {
	return d.net.Clone()
}

func (d *denseBackend) Restore(snapshot any) {
	d.net = snapshot.(*dense.Network)
}

func (d *denseBackend) save(path string) error {
	return d.net.SaveFile(path)
}

func (d *denseBackend) load(path string) error {
	net, err := dense.LoadFile(path)
	if err != nil {
		return err
	}
	have, want := net.Config(), d.net.Config()
	if have.Input != want.Input || have.Output != want.Output {
		return errors.Errorf("%s has shape %dx%d, want %dx%d", path, have.Input, have.Output, want.Input, want.Output)
	}
	d.net = net
	return nil
}
