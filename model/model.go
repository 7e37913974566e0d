// Package model wraps the classifier backends behind one interface: prepare
// from dataset metadata, fit with checkpoints and summaries, evaluate into a
// loss or a confusion matrix, and predict class probabilities.
package model

import (
	"context"
	"io"
	"math"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/datasets/lid"
	"github.com/neurlang/lidbox/metrics"
	"github.com/neurlang/lidbox/parallel"
	"github.com/neurlang/lidbox/summary"
	"github.com/neurlang/lidbox/trainer"
)

var log = logging.MustGetLogger("model")

// ErrNoCheckpoints is returned by BestCheckpoint for a directory without checkpoints.
var ErrNoCheckpoints = trainer.ErrNoCheckpoints

// ErrNotPrepared is returned when a model is used before Prepare.
var ErrNotPrepared = errors.New("model: not prepared")

// Options configure a Model.
type Options struct {
	Backend       string
	Hidden        []int
	Epochs        int
	BatchSize     int
	LearningRate  float64
	WeightDecay   float64
	Seed          int64
	EvalThreads   int
	EarlyStopping *trainer.EarlyStopping

	CheckpointDir string
	SaveBestOnly  bool
	Summary       *summary.Writer

	Hashtron config.Hashtron
}

// OptionsFromConfig derives the options of the experiment model. Checkpoint
// and summary locations are left to the caller.
func OptionsFromConfig(c *config.Config) Options {
	var m = c.Model
	var o = Options{
		Backend:      m.Backend,
		Hidden:       m.Hidden,
		Epochs:       m.Epochs,
		BatchSize:    m.BatchSize,
		LearningRate: m.LearningRate,
		WeightDecay:  m.WeightDecay,
		Seed:         m.Seed,
		EvalThreads:  m.EvalThreads,
		SaveBestOnly: m.Checkpoints.SaveBestOnly,
		Hashtron:     m.Hashtron,
	}
	if es := m.EarlyStopping; es != nil {
		o.EarlyStopping = &trainer.EarlyStopping{Patience: es.Patience, MinDelta: es.MinDelta, RestoreBest: es.RestoreBest}
	}
	if !m.Checkpoints.Disabled {
		o.CheckpointDir = c.CheckpointDir()
	}
	return o
}

// backend is one classifier implementation.
type backend interface {
	trainer.Trainable[lid.Example]
	// predict returns the class probabilities of one example.
	predict(ex lid.Example) ([]float64, error)
	save(path string) error
	load(path string) error
}

// Model is a language classifier.
type Model struct {
	ID    string
	opts  Options
	vocab *lid.Vocabulary
	dim   int
	impl  backend
}

// New creates an unprepared model.
func New(id string, opts Options) (*Model, error) {
	switch opts.Backend {
	case config.BackendDense, config.BackendHashtron:
	default:
		return nil, errors.Errorf("model: unknown backend %q", opts.Backend)
	}
	if opts.EvalThreads <= 0 {
		opts.EvalThreads = parallel.Threads()
	}
	return &Model{ID: id, opts: opts}, nil
}

// Prepare builds the backend for the features and labels described by meta.
func (m *Model) Prepare(meta *lid.Meta) error {
	vocab, err := meta.Vocabulary()
	if err != nil {
		return err
	}
	if vocab.Len() < 2 {
		return errors.Errorf("model: %d labels, need at least 2", vocab.Len())
	}
	m.vocab, m.dim = vocab, meta.FeatureDim
	switch m.opts.Backend {
	case config.BackendDense:
		m.impl, err = newDenseBackend(m, meta.FeatureDim, vocab.Len())
	case config.BackendHashtron:
		m.impl, err = newHashtronBackend(m, meta.FeatureDim, vocab.Len())
	}
	if err != nil {
		return err
	}
	log.Infof("model %s: %s backend, %d features, %d labels", m.ID, m.opts.Backend, m.dim, vocab.Len())
	return nil
}

// Vocabulary returns the labels of a prepared model.
func (m *Model) Vocabulary() *lid.Vocabulary {
	return m.vocab
}

// Ext is the checkpoint file extension of the backend.
func (m *Model) Ext() string {
	return m.opts.Backend
}

func (m *Model) check(set []lid.Example) error {
	if m.impl == nil {
		return ErrNotPrepared
	}
	for _, ex := range set {
		if ex.Features == nil {
			return errors.Errorf("model: example %s has no features", ex.ID)
		}
		if _, c := ex.Features.Dims(); c != m.dim {
			return errors.Errorf("model: example %s has %d features, want %d", ex.ID, c, m.dim)
		}
		if ex.Label < 0 || ex.Label > m.vocab.Len() {
			return errors.Errorf("model: example %s has label %d", ex.ID, ex.Label)
		}
	}
	return nil
}

// Fit trains on train, validating on val, with the configured checkpoints,
// summaries and early stopping.
func (m *Model) Fit(ctx context.Context, train, val []lid.Example) ([]trainer.Logs, error) {
	if err := m.check(train); err != nil {
		return nil, err
	}
	if err := m.check(val); err != nil {
		return nil, err
	}
	for _, ex := range train {
		if ex.Label == m.vocab.Len() {
			return nil, errors.Errorf("model: training example %s has an unknown label", ex.ID)
		}
	}
	var callbacks []trainer.Callback
	if m.opts.Summary != nil {
		callbacks = append(callbacks, trainer.Scalars(m.opts.Summary))
	}
	if m.opts.CheckpointDir != "" {
		callbacks = append(callbacks, &trainer.Checkpoint{
			Dir:          m.opts.CheckpointDir,
			Ext:          m.Ext(),
			SaveBestOnly: m.opts.SaveBestOnly,
			Save:         m.impl.save,
		})
	}
	var cfg = trainer.FitConfig{Epochs: m.opts.Epochs, Seed: m.opts.Seed, EarlyStopping: m.opts.EarlyStopping}
	return trainer.Fit[lid.Example](ctx, m.impl, train, val, cfg, callbacks...)
}

// Predict returns the class probabilities of every example.
func (m *Model) Predict(ctx context.Context, set []lid.Example) ([][]float64, error) {
	if err := m.check(set); err != nil {
		return nil, err
	}
	return predictAll(ctx, m.impl, set, m.opts.EvalThreads)
}

func predictAll(ctx context.Context, b backend, set []lid.Example, threads int) ([][]float64, error) {
	var out = make([][]float64, len(set))
	err := parallel.ForEachErr(ctx, len(set), threads, func(ctx context.Context, i int) (err error) {
		out[i], err = b.predict(set[i])
		return errors.Wrapf(err, "model: %s", set[i].ID)
	})
	return out, err
}

// Evaluate returns the mean cross-entropy and the accuracy on set.
func (m *Model) Evaluate(ctx context.Context, set []lid.Example) (loss, accuracy float64, err error) {
	if err := m.check(set); err != nil {
		return 0, 0, err
	}
	res, err := m.impl.Evaluate(ctx, set)
	return res.Loss, res.Accuracy, err
}

// EvaluateConfusionMatrix counts predicted against true labels on set.
// Examples with unknown labels are skipped.
func (m *Model) EvaluateConfusionMatrix(ctx context.Context, set []lid.Example) (*metrics.Confusion, error) {
	probs, err := m.Predict(ctx, set)
	if err != nil {
		return nil, err
	}
	var c = metrics.NewConfusion(m.vocab.Labels())
	for i, p := range probs {
		if set[i].Label == m.vocab.Len() {
			continue
		}
		if err := c.Add(set[i].Label, Argmax(p)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadWeights loads a checkpoint written by this backend.
func (m *Model) LoadWeights(path string) error {
	if m.impl == nil {
		return ErrNotPrepared
	}
	return errors.Wrap(m.impl.load(path), "model")
}

// SaveWeights writes the current weights to path.
func (m *Model) SaveWeights(path string) error {
	if m.impl == nil {
		return ErrNotPrepared
	}
	return errors.Wrap(m.impl.save(path), "model")
}

// Export writes the weights as Go source into w. Only the hashtron backend
// compiles to source.
func (m *Model) Export(w io.Writer, pkg string) error {
	h, ok := m.impl.(*hashtronBackend)
	if !ok {
		return errors.Errorf("model: the %s backend cannot be exported", m.opts.Backend)
	}
	return h.export(w, pkg, m.vocab.Labels())
}

// BestCheckpoint returns the checkpoint of dir with the lowest loss.
func BestCheckpoint(dir string) (string, error) {
	return trainer.BestCheckpoint(dir)
}

// LossFromCheckpointName parses the loss out of a checkpoint file name.
func LossFromCheckpointName(name string) (float64, error) {
	return trainer.LossFromCheckpointName(name)
}

// Argmax returns the index of the largest value, the first among equals.
func Argmax(p []float64) (best int) {
	for i := range p {
		if p[i] > p[best] {
			best = i
		}
	}
	return
}

// score computes the mean cross-entropy and the accuracy of predicted
// probabilities. Unknown labels count as wrong and as loss of the floor probability.
func score(set []lid.Example, probs [][]float64) trainer.Result {
	if len(set) == 0 {
		return trainer.Result{}
	}
	var res trainer.Result
	for i, p := range probs {
		var pl = 0.0
		if l := set[i].Label; l < len(p) {
			pl = p[l]
			if Argmax(p) == l {
				res.Accuracy++
			}
		}
		res.Loss -= math.Log(math.Max(pl, 1e-7))
	}
	res.Loss /= float64(len(set))
	res.Accuracy /= float64(len(set))
	return res
}
