package trainer

import (
	"context"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Result is the loss and accuracy of one pass over a dataset.
type Result struct {
	Loss     float64
	Accuracy float64
}

// Trainable is a classifier trained epoch by epoch on elements of type E.
type Trainable[E any] interface {
	// TrainEpoch trains one pass over the shuffled training set.
	TrainEpoch(ctx context.Context, epoch int, train []E) (Result, error)
	// Evaluate measures the classifier without changing it.
	Evaluate(ctx context.Context, set []E) (Result, error)
	// Snapshot copies the current weights.
	Snapshot() any
	// Restore brings back weights returned by Snapshot.
	Restore(snapshot any)
}

// Logs are the metrics of one finished epoch. Epochs count from 1.
type Logs struct {
	Epoch       int
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
	HasVal      bool
}

// Monitor is the value minimized by checkpoints and early stopping:
// the validation loss, or the training loss without a validation set.
func (l Logs) Monitor() float64 {
	if l.HasVal {
		return l.ValLoss
	}
	return l.Loss
}

// Callback runs after every epoch. Returning stop ends training.
type Callback interface {
	OnEpochEnd(ctx context.Context, logs Logs) (stop bool, err error)
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(ctx context.Context, logs Logs) (bool, error)

// OnEpochEnd calls f.
func (f CallbackFunc) OnEpochEnd(ctx context.Context, logs Logs) (bool, error) {
	return f(ctx, logs)
}

// EarlyStopping stops when the monitored loss has not improved by more than
// MinDelta for Patience epochs.
type EarlyStopping struct {
	Patience    int
	MinDelta    float64
	RestoreBest bool
}

// FitConfig controls Fit.
type FitConfig struct {
	Epochs        int
	Seed          int64
	EarlyStopping *EarlyStopping
}

// Fit trains t for up to cfg.Epochs epochs, evaluating on val when it is not
// empty, and returns the logs of every epoch. Callbacks run in order after
// each epoch.
func Fit[E any](ctx context.Context, t Trainable[E], train, val []E, cfg FitConfig, callbacks ...Callback) ([]Logs, error) {
	if len(train) == 0 {
		return nil, errors.New("trainer: empty training set")
	}
	var (
		rng     = rand.New(rand.NewSource(cfg.Seed))
		order   = append([]E(nil), train...)
		history []Logs
		best    = math.Inf(1)
		bestW   any
		wait    int
	)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		res, err := t.TrainEpoch(ctx, epoch, order)
		if err != nil {
			return history, errors.Wrapf(err, "trainer: epoch %d", epoch)
		}
		var logs = Logs{Epoch: epoch, Loss: res.Loss, Accuracy: res.Accuracy}
		if len(val) > 0 {
			vres, err := t.Evaluate(ctx, val)
			if err != nil {
				return history, errors.Wrapf(err, "trainer: epoch %d validation", epoch)
			}
			logs.ValLoss, logs.ValAccuracy, logs.HasVal = vres.Loss, vres.Accuracy, true
		}
		history = append(history, logs)
		log.Infof("epoch %d/%d: loss %.4f accuracy %.4f val_loss %.4f val_accuracy %.4f",
			epoch, cfg.Epochs, logs.Loss, logs.Accuracy, logs.ValLoss, logs.ValAccuracy)

		var stop bool
		for _, cb := range callbacks {
			s, err := cb.OnEpochEnd(ctx, logs)
			if err != nil {
				return history, err
			}
			stop = stop || s
		}

		if es := cfg.EarlyStopping; es != nil {
			if logs.Monitor() < best-es.MinDelta {
				best, wait = logs.Monitor(), 0
				if es.RestoreBest {
					bestW = t.Snapshot()
				}
			} else if wait++; wait >= es.Patience {
				log.Infof("early stopping after epoch %d, best %.4f", epoch, best)
				stop = true
			}
		}
		if stop {
			break
		}
	}
	if bestW != nil {
		t.Restore(bestW)
	}
	return history, nil
}

// Batches cuts set into consecutive batches of size, the last one possibly shorter.
func Batches[E any](set []E, size int) (out [][]E) {
	if size <= 0 {
		size = len(set)
	}
	for i := 0; i < len(set); i += size {
		end := i + size
		if end > len(set) {
			end = len(set)
		}
		out = append(out, set[i:end])
	}
	return
}
