package trainer

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/datasets"
	"github.com/neurlang/lidbox/layer/full"
	"github.com/neurlang/lidbox/learning"
	"github.com/neurlang/lidbox/net/feedforward"
	"github.com/neurlang/lidbox/summary"
)

// scripted returns the validation losses in order; weights are the epoch number.
type scripted struct {
	losses  []float64
	epoch   int
	weights int
}

func (s *scripted) TrainEpoch(ctx context.Context, epoch int, train []int) (Result, error) {
	s.epoch = epoch
	s.weights = epoch
	return Result{Loss: 1, Accuracy: 0.5}, nil
}

func (s *scripted) Evaluate(ctx context.Context, set []int) (Result, error) {
	return Result{Loss: s.losses[s.epoch-1], Accuracy: 0.5}, nil
}

func (s *scripted) Snapshot() any        { return s.weights }
func (s *scripted) Restore(snapshot any) { s.weights = snapshot.(int) }

func TestFitEarlyStopping(t *testing.T) {
	s := &scripted{losses: []float64{1.0, 0.5, 0.6, 0.55, 0.7, 0.1}}
	cfg := FitConfig{Epochs: 6, EarlyStopping: &EarlyStopping{Patience: 2, RestoreBest: true}}
	history, err := Fit[int](context.Background(), s, []int{1, 2, 3}, []int{4}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 4 {
		t.Fatalf("ran %d epochs, want 4", len(history))
	}
	if s.weights != 2 {
		t.Errorf("restored weights of epoch %d, want 2", s.weights)
	}
	if !history[0].HasVal || history[1].Monitor() != 0.5 {
		t.Errorf("unexpected logs %+v", history[1])
	}
}

func TestFitCallbacks(t *testing.T) {
	dir := t.TempDir()
	s := &scripted{losses: []float64{0.9, 0.8, 0.85}}
	var saved []string
	ckpt := &Checkpoint{Dir: dir, Ext: "dense", SaveBestOnly: true, Save: func(path string) error {
		saved = append(saved, filepath.Base(path))
		return os.WriteFile(path, nil, 0o644)
	}}
	w, err := summary.NewWriter(filepath.Join(dir, "summary"))
	if err != nil {
		t.Fatal(err)
	}
	var calls int
	counter := CallbackFunc(func(ctx context.Context, logs Logs) (bool, error) {
		calls++
		return false, nil
	})
	if _, err := Fit[int](context.Background(), s, []int{1}, []int{2}, FitConfig{Epochs: 3}, ckpt, Scalars(w), counter); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("callback ran %d times", calls)
	}
	want := []string{"epoch01_loss0.90.dense", "epoch02_loss0.80.dense"}
	if len(saved) != 2 || saved[0] != want[0] || saved[1] != want[1] {
		t.Errorf("saved %v, want %v", saved, want)
	}
	best, err := BestCheckpoint(dir)
	if err != nil || filepath.Base(best) != want[1] {
		t.Errorf("best checkpoint %q %v", best, err)
	}
	points, err := summary.ReadScalars(w.Dir())
	if err != nil || len(points) != 12 {
		t.Errorf("read %d scalars: %v", len(points), err)
	}

	stop := CallbackFunc(func(ctx context.Context, logs Logs) (bool, error) { return true, nil })
	history, _ := Fit[int](context.Background(), s, []int{1}, nil, FitConfig{Epochs: 3}, stop)
	if len(history) != 1 || history[0].HasVal {
		t.Errorf("stop callback ignored: %+v", history)
	}

	if _, err := Fit[int](context.Background(), s, nil, nil, FitConfig{Epochs: 1}); err == nil {
		t.Errorf("empty training set accepted")
	}
}

func TestCheckpointNames(t *testing.T) {
	for _, tc := range []struct {
		name string
		loss float64
		ok   bool
	}{
		{"epoch01_loss0.52.dense", 0.52, true},
		{"/x/epoch12_loss12.00.hashtron", 12, true},
		{"epoch03_loss1.dense", 1, true},
		{"notes.txt", 0, false},
		{"epoch01_lossx.dense", 0, false},
	} {
		loss, err := LossFromCheckpointName(tc.name)
		if (err == nil) != tc.ok || (tc.ok && loss != tc.loss) {
			t.Errorf("LossFromCheckpointName(%q) = %v, %v", tc.name, loss, err)
		}
	}

	dir := t.TempDir()
	if _, err := BestCheckpoint(dir); errors.Cause(err) != ErrNoCheckpoints {
		t.Errorf("empty dir: %v", err)
	}
	if _, err := Resume(filepath.Join(dir, "missing"), nil); errors.Cause(err) != ErrNoCheckpoints {
		t.Errorf("missing dir: %v", err)
	}
	for _, n := range []string{"epoch01_loss0.70.dense", "epoch02_loss0.40.dense", "epoch03_loss0.45.dense", "readme"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var loaded string
	path, err := Resume(dir, func(p string) error { loaded = p; return nil })
	if err != nil || loaded != path || filepath.Base(path) != "epoch02_loss0.40.dense" {
		t.Errorf("resumed %q %q %v", path, loaded, err)
	}
}

func TestSampleSize(t *testing.T) {
	for _, tc := range []struct {
		n    int
		sig  byte
		want int
	}{
		{0, 95, 0}, {1, 95, 1}, {100, 100, 100}, {10, 95, 10},
	} {
		if got := sampleSize(tc.n, tc.sig); got > tc.want || (tc.n > 0 && got < 1) {
			t.Errorf("sampleSize(%d, %d) = %d", tc.n, tc.sig, got)
		}
	}
	if got := sampleSize(1000000, 95); got < 300 || got > 500 {
		t.Errorf("sampleSize(1e6, 95) = %d, want about 384", got)
	}
}

type code uint32

func (c code) Feature(n int) uint32 { return uint32(c) }

func TestRetrainLoop(t *testing.T) {
	// two cells must answer the low bit and the second bit of the input
	var net feedforward.FeedforwardNetwork
	net.NewLayerP(2, 1, 0)
	net.NewCombiner(full.MustNew(2, 1, 1))
	inputs := make([]code, 64)
	for i := range inputs {
		inputs[i] = code(i * 7)
	}
	target := func(in code, cell int) bool { return (uint32(in)>>uint(cell))&1 == 1 }
	loss := func(in code) func(feedforward.FeedforwardNetworkInput) uint32 {
		return func(out feedforward.FeedforwardNetworkInput) (d uint32) {
			for cell := 0; cell < 2; cell++ {
				if (out.Feature(cell) != 0) != target(in, cell) {
					d++
				}
			}
			return
		}
	}

	evaluate := NewEvaluateFunc(len(inputs), 100, func(ctx context.Context, portion int, h EvaluateFuncHasher) (int, error) {
		var ok int
		for i := 0; i < portion; i++ {
			out := net.Infer(inputs[i])
			h.MustPutUint16(i, uint16(out.Feature(0)<<1|out.Feature(1)))
			if loss(inputs[i])(out) == 0 {
				ok++
			}
		}
		return 100 * ok / portion, nil
	})
	hp := learning.NewHyperParameters()
	hp.Seed = 1
	worst := NewTrainWorstFunc(&net, hp, 0, func(ctx context.Context, worst int, tally *datasets.Tally) error {
		for _, in := range inputs {
			net.Tally(in, worst, tally, loss(in))
		}
		return nil
	})
	before, _, err := evaluate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	loop := NewLoopFunc(&net, rand.New(rand.NewSource(1)), 4, evaluate, worst)
	after, err := loop(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if after != 100 || after < before {
		t.Errorf("success %d%% -> %d%%, want 100%%", before, after)
	}
	for cell := 0; cell < 2; cell++ {
		if tron := net.GetHashtron(cell); tron.Len() > 0 && tron.LenQ() == 0 {
			t.Errorf("hashtron %d trained without a quaternary filter", cell)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	net.Forget()
	if _, err := loop(ctx); err == nil {
		t.Errorf("cancelled loop returned no error")
	}
}
