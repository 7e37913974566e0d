package learning

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/neurlang/lidbox/datasets"
)

func randomDataset(n int, seed int64) datasets.Dataset {
	var rng = rand.New(rand.NewSource(seed))
	var d datasets.Dataset
	d.Init()
	for len(d) < n {
		d[rng.Uint32()] = rng.Intn(2) == 1
	}
	return d
}

func TestTraining(t *testing.T) {
	testCases := []struct {
		name string
		data datasets.Dataset
	}{
		{"empty", datasets.Dataset{}},
		{"only false", datasets.Dataset{1: false, 2: false, 99: false}},
		{"only true", datasets.Dataset{1: true, 2: true, 99: true}},
		{"tiny", datasets.Dataset{1: true, 2: false}},
		{"random 300", randomDataset(300, 1)},
		{"random 2000", randomDataset(2000, 2)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHyperParameters()
			h.Seed = 42
			h.Threads = 4
			tron, err := h.Training(context.Background(), tc.data)
			if err != nil {
				t.Fatal(err)
			}
			for k, v := range tc.data {
				if tron.Bool(k) != v {
					t.Fatalf("feature %d: got %v, want %v (program size %d)", k, !v, v, tron.Len())
				}
			}
		})
	}
}

func TestTrainingBalanced(t *testing.T) {
	d := datasets.Dataset{5: true, 6: true, 7: true, 8: false}
	h := &HyperParameters{Seed: 7, Balance: true}
	tron, err := h.Training(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range d {
		if tron.Bool(k) != v {
			t.Errorf("feature %d misclassified", k)
		}
	}
}

func TestTrainingCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHyperParameters()
	if _, err := h.Training(ctx, randomDataset(100, 3)); err == nil {
		t.Errorf("cancelled training succeeded")
	}

	h = NewHyperParameters()
	h.Deadline = time.Nanosecond
	if _, err := h.Training(context.Background(), randomDataset(5000, 4)); err == nil {
		t.Errorf("training ignored the deadline")
	}
}

func BenchmarkTraining(b *testing.B) {
	d := randomDataset(500, 5)
	for i := 0; i < b.N; i++ {
		h := NewHyperParameters()
		h.Seed = int64(i + 1)
		if _, err := h.Training(context.Background(), d); err != nil {
			b.Fatal(err)
		}
	}
}
