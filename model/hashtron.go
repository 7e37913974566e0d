package model

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/lidbox/datasets"
	"github.com/neurlang/lidbox/datasets/lid"
	"github.com/neurlang/lidbox/hashtron"
	"github.com/neurlang/lidbox/inference"
	"github.com/neurlang/lidbox/layer/full"
	"github.com/neurlang/lidbox/learning"
	"github.com/neurlang/lidbox/net/feedforward"
	"github.com/neurlang/lidbox/parallel"
	"github.com/neurlang/lidbox/trainer"
)

// significance of the sampled training evaluation in percent
const significance = 95

// frameCode is one quantized frame as network input.
type frameCode uint32

func (c frameCode) Feature(n int) uint32 { return uint32(c) }

// hashtronBackend runs one single bit hashtron per language over the
// hyperplane codes of every frame. The score of a language is the fraction
// of frames its hashtron accepts.
type hashtronBackend struct {
	m      *Model
	labels int
	net    feedforward.FeedforwardNetwork
	planes *lid.Hyperplanes
	hp     *learning.HyperParameters
	rng    *rand.Rand

	mut   sync.Mutex
	codes map[*mat.Dense][]uint32
}

func newHashtronBackend(m *Model, dim, labels int) (*hashtronBackend, error) {
	var cfg = m.opts.Hashtron
	planes, err := lid.NewHyperplanes(dim, cfg.Planes, m.opts.Seed)
	if err != nil {
		return nil, err
	}
	var h = &hashtronBackend{
		m:      m,
		labels: labels,
		planes: planes,
		hp:     learning.NewHyperParameters(),
		rng:    rand.New(rand.NewSource(m.opts.Seed)),
		codes:  make(map[*mat.Dense][]uint32),
	}
	h.hp.Seed = m.opts.Seed
	h.net.NewLayerP(labels, 1, cfg.Premodulo)
	h.net.NewCombiner(full.MustNew(labels, 1, 1))
	return h, nil
}

// frames returns the codes of ex, from the cache when ex is in the
// training set.
func (h *hashtronBackend) frames(ex lid.Example) ([]uint32, error) {
	h.mut.Lock()
	c, ok := h.codes[ex.Features]
	h.mut.Unlock()
	if ok {
		return c, nil
	}
	return h.planes.Codes(ex)
}

// cache keeps the codes of set and drops every other entry.
func (h *hashtronBackend) cache(ctx context.Context, set []lid.Example) error {
	h.mut.Lock()
	var old = h.codes
	h.mut.Unlock()
	var codes = make([][]uint32, len(set))
	err := parallel.ForEachErr(ctx, len(set), h.m.opts.EvalThreads, func(ctx context.Context, i int) (err error) {
		var ok bool
		if codes[i], ok = old[set[i].Features]; ok {
			return nil
		}
		codes[i], err = h.planes.Codes(set[i])
		return err
	})
	if err != nil {
		return err
	}
	var keep = make(map[*mat.Dense][]uint32, len(set))
	for i, ex := range set {
		keep[ex.Features] = codes[i]
	}
	h.mut.Lock()
	h.codes = keep
	h.mut.Unlock()
	return nil
}

func (h *hashtronBackend) cached() int {
	h.mut.Lock()
	defer h.mut.Unlock()
	return len(h.codes)
}

// loss counts the languages whose hashtron disagrees with the one-hot target.
func (h *hashtronBackend) loss(label int) func(feedforward.FeedforwardNetworkInput) uint32 {
	return func(out feedforward.FeedforwardNetworkInput) (d uint32) {
		for i := 0; i < h.labels; i++ {
			if (out.Feature(i) != 0) != (i == label) {
				d++
			}
		}
		return
	}
}

func (h *hashtronBackend) TrainEpoch(ctx context.Context, epoch int, train []lid.Example) (trainer.Result, error) {
	var threads = h.m.opts.EvalThreads
	if err := h.cache(ctx, train); err != nil {
		return trainer.Result{}, err
	}
	evaluate := trainer.NewEvaluateFunc(len(train), significance,
		func(ctx context.Context, portion int, hs trainer.EvaluateFuncHasher) (int, error) {
			probs, err := predictAll(ctx, h, train[:portion], threads)
			if err != nil {
				return 0, err
			}
			var ok int
			for i, p := range probs {
				best := Argmax(p)
				hs.MustPutUint16(i, uint16(best))
				if best == train[i].Label {
					ok++
				}
			}
			return 100 * ok / portion, nil
		})
	tally := func(ctx context.Context, worst int, t *datasets.Tally) error {
		return parallel.ForEachErr(ctx, len(train), threads, func(ctx context.Context, i int) error {
			codes, err := h.frames(train[i])
			if err != nil {
				return err
			}
			loss := h.loss(train[i].Label)
			for _, c := range codes {
				h.net.Tally(frameCode(c), worst, t, loss)
			}
			return nil
		})
	}
	worst := trainer.NewTrainWorstFunc(&h.net, h.hp, h.m.opts.Hashtron.MaxFeatures, tally)
	loop := trainer.NewLoopFunc(&h.net, h.rng, h.m.opts.Hashtron.Rounds, evaluate, worst)
	success, err := loop(ctx)
	if err != nil {
		return trainer.Result{}, err
	}
	log.Debugf("epoch %d: sampled training success %d%%", epoch, success)
	return h.Evaluate(ctx, train)
}

func (h *hashtronBackend) Evaluate(ctx context.Context, set []lid.Example) (trainer.Result, error) {
	probs, err := predictAll(ctx, h, set, h.m.opts.EvalThreads)
	if err != nil {
		return trainer.Result{}, err
	}
	return score(set, probs), nil
}

// votes returns the fraction of frames every language hashtron accepts.
func (h *hashtronBackend) votes(codes []uint32) []float64 {
	var out = make([]float64, h.labels)
	var inputs = make([]uint32, len(codes))
	for i := range out {
		tron := h.net.GetHashtron(i)
		if tron.Len() == 0 {
			continue
		}
		h.net.Inputs(i, codes, inputs)
		out[i] = inference.Votes(inputs, inference.Program(tron.Program()))
	}
	return out
}

func (h *hashtronBackend) predict(ex lid.Example) ([]float64, error) {
	codes, err := h.frames(ex)
	if err != nil {
		return nil, err
	}
	p := h.votes(codes)
	var sum float64
	for _, v := range p {
		sum += v
	}
	for i := range p {
		if sum == 0 {
			p[i] = 1 / float64(len(p))
		} else {
			p[i] /= sum
		}
	}
	return p, nil
}

func (h *hashtronBackend) Snapshot() any {
	var out = make([]hashtron.Hashtron, h.labels)
	for i := range out {
		tron := h.net.GetHashtron(i)
		c, _ := hashtron.New(tron.Program(), tron.Bits())
		out[i] = *c
	}
	return out
}

func (h *hashtronBackend) Restore(snapshot any) {
	for i, tron := range snapshot.([]hashtron.Hashtron) {
		*h.net.GetHashtron(i) = tron
	}
}

func (h *hashtronBackend) save(path string) error {
	return h.net.WriteCompressedWeightsToFile(path)
}

func (h *hashtronBackend) load(path string) error {
	return h.net.ReadCompressedWeightsFromFile(path)
}

// export writes every language hashtron as a Go declaration.
func (h *hashtronBackend) export(w io.Writer, pkg string, labels []string) error {
	if _, err := fmt.Fprintf(w, "package %s\n\n// Code generated by lidbox export. DO NOT EDIT.\n\n", pkg); err != nil {
		return errors.Wrap(err, "model")
	}
	fmt.Fprintf(w, "const premodulo uint32 = %d\n\n", h.m.opts.Hashtron.Premodulo)
	for i, label := range labels {
		b, err := h.net.GetHashtron(i).BytesBuffer(exportName(i))
		if err != nil {
			return errors.Wrapf(err, "model: label %s", label)
		}
		fmt.Fprintf(w, "// %s\n", label)
		if _, err := w.Write(b.Bytes()); err != nil {
			return errors.Wrap(err, "model")
		}
		fmt.Fprintln(w)
	}
	return nil
}

func exportName(i int) string {
	return fmt.Sprintf("L%d", i)
}
