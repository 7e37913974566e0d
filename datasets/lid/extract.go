package lid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/lidbox/audio"
	"github.com/neurlang/lidbox/datasets/stream"
	"github.com/neurlang/lidbox/features"
	"github.com/neurlang/lidbox/parallel"
)

// ExtractOptions configure Extract.
type ExtractOptions struct {
	SampleRate    int
	ChunkSeconds  float64
	MaxPadSeconds float64

	// Augment derives Copies extra utterances each, before chunking.
	Augment []Augmentation
	Copies  int
	Seed    int64

	// Features runs the cascade unless Extractor names an utterance extractor.
	Features  features.Config
	Extractor string
	Kwargs    features.Kwargs

	BatchSize int
	ShardSize int
	Workers   int
}

// FeatureType names the features for Meta.
func (o *ExtractOptions) FeatureType() string {
	if o.Extractor != "" {
		return o.Extractor
	}
	return o.Features.Type
}

// chunk is one fixed length piece of an utterance.
type chunk struct {
	id      string
	label   int
	samples []float64
}

// LoadChunks loads, resamples, augments and chunks one utterance. A signal
// too short for a single chunk returns an error with cause audio.ErrTooShort.
func LoadChunks(u Utterance, opts *ExtractOptions) (ids []string, chunks [][]float64, err error) {
	sig, err := audio.Load(u.Path)
	if err != nil {
		return nil, nil, err
	}
	if sig, err = audio.Resample(sig, opts.SampleRate); err != nil {
		return nil, nil, errors.Wrap(err, u.Path)
	}
	var variants = []string{u.ID}
	var signals = []audio.Signal{sig}
	var rng = utteranceRand(opts.Seed, u.ID)
	for _, a := range opts.Augment {
		for c := 0; c < opts.Copies; c++ {
			id, aug, err := a.Augment(rng, u.ID, sig)
			if err != nil {
				return nil, nil, errors.Wrap(err, u.Path)
			}
			variants, signals = append(variants, id), append(signals, aug)
		}
	}
	for i, s := range signals {
		for j, c := range audio.Chunk(s, opts.ChunkSeconds, opts.MaxPadSeconds) {
			ids = append(ids, fmt.Sprintf("%s-%03d", variants[i], j))
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, nil, errors.Wrapf(audio.ErrTooShort, "%s is %.2fs", u.Path, sig.Duration())
	}
	return ids, chunks, nil
}

// Features computes the feature matrices of equally sampled signals.
func Features(ctx context.Context, signals [][]float64, opts *ExtractOptions) ([]*mat.Dense, error) {
	if opts.Extractor == "" {
		var rates = make([]int, len(signals))
		for i := range rates {
			rates[i] = opts.SampleRate
		}
		cfg := opts.Features
		cfg.Workers = opts.Workers
		return features.Extract(ctx, signals, rates, cfg)
	}
	var out = make([]*mat.Dense, len(signals))
	err := parallel.ForEachErr(ctx, len(signals), opts.Workers, func(ctx context.Context, i int) (err error) {
		out[i], err = features.ExtractUtterance(signals[i], opts.SampleRate, opts.Extractor, opts.Kwargs)
		if err == nil && !features.Finite(out[i]) {
			err = features.ErrNonFinite
		}
		return errors.Wrapf(err, "signal %d", i)
	})
	return out, err
}

// Extract turns utterances into feature shards in dir and returns the
// written metadata. Utterances with labels outside vocab and utterances too
// short for one chunk are skipped. progress is called after every utterance.
func Extract(ctx context.Context, dir string, utts []Utterance, vocab *Vocabulary, opts ExtractOptions, progress func()) (*Meta, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.ShardSize <= 0 {
		opts.ShardSize = 1000
	}
	if opts.Workers <= 0 {
		opts.Workers = parallel.Threads()
	}
	if opts.Extractor == "" {
		opts.Features.Defaults()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "lid")
	}

	var meta = &Meta{
		FeatureType: opts.FeatureType(),
		SampleRate:  opts.SampleRate,
		Labels:      vocab.Labels(),
		Extractor:   opts.Extractor,
		Kwargs:      opts.Kwargs,
	}
	if opts.Extractor == "" {
		cfg := opts.Features
		meta.Features = &cfg
	}
	var w = &shardRotator{dir: dir, size: opts.ShardSize, meta: meta}
	defer w.abort()

	known := stream.Filter(stream.FromSlice(utts), func(u Utterance) bool {
		if vocab.Lookup(u.Label) == vocab.Len() {
			log.Warningf("skipping %s with unknown label %q", u.ID, u.Label)
			if progress != nil {
				progress()
			}
			return false
		}
		return true
	})
	loaded := stream.Map(known, opts.Workers, func(ctx context.Context, u Utterance) ([]chunk, error) {
		ids, samples, err := LoadChunks(u, &opts)
		if errors.Cause(err) == audio.ErrTooShort {
			log.Infof("skipping: %v", err)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var out = make([]chunk, len(ids))
		for i := range ids {
			out[i] = chunk{id: ids[i], label: vocab.Lookup(u.Label), samples: samples[i]}
		}
		return out, nil
	})

	var pending []chunk
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		var signals = make([][]float64, len(pending))
		for i, c := range pending {
			signals[i] = c.samples
		}
		feats, err := Features(ctx, signals, &opts)
		if err != nil {
			return err
		}
		for i, c := range pending {
			if err := w.write(Example{ID: c.id, Label: c.label, Features: feats[i]}); err != nil {
				return err
			}
		}
		pending = pending[:0]
		return nil
	}
	err := stream.ForEach(ctx, loaded, func(chunks []chunk) error {
		pending = append(pending, chunks...)
		if progress != nil {
			progress()
		}
		if len(pending) >= opts.BatchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err == nil {
		err = w.close()
	}
	if err != nil {
		return nil, err
	}
	if meta.NumExamples == 0 {
		return nil, errors.Errorf("lid: no examples extracted into %s", dir)
	}
	if err := WriteMeta(dir, meta); err != nil {
		return nil, err
	}
	log.Infof("extracted %d examples of dim %d into %d shards in %s", meta.NumExamples, meta.FeatureDim, len(meta.Shards), dir)
	return meta, nil
}

// shardRotator starts a new shard every size examples and records them in meta.
type shardRotator struct {
	dir  string
	size int
	meta *Meta
	cur  *ShardWriter
}

func (r *shardRotator) write(ex Example) error {
	_, dim := ex.Features.Dims()
	if r.meta.FeatureDim == 0 {
		r.meta.FeatureDim = dim
	} else if dim != r.meta.FeatureDim {
		return errors.Errorf("lid: %s has feature dim %d, want %d", ex.ID, dim, r.meta.FeatureDim)
	}
	if r.cur != nil && r.cur.Count() >= r.size {
		if err := r.close(); err != nil {
			return err
		}
	}
	if r.cur == nil {
		name := fmt.Sprintf("shard-%05d.msgpack.zst", len(r.meta.Shards))
		w, err := NewShardWriter(filepath.Join(r.dir, name))
		if err != nil {
			return err
		}
		r.cur = w
		r.meta.Shards = append(r.meta.Shards, name)
	}
	if err := r.cur.Write(ex); err != nil {
		return err
	}
	r.meta.NumExamples++
	return nil
}

func (r *shardRotator) close() error {
	if r.cur == nil {
		return nil
	}
	err := r.cur.Close()
	r.cur = nil
	return err
}

func (r *shardRotator) abort() {
	if r.cur != nil {
		r.cur.Close()
	}
}
