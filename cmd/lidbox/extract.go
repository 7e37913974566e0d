package main

import (
	"context"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/maruel/subcommands"
	"github.com/pkg/errors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/datasets/lid"
)

var cmdExtract = &subcommands.Command{
	UsageLine: "extract -config <file> [-split <name>]",
	ShortDesc: "extracts features of the dataset splits into shards",
	LongDesc: `Reads the id2path and id2label manifests of every configured split,
loads, resamples, augments and chunks the audio, computes the features and
writes compressed shards with a meta.yaml into the cache directory.`,
	CommandRun: func() subcommands.CommandRun {
		c := &extractRun{}
		c.registerFlags()
		c.Flags.StringVar(&c.split, "split", "", "extract only this split")
		return c
	},
}

type extractRun struct {
	commonRun
	split string
}

func (c *extractRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx, cfg, stop, err := c.setup()
	if err != nil {
		return done(err)
	}
	defer stop()
	return done(extract(ctx, cfg, c.split))
}

func extract(ctx context.Context, cfg *config.Config, only string) error {
	vocab, err := vocabulary(cfg)
	if err != nil {
		return err
	}
	var splits = cfg.Datasets.Splits()
	if only != "" {
		if _, err := cfg.Datasets.Dir(only); err != nil {
			return usageError(err.Error())
		}
		splits = []string{only}
	}
	for _, split := range splits {
		dir, _ := cfg.Datasets.Dir(split)
		utts, err := lid.ReadManifest(dir)
		if err != nil {
			return err
		}
		opts, err := extractOptions(cfg, split)
		if err != nil {
			return err
		}

		p := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
		bar := p.AddBar(int64(len(utts)),
			mpb.PrependDecorators(
				decor.Name(split+": "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)
		meta, err := lid.Extract(ctx, cfg.FeatureDir(split), utts, vocab, opts, func() { bar.Increment() })
		if err != nil {
			bar.Abort(false)
			p.Wait()
			return errors.Wrapf(err, "split %s", split)
		}
		p.Wait()
		size := int64(meta.NumExamples) * int64(meta.FeatureDim) * 2
		log.Noticef("%s: %s examples, %s of features in %d shards", split,
			humanize.Comma(int64(meta.NumExamples)), humanize.Bytes(uint64(size)), len(meta.Shards))
	}
	return nil
}

// extractOptions builds the extraction of split, loading the noise of
// augmentations which apply to it.
func extractOptions(cfg *config.Config, split string) (lid.ExtractOptions, error) {
	var opts = lid.ExtractOptions{
		SampleRate:    cfg.Audio.SampleRate,
		ChunkSeconds:  cfg.Audio.ChunkSeconds,
		MaxPadSeconds: cfg.Audio.MaxPadSeconds,
		Copies:        1,
		Features:      cfg.Features.Config,
		Extractor:     cfg.Features.Extractor,
		Kwargs:        cfg.Features.Kwargs,
		BatchSize:     cfg.Features.BatchSize,
		ShardSize:     cfg.Features.ShardSize,
		Seed:          cfg.Model.Seed,
	}
	for _, a := range cfg.Audio.Augment {
		if !a.Applies(split) {
			continue
		}
		if a.Seed != 0 {
			opts.Seed = a.Seed
		}
		var augs []lid.Augmentation
		switch a.Type {
		case config.AugmentResampling:
			augs = []lid.Augmentation{lid.SpeedAugmentation{Min: a.Range[0], Max: a.Range[1]}}
		case config.AugmentNoise:
			var ranges []lid.SNRRange
			for _, d := range a.SNR {
				ranges = append(ranges, lid.SNRRange{Type: d.Type, DBMin: d.DBMin, DBMax: d.DBMax})
			}
			noise, err := lid.NewNoiseAugmentation(a.NoiseDir, cfg.Audio.SampleRate, ranges)
			if err != nil {
				return opts, err
			}
			augs = noise.Mixes()
		}
		for i := 0; i < a.Copies; i++ {
			opts.Augment = append(opts.Augment, augs...)
		}
	}
	return opts, nil
}

// vocabulary reads the experiment vocabulary, creating it from the labels of
// the training manifest on first use.
func vocabulary(cfg *config.Config) (*lid.Vocabulary, error) {
	path := vocabularyPath(cfg)
	if _, err := os.Stat(path); err == nil {
		return lid.ReadVocabulary(path)
	}
	utts, err := lid.ReadManifest(cfg.Datasets.Training)
	if err != nil {
		return nil, err
	}
	var seen = make(map[string]bool)
	var labels []string
	for _, u := range utts {
		if !seen[u.Label] {
			seen[u.Label] = true
			labels = append(labels, u.Label)
		}
	}
	sort.Strings(labels)
	vocab, err := lid.NewVocabulary(labels)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "vocabulary")
	}
	if err := vocab.WriteFile(path); err != nil {
		return nil, err
	}
	log.Infof("wrote %d labels to %s", vocab.Len(), path)
	return vocab, nil
}
