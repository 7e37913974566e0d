package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/maruel/subcommands"
	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/audio"
	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/datasets/lid"
	"github.com/neurlang/lidbox/model"
)

var cmdPredict = &subcommands.Command{
	UsageLine: "predict -config <file> -list <file> [-checkpoint <path>]",
	ShortDesc: "predicts the language of audio files",
	LongDesc: `Reads audio file paths from the list, one per line or a glob pattern,
chunks and featurizes every file like the training split and prints the
chunk averaged class probabilities with the most likely label.`,
	CommandRun: func() subcommands.CommandRun {
		c := &predictRun{}
		c.registerFlags()
		c.Flags.StringVar(&c.list, "list", "", "file listing the audio paths")
		c.Flags.StringVar(&c.checkpoint, "checkpoint", "", "checkpoint file, defaults to the best one")
		return c
	},
}

type predictRun struct {
	commonRun
	list       string
	checkpoint string
}

func (c *predictRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if c.list == "" {
		return done(usageError("-list is required"))
	}
	ctx, cfg, stop, err := c.setup()
	if err != nil {
		return done(err)
	}
	defer stop()
	return done(c.predict(ctx, cfg))
}

func (c *predictRun) predict(ctx context.Context, cfg *config.Config) error {
	paths, err := lid.LoadAudioFilePaths(c.list)
	if err != nil {
		return err
	}
	m, err := loadModel(cfg, c.checkpoint)
	if err != nil {
		return err
	}
	opts, err := extractOptions(cfg, "")
	if err != nil {
		return err
	}
	labels := m.Vocabulary().Labels()
	for _, path := range paths {
		probs, err := predictFile(ctx, m, path, &opts)
		if errors.Cause(err) == audio.ErrTooShort {
			log.Warningf("skipping %v", err)
			continue
		}
		if err != nil {
			return err
		}
		var cols = make([]string, len(probs))
		for i, p := range probs {
			cols[i] = fmt.Sprintf("%s:%.4f", labels[i], p)
		}
		fmt.Printf("%s\t%s\t%s\n", path, labels[model.Argmax(probs)], strings.Join(cols, " "))
	}
	return nil
}

// predictFile averages the class probabilities over the chunks of one file.
func predictFile(ctx context.Context, m *model.Model, path string, opts *lid.ExtractOptions) ([]float64, error) {
	u := lid.Utterance{ID: path, Path: path}
	ids, chunks, err := lid.LoadChunks(u, opts)
	if err != nil {
		return nil, err
	}
	feats, err := lid.Features(ctx, chunks, opts)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	var set = make([]lid.Example, len(feats))
	for i := range feats {
		set[i] = lid.Example{ID: ids[i], Label: m.Vocabulary().Len(), Features: feats[i]}
	}
	probs, err := m.Predict(ctx, set)
	if err != nil {
		return nil, err
	}
	var mean = make([]float64, m.Vocabulary().Len())
	for _, p := range probs {
		for j := range mean {
			mean[j] += p[j] / float64(len(probs))
		}
	}
	return mean, nil
}
