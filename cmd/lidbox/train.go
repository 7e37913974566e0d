package main

import (
	"context"
	"fmt"
	"os"

	"github.com/maruel/subcommands"
	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/datasets/lid"
	"github.com/neurlang/lidbox/model"
	"github.com/neurlang/lidbox/summary"
	"github.com/neurlang/lidbox/trainer"
)

var cmdTrain = &subcommands.Command{
	UsageLine: "train -config <file> [-model-id <id>] [-resume] [-no-save-model]",
	ShortDesc: "trains the classifier on the extracted features",
	LongDesc: `Trains the configured backend on the training split, validating on the
validation split when it exists. Each epoch writes scalar summaries and a
checkpoint named by epoch and validation loss.`,
	CommandRun: func() subcommands.CommandRun {
		c := &trainRun{}
		c.registerFlags()
		c.Flags.StringVar(&c.modelID, "model-id", "", "model identifier, defaults to the experiment model name")
		c.Flags.BoolVar(&c.resume, "resume", false, "continue from the best checkpoint")
		c.Flags.BoolVar(&c.noSave, "no-save-model", false, "do not write checkpoints")
		return c
	},
}

type trainRun struct {
	commonRun
	modelID string
	resume  bool
	noSave  bool
}

func (c *trainRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx, cfg, stop, err := c.setup()
	if err != nil {
		return done(err)
	}
	defer stop()
	return done(c.train(ctx, cfg))
}

func (c *trainRun) train(ctx context.Context, cfg *config.Config) error {
	meta, train, err := loadSplit(ctx, cfg, config.Training)
	if err != nil {
		return err
	}
	var val []lid.Example
	if cfg.Datasets.Validation != "" {
		if _, val, err = loadSplit(ctx, cfg, config.Validation); err != nil {
			return err
		}
	}

	opts := model.OptionsFromConfig(cfg)
	if c.noSave {
		opts.CheckpointDir = ""
	}
	if opts.CheckpointDir != "" {
		if err := os.MkdirAll(opts.CheckpointDir, 0o755); err != nil {
			return errors.Wrap(err, "checkpoints")
		}
	}
	w, err := summary.NewRun(cfg.SummaryDir())
	if err != nil {
		return err
	}
	defer w.Close()
	opts.Summary = w
	log.Infof("writing summaries to %s", w.Dir())

	id := c.modelID
	if id == "" {
		id = cfg.Model.Name
	}
	m, err := model.New(id, opts)
	if err != nil {
		return err
	}
	if err := m.Prepare(meta); err != nil {
		return err
	}
	if c.resume {
		path, err := trainer.Resume(cfg.CheckpointDir(), m.LoadWeights)
		switch {
		case errors.Cause(err) == trainer.ErrNoCheckpoints:
			log.Warningf("no checkpoints in %s, training from scratch", cfg.CheckpointDir())
		case err != nil:
			return err
		default:
			log.Noticef("resumed from %s", path)
		}
	}

	history, err := m.Fit(ctx, train, val)
	if err != nil {
		return err
	}
	for _, l := range history {
		if l.HasVal {
			fmt.Printf("epoch %d\tloss %.4f\taccuracy %.4f\tval_loss %.4f\tval_accuracy %.4f\n",
				l.Epoch, l.Loss, l.Accuracy, l.ValLoss, l.ValAccuracy)
		} else {
			fmt.Printf("epoch %d\tloss %.4f\taccuracy %.4f\n", l.Epoch, l.Loss, l.Accuracy)
		}
	}
	return nil
}
