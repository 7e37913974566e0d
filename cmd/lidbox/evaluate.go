package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maruel/subcommands"

	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/model"
)

const (
	evalLoss            = "loss"
	evalConfusionMatrix = "confusion-matrix"
)

var cmdEvaluate = &subcommands.Command{
	UsageLine: "evaluate -config <file> [-type loss|confusion-matrix] [-split <name>] [-checkpoint <path>]",
	ShortDesc: "evaluates a checkpoint on an extracted split",
	LongDesc: `Loads the best checkpoint, or the one given, and reports either the loss and
accuracy or a confusion matrix of the split. The confusion matrix is also
saved as a PNG heatmap in the model directory.`,
	CommandRun: func() subcommands.CommandRun {
		c := &evaluateRun{}
		c.registerFlags()
		c.Flags.StringVar(&c.kind, "type", evalLoss, "loss or confusion-matrix")
		c.Flags.StringVar(&c.split, "split", config.Test, "dataset split")
		c.Flags.StringVar(&c.checkpoint, "checkpoint", "", "checkpoint file, defaults to the best one")
		return c
	},
}

type evaluateRun struct {
	commonRun
	kind       string
	split      string
	checkpoint string
}

func (c *evaluateRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if c.kind != evalLoss && c.kind != evalConfusionMatrix {
		return done(usageError(fmt.Sprintf("unknown evaluation type %q", c.kind)))
	}
	ctx, cfg, stop, err := c.setup()
	if err != nil {
		return done(err)
	}
	defer stop()
	return done(c.evaluate(ctx, cfg))
}

func (c *evaluateRun) evaluate(ctx context.Context, cfg *config.Config) error {
	m, err := loadModel(cfg, c.checkpoint)
	if err != nil {
		return err
	}
	_, set, err := loadSplit(ctx, cfg, c.split)
	if err != nil {
		return err
	}
	if c.kind == evalLoss {
		loss, acc, err := m.Evaluate(ctx, set)
		if err != nil {
			return err
		}
		fmt.Printf("loss\t%.4f\naccuracy\t%.4f\n", loss, acc)
		return nil
	}
	cm, err := m.EvaluateConfusionMatrix(ctx, set)
	if err != nil {
		return err
	}
	if err := cm.WriteTable(os.Stdout); err != nil {
		return err
	}
	fmt.Printf("accuracy\t%.4f\n", cm.Accuracy())
	png := filepath.Join(cfg.ModelDir(), "confusion_matrix_"+c.split+".png")
	if err := cm.SavePNG(png); err != nil {
		return err
	}
	log.Noticef("saved %s", png)
	return nil
}

// loadModel prepares the experiment model from the training metadata and
// loads checkpoint, or the best checkpoint when empty.
func loadModel(cfg *config.Config, checkpoint string) (*model.Model, error) {
	meta, err := lidMeta(cfg, config.Training)
	if err != nil {
		return nil, err
	}
	opts := model.OptionsFromConfig(cfg)
	opts.CheckpointDir = ""
	m, err := model.New(cfg.Model.Name, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Prepare(meta); err != nil {
		return nil, err
	}
	if checkpoint == "" {
		if checkpoint, err = model.BestCheckpoint(cfg.CheckpointDir()); err != nil {
			return nil, err
		}
	}
	if err := m.LoadWeights(checkpoint); err != nil {
		return nil, err
	}
	log.Infof("loaded %s", checkpoint)
	return m, nil
}
