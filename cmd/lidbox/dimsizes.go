package main

import (
	"fmt"

	"github.com/maruel/subcommands"

	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/datasets/lid"
)

var cmdDimSizes = &subcommands.Command{
	UsageLine: "dimsizes -config <file> [-split <name>]",
	ShortDesc: "histograms the frame and feature dimensions of a split",
	LongDesc:  "Reads the shards of an extracted split and prints, per feature dimension, how many examples have each size, most common first.",
	CommandRun: func() subcommands.CommandRun {
		c := &dimSizesRun{}
		c.registerFlags()
		c.Flags.StringVar(&c.split, "split", config.Training, "dataset split")
		return c
	},
}

type dimSizesRun struct {
	commonRun
	split string
}

func (c *dimSizesRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx, cfg, stop, err := c.setup()
	if err != nil {
		return done(err)
	}
	defer stop()
	dir := cfg.FeatureDir(c.split)
	meta, err := lid.ReadMeta(dir)
	if err != nil {
		return done(err)
	}
	sizes, err := lid.CountDimSizes(ctx, lid.ReadShards(meta.ShardPaths(dir)), 0, 2)
	if err != nil {
		return done(err)
	}
	for d, name := range []string{"frames", "features"} {
		fmt.Printf("%s:\n", name)
		for _, s := range sizes[d] {
			fmt.Printf("\t%d\t%d\n", s.Size, s.Count)
		}
	}
	return exitOK
}
