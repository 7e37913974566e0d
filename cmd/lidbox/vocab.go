package main

import (
	"fmt"

	"github.com/maruel/subcommands"
)

var cmdVocab = &subcommands.Command{
	UsageLine: "vocab -config <file>",
	ShortDesc: "prints the label vocabulary",
	LongDesc:  "Prints every label with its one-hot index, creating the vocabulary from the training manifest when missing.",
	CommandRun: func() subcommands.CommandRun {
		c := &vocabRun{}
		c.registerFlags()
		return c
	},
}

type vocabRun struct {
	commonRun
}

func (c *vocabRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	_, cfg, stop, err := c.setup()
	if err != nil {
		return done(err)
	}
	defer stop()
	vocab, err := vocabulary(cfg)
	if err != nil {
		return done(err)
	}
	for i, l := range vocab.Labels() {
		fmt.Printf("%d\t%s\n", i, l)
	}
	return exitOK
}
