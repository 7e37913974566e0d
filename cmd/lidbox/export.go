package main

import (
	"bufio"
	"os"

	"github.com/maruel/subcommands"
	"github.com/pkg/errors"
)

var cmdExport = &subcommands.Command{
	UsageLine: "export -config <file> -o <file.go> [-package <name>] [-checkpoint <path>]",
	ShortDesc: "compiles a hashtron checkpoint into Go source",
	LongDesc:  "Writes the programs of a hashtron checkpoint as a Go source file with the label order and the premodulo constant.",
	CommandRun: func() subcommands.CommandRun {
		c := &exportRun{}
		c.registerFlags()
		c.Flags.StringVar(&c.out, "o", "", "output Go file")
		c.Flags.StringVar(&c.pkg, "package", "main", "package name of the output")
		c.Flags.StringVar(&c.checkpoint, "checkpoint", "", "checkpoint file, defaults to the best one")
		return c
	},
}

type exportRun struct {
	commonRun
	out        string
	pkg        string
	checkpoint string
}

func (c *exportRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if c.out == "" {
		return done(usageError("-o is required"))
	}
	_, cfg, stop, err := c.setup()
	if err != nil {
		return done(err)
	}
	defer stop()
	m, err := loadModel(cfg, c.checkpoint)
	if err != nil {
		return done(err)
	}
	f, err := os.Create(c.out)
	if err != nil {
		return done(errors.Wrap(err, "export"))
	}
	w := bufio.NewWriter(f)
	if err := m.Export(w, c.pkg); err != nil {
		f.Close()
		return done(err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return done(errors.Wrap(err, "export"))
	}
	return done(errors.Wrap(f.Close(), "export"))
}
