package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"

	"github.com/maruel/subcommands"
	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/datasets/lid"
	"github.com/neurlang/lidbox/datasets/stream"
)

var log = logging.MustGetLogger("lidbox")

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const logFormat = `%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v++
	}
	return nil
}

func (v verbosity) level() logging.Level {
	switch {
	case v <= 0:
		return logging.WARNING
	case v == 1:
		return logging.INFO
	}
	return logging.DEBUG
}

// commonRun holds the flags shared by every subcommand.
type commonRun struct {
	subcommands.CommandRunBase
	configPath string
	verbose    verbosity
	cpuprofile string
}

func (c *commonRun) registerFlags() {
	c.Flags.StringVar(&c.configPath, "config", "", "experiment YAML file")
	c.Flags.Var(&c.verbose, "v", "log more, repeat for debug output")
	c.Flags.StringVar(&c.cpuprofile, "cpuprofile", "", "write a CPU profile to this file")
}

// setup configures logging and profiling, loads the experiment and returns a
// context cancelled on interrupt. The returned stop must be called.
func (c *commonRun) setup() (ctx context.Context, cfg *config.Config, stop func(), err error) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(logFormat))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(c.verbose.level(), "")
	logging.SetBackend(leveled)

	if c.configPath == "" {
		return nil, nil, nil, usageError("-config is required")
	}
	if cfg, err = config.Load(c.configPath); err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	stop = cancel
	if c.cpuprofile != "" {
		f, err := os.Create(c.cpuprofile)
		if err != nil {
			cancel()
			return nil, nil, nil, errors.Wrap(err, "cpuprofile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			cancel()
			return nil, nil, nil, errors.Wrap(err, "cpuprofile")
		}
		stop = func() {
			pprof.StopCPUProfile()
			f.Close()
			cancel()
		}
	}
	return ctx, cfg, stop, nil
}

type usageError string

func (e usageError) Error() string { return string(e) }

// done reports err and maps it to an exit code.
func done(err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "lidbox: %v\n", err)
	if _, ok := errors.Cause(err).(usageError); ok {
		return exitUsage
	}
	log.Debugf("%+v", err)
	return exitFailure
}

// vocabularyPath is where the label vocabulary of the experiment is stored.
func vocabularyPath(cfg *config.Config) string {
	return filepath.Join(cfg.CacheDir, "labels.txt")
}

// loadSplit reads every example of the extracted split.
func loadSplit(ctx context.Context, cfg *config.Config, split string) (*lid.Meta, []lid.Example, error) {
	dir := cfg.FeatureDir(split)
	meta, err := lid.ReadMeta(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "split %s, run extract first", split)
	}
	exs, err := stream.Collect(ctx, lid.ReadShards(meta.ShardPaths(dir)))
	if err != nil {
		return nil, nil, err
	}
	log.Infof("loaded %d %s examples", len(exs), split)
	return meta, exs, nil
}

// lidMeta reads the metadata of the extracted split.
func lidMeta(cfg *config.Config, split string) (*lid.Meta, error) {
	meta, err := lid.ReadMeta(cfg.FeatureDir(split))
	if err != nil {
		return nil, errors.Wrapf(err, "split %s, run extract first", split)
	}
	return meta, nil
}
