package main

import (
	"fmt"
	"io"
	"os"

	"github.com/henderiw/rangemap/internal/config"
	"github.com/henderiw/rangemap/pkg/almanac"
	"github.com/henderiw/rangemap/pkg/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootOptions struct {
	in  io.Reader
	out io.Writer

	configPath string
	verbose    bool

	// flag values, applied over the config file when set
	mode     string
	start    string
	terminal string
	workers  int
	coalesce bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	o := &rootOptions{in: in, out: out}

	cmd := &cobra.Command{
		Use:   "almanac",
		Short: "Push seed numbers and seed ranges through chained range maps",
		Long: `almanac reads a seed line followed by "<from>-to-<to> map:" blocks and
reports where the seeds land after the last map.

Seed ranges are split along rule boundaries instead of being walked value
by value, so ranges spanning billions of values are cheap.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.complete(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "YAML config file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	f.StringVar(&o.mode, "mode", string(config.ModeRanges), "read the seed line as discrete \"values\" or as \"ranges\"")
	f.StringVar(&o.start, "start", "", "start category (inferred when empty)")
	f.StringVar(&o.terminal, "terminal", "", "terminal category (inferred when empty)")
	f.IntVar(&o.workers, "workers", 0, "parallel workers (0 uses GOMAXPROCS)")
	f.BoolVar(&o.coalesce, "coalesce", true, "merge touching fragments after every stage")

	cmd.AddCommand(
		newSolveCmd(o),
		newTraceCmd(o),
		newStagesCmd(o),
	)
	return cmd
}

// complete merges config file and flags and builds the logger.
func (o *rootOptions) complete(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}

	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Mode = config.Mode(o.mode)
	}
	if f.Changed("start") {
		cfg.Start = o.start
	}
	if f.Changed("terminal") {
		cfg.Terminal = o.terminal
	}
	if f.Changed("workers") {
		cfg.Workers = o.workers
	}
	if f.Changed("coalesce") {
		cfg.Coalesce = o.coalesce
	}
	if o.verbose {
		cfg.LogLevel = zapcore.DebugLevel.String()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	if o.logger == nil {
		level, _ := cfg.Level()
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		o.logger = logger
	}
	return nil
}

// load reads the almanac from the file argument or stdin and chains its
// maps.
func (o *rootOptions) load(args []string) (*almanac.Almanac, *pipeline.Pipeline, error) {
	var (
		a   *almanac.Almanac
		err error
	)
	switch {
	case len(args) > 0 && args[0] != "-":
		f, ferr := os.Open(args[0])
		if ferr != nil {
			return nil, nil, ferr
		}
		defer f.Close()
		a, err = almanac.Parse(f)
	default:
		a, err = almanac.Parse(o.in)
	}
	if err != nil {
		return nil, nil, err
	}

	p, err := a.Pipeline(o.cfg.Start, o.cfg.Terminal)
	if err != nil {
		return nil, nil, err
	}
	o.logger.Debug("pipeline ready",
		zap.String("start", p.Start()),
		zap.String("terminal", p.Terminal()),
		zap.Int("stages", p.Len()),
		zap.Int("seeds", len(a.Numbers)))
	return a, p, nil
}
