package main

import (
	"fmt"
	"time"

	"github.com/henderiw/rangemap/internal/config"
	"github.com/henderiw/rangemap/pkg/engine"
	"github.com/henderiw/rangemap/pkg/vrange"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSolveCmd(o *rootOptions) *cobra.Command {
	var rangeArgs []string
	cmd := &cobra.Command{
		Use:   "solve [file]",
		Short: "Print the lowest terminal value any seed reaches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, p, err := o.load(args)
			if err != nil {
				return err
			}
			override, err := parseRanges(rangeArgs)
			if err != nil {
				return err
			}
			e := engine.New(p,
				engine.WithWorkers(o.cfg.Workers),
				engine.WithCoalesce(o.cfg.Coalesce),
				engine.WithLogger(o.logger))

			begin := time.Now()
			var result uint64
			switch {
			case len(override) > 0:
				result, err = e.MinimumTerminalValue(cmd.Context(), override)
			case o.cfg.Mode == config.ModeValues:
				result, err = e.MinimumTerminalValueSingle(cmd.Context(), a.Seeds())
			default:
				ranges, rerr := a.SeedRanges()
				if rerr != nil {
					return rerr
				}
				result, err = e.MinimumTerminalValue(cmd.Context(), ranges)
			}
			if err != nil {
				return err
			}
			o.logger.Info("solved",
				zap.String("mode", string(o.cfg.Mode)),
				zap.Int("overrides", len(override)),
				zap.Uint64("result", result),
				zap.Duration("took", time.Since(begin)))

			_, err = fmt.Fprintln(o.out, result)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&rangeArgs, "range", nil,
		"seed range as start+length or from-to, repeatable; replaces the seed line")
	return cmd
}

func parseRanges(args []string) ([]vrange.Range, error) {
	out := make([]vrange.Range, 0, len(args))
	for _, s := range args {
		r, err := vrange.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("--range %q: %w", s, err)
		}
		out = append(out, r)
	}
	return out, nil
}
