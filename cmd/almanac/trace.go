package main

import (
	"fmt"
	"strconv"

	"github.com/henderiw/rangemap/pkg/engine"
	"github.com/spf13/cobra"
)

func newTraceCmd(o *rootOptions) *cobra.Command {
	var raw []string

	cmd := &cobra.Command{
		Use:   "trace [file]",
		Short: "Show every conversion step of single values",
		Long: `trace follows discrete values stage by stage. Without --value every
number of the seed line is traced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, p, err := o.load(args)
			if err != nil {
				return err
			}
			values := a.Seeds()
			if len(raw) > 0 {
				values = values[:0]
				for _, s := range raw {
					v, err := strconv.ParseUint(s, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid --value %q: %w", s, err)
					}
					values = append(values, v)
				}
			}
			e := engine.New(p, engine.WithLogger(o.logger))
			for _, v := range values {
				for _, s := range e.Trace(v) {
					how := "passthrough"
					if s.Rule != nil {
						how = fmt.Sprintf("%s (%s)", s.Rule, s.Rule.Offset())
					}
					if _, err := fmt.Fprintf(o.out, "%s %d -> %s %d  %s\n", s.From, s.In, s.To, s.Out, how); err != nil {
						return err
					}
				}
				if _, err := fmt.Fprintln(o.out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&raw, "value", nil, "value to trace, repeatable")
	return cmd
}
