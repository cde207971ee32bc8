package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/labels"
)

func newStagesCmd(o *rootOptions) *cobra.Command {
	var selector string

	cmd := &cobra.Command{
		Use:   "stages [file]",
		Short: "List the resolved stages, optionally filtered by a label selector",
		Example: `  almanac stages input.txt --selector from=seed
  almanac stages input.txt --selector 'to in (water,light)'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := labels.Parse(selector)
			if err != nil {
				return fmt.Errorf("invalid selector %q: %w", selector, err)
			}
			_, p, err := o.load(args)
			if err != nil {
				return err
			}
			for _, s := range p.StagesByLabel(sel) {
				if _, err := fmt.Fprintf(o.out, "%s\t%d rules\t%s\n", s.Name(), len(s.Rules()), s.Labels()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&selector, "selector", "l", "", "label selector, e.g. from=seed")
	return cmd
}
