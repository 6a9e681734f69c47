package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vancomm/aplenty-server/internal/workflow"
)

func newSolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "solve",
		Short: "Print the accepted rating sum and the accepted combinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			doc, err := opts.readDocument(cmd.InOrStdin())
			if err != nil {
				return err
			}

			sum, err := workflow.SumAccepted(doc.Table, opts.Entry, doc.Parts)
			if err != nil {
				return err
			}
			count, err := opts.count(cmd.Context(), doc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accepted rating sum: %d\n", sum)
			fmt.Fprintf(out, "Accepted combinations: %d\n", count)
			fmt.Fprintf(out, "Time elapsed: %s\n", time.Since(start))
			return nil
		},
	}
}

func newCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of rating combinations that are accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.readDocument(cmd.InOrStdin())
			if err != nil {
				return err
			}
			count, err := opts.count(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the workflows without evaluating them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.readDocument(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := doc.Table.Check(); err != nil {
				return err
			}
			if err := doc.Table.Validate(opts.Entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d workflows, %d parts\n",
				doc.Table.Len(), len(doc.Parts))
			return nil
		},
	}
}

func newTraceCmd(opts *options) *cobra.Command {
	var acceptedOnly bool

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print every terminal region of the rating space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.readDocument(cmd.InOrStdin())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return workflow.Partition(doc.Table, opts.Entry, opts.box(), func(r workflow.Region) error {
				if acceptedOnly && r.Outcome != workflow.Accept {
					return nil
				}
				_, err := fmt.Fprintf(out, "%s %s via %s (%d)\n",
					r.Outcome, r.Box, r.Rule, r.Box.Volume())
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&acceptedOnly, "accepted", "a", false, "only print accepted regions")
	return cmd
}
