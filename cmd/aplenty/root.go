package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vancomm/aplenty-server/internal/config"
	"github.com/vancomm/aplenty-server/internal/workflow"
)

type options struct {
	Config   string
	Input    string
	Entry    string
	Low      int
	High     int
	Parallel bool
	LogLevel string
}

func (o *options) box() workflow.Box {
	return workflow.FullBox(o.Low, o.High)
}

func (o *options) readDocument(stdin io.Reader) (*workflow.Document, error) {
	var r io.Reader = stdin
	if o.Input != "-" {
		f, err := os.Open(o.Input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	doc, err := workflow.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.Input, err)
	}
	log.WithFields(logrus.Fields{
		"input": o.Input,
		"rules": doc.Table.Len(),
		"parts": len(doc.Parts),
	}).Debug("parsed input")
	return doc, nil
}

func (o *options) count(ctx context.Context, doc *workflow.Document) (int64, error) {
	if o.Parallel {
		return workflow.CountParallel(ctx, doc.Table, o.Entry, o.box())
	}
	return workflow.Count(doc.Table, o.Entry, o.box())
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "aplenty",
		Short:        "Evaluate part sorting workflows",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config != "" {
				j, err := loadJob(opts.Config)
				if err != nil {
					return err
				}
				j.apply(opts, cmd.Flags())
			}
			if err := workflow.CheckBounds(opts.Low, opts.High); err != nil {
				return fmt.Errorf("--low/--high: %w", err)
			}

			log.SetOutput(cmd.ErrOrStderr())
			if err := config.SetupLogging(log, false, opts.LogLevel, ""); err != nil {
				return err
			}
			log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			workflow.Log.SetOutput(cmd.ErrOrStderr())
			workflow.Log.SetLevel(log.GetLevel())
			workflow.Log.SetFormatter(log.Formatter)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.Config, "config", "c", "", "YAML job file presetting the flags below")
	flags.StringVarP(&opts.Input, "input", "i", "input.txt", "puzzle input, - for stdin")
	flags.StringVarP(&opts.Entry, "entry", "e", "in", "entry workflow")
	flags.IntVar(&opts.Low, "low", 1, "lowest rating (inclusive)")
	flags.IntVar(&opts.High, "high", 4001, "highest rating (exclusive)")
	flags.BoolVarP(&opts.Parallel, "parallel", "p", false, "evaluate entry branches concurrently")
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newSolveCmd(opts),
		newCountCmd(opts),
		newCheckCmd(opts),
		newTraceCmd(opts),
	)

	return root
}
