package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/notargets/StructKernel/model"
	"github.com/notargets/StructKernel/readers"
)

type rootOptions struct {
	logLevel string
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: slog.Default()}
	cmd := &cobra.Command{
		Use:   "structkernel",
		Short: "Linear static analysis of trusses and beams",
		Long: `structkernel - linear static analysis of skeletal structures

Solves truss and Euler-Bernoulli beam models in 1D, 2D or 3D for nodal
displacements and reactions. Models are YAML files, see 'structkernel info'.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = l
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newSolveCmd(opts),
		newInfoCmd(opts),
		newPlotCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// solveOverrides are the solver flags shared by solve and plot
type solveOverrides struct {
	tol     float64
	maxIter int
}

func (o *solveOverrides) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&o.tol, "tol", 0, "Relative residual tolerance, overrides the model's epsilon")
	cmd.Flags().IntVar(&o.maxIter, "max-iter", 0, "Iteration limit, overrides the model's max_iterations")
}

func (o *solveOverrides) apply(cmd *cobra.Command, m *model.Model) {
	if cmd.Flags().Changed("tol") {
		m.Epsilon = o.tol
	}
	if cmd.Flags().Changed("max-iter") {
		m.MaxIterations = o.maxIter
	}
}

func loadModel(opts *rootOptions, path string) (*model.Model, error) {
	m, err := readers.ReadModelFile(path)
	if err != nil {
		return nil, err
	}
	m.SetLogger(opts.logger.With("model", path))
	return m, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
