package main

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

type plotOptions struct {
	solveOverrides
	field  string
	forces bool
	height int
	width  int
}

func newPlotCmd(root *rootOptions) *cobra.Command {
	opts := &plotOptions{}
	cmd := &cobra.Command{
		Use:   "plot <model.yaml>",
		Short: "Solve a model and plot one DOF field against node index",
		Long: `Solve a model and draw an ASCII chart of one field (ux, uy, uz, rx, ry,
rz) over the nodes in index order. Useful for deflection lines of beams
meshed with consecutive nodes.

Examples:
  structkernel plot cantilever.yaml --field uy
  structkernel plot frame.yaml --field rz --forces`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(root, args[0])
			if err != nil {
				return err
			}
			opts.apply(cmd, m)
			field, err := m.Dimension.FieldIndex(opts.field)
			if err != nil {
				return err
			}
			if len(m.Nodes()) == 0 {
				return fmt.Errorf("%s: nothing to plot, model has no nodes", args[0])
			}
			if err = m.SolveContext(commandContext(cmd)); err != nil {
				return err
			}

			values, what := m.Displacements(), "displacement"
			if opts.forces {
				values, what = m.Forces(), "force"
			}
			d := m.DOFPerNode()
			data := make([]float64, 0, len(values)/d)
			for I := field; I < len(values); I += d {
				data = append(data, values[I])
			}

			graph := asciigraph.Plot(data,
				asciigraph.Height(opts.height),
				asciigraph.Width(opts.width),
				asciigraph.Caption(fmt.Sprintf("%s %s by node", m.Dimension.FieldName(field), what)),
			)
			fmt.Fprintln(cmd.OutOrStdout(), graph)
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.field, "field", "uy", "DOF field to plot")
	cmd.Flags().BoolVar(&opts.forces, "forces", false, "Plot nodal forces (K·u) instead of displacements")
	cmd.Flags().IntVar(&opts.height, "height", 10, "Chart height in rows")
	cmd.Flags().IntVar(&opts.width, "width", 60, "Chart width in columns")
	return cmd
}
