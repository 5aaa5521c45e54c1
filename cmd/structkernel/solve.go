package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/StructKernel/element"
	"github.com/notargets/StructKernel/model"
	"github.com/notargets/StructKernel/readers"
	"github.com/notargets/StructKernel/store"
)

type solveOptions struct {
	solveOverrides
	db      string
	out     string
	metrics bool
	reduced bool
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve <model.yaml>",
		Short: "Solve a model and print displacements and reactions",
		Long: `Assemble and solve a model file, then print the nodal displacements,
the reactions at constrained DOFs and solver statistics.

Examples:
  structkernel solve cantilever.yaml
  structkernel solve frame.yaml --tol 1e-12 --db runs.db --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, root, opts, args[0])
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite database to record the run in")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the solved model (forces = K·u) to this YAML file")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print solver metrics in Prometheus text format")
	cmd.Flags().BoolVar(&opts.reduced, "dump-reduced", false, "Print the reduced stiffness matrix and load vector")
	return cmd
}

func runSolve(cmd *cobra.Command, root *rootOptions, opts *solveOptions, path string) error {
	m, err := loadModel(root, path)
	if err != nil {
		return err
	}
	opts.apply(cmd, m)

	// the input document is captured before forces are overwritten by K·u
	var input bytes.Buffer
	if err = readers.WriteModel(&input, m); err != nil {
		return err
	}

	if err = m.SolveContext(commandContext(cmd)); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printSolution(w, path, m)
	if opts.reduced {
		if err = printReduced(w, m); err != nil {
			return err
		}
	}

	if opts.out != "" {
		if err = readers.SaveModelFile(opts.out, m); err != nil {
			return err
		}
		root.logger.Info("solved model written", "path", opts.out)
	}
	if opts.db != "" {
		id, err := recordRun(cmd, opts.db, path, input.String(), m)
		if err != nil {
			return err
		}
		printField(w, "Run ID", id)
	}
	if opts.metrics {
		return writeMetrics(w, prometheus.DefaultGatherer)
	}
	return nil
}

func printSolution(w io.Writer, path string, m *model.Model) {
	st := m.Stats()
	fields := m.Dimension.Fields()

	fmt.Fprintln(w)
	printHeader(w, "SOLUTION "+path)
	printField(w, "Dimension", m.Dimension)
	printField(w, "DOFs", st.NumDOF)
	printField(w, "Free DOFs", st.NumFree)
	printField(w, "Stored K", st.NNZ)
	printField(w, "Iterations", st.Iterations)
	printField(w, "Residual", fmt.Sprintf("%.3e", st.Residual))
	fmt.Fprintln(w)

	printHeader(w, "DISPLACEMENTS")
	renderTable(w, append([]string{"node"}, fields...), nodeRows(m, m.Displacements()))
	fmt.Fprintln(w)

	reactions, err := m.Reactions()
	if err != nil || len(reactions) == 0 {
		return
	}
	printHeader(w, "REACTIONS")
	eqs := make([]int, 0, len(reactions))
	for I := range reactions {
		eqs = append(eqs, I)
	}
	sort.Ints(eqs)
	d := m.DOFPerNode()
	rows := make([][]string, 0, len(eqs))
	for _, I := range eqs {
		rows = append(rows, []string{strconv.Itoa(I / d), m.Dimension.FieldName(I % d), formatValue(reactions[I])})
	}
	renderTable(w, []string{"node", "field", "force"}, rows)
	fmt.Fprintln(w)
}

func printReduced(w io.Writer, m *model.Model) error {
	Kr, fr, err := m.ReducedSystem()
	if err != nil {
		return err
	}
	printHeader(w, "REDUCED SYSTEM")
	if Kr == nil {
		fmt.Fprintln(w, "  no free DOFs")
		return nil
	}
	fmt.Fprint(w, element.FormatMatrix("K_reduced", Kr))
	fmt.Fprint(w, element.FormatMatrix("f_reduced", mat.NewVecDense(len(fr), fr)))
	fmt.Fprintln(w)
	return nil
}

func recordRun(cmd *cobra.Command, dbPath, source, input string, m *model.Model) (string, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return "", err
	}
	defer s.Close()

	st := m.Stats()
	return s.SaveRun(commandContext(cmd), store.Run{
		Source:        source,
		Dimension:     int(m.Dimension),
		NumDOF:        st.NumDOF,
		NumFree:       st.NumFree,
		Iterations:    st.Iterations,
		Residual:      st.Residual,
		Model:         input,
		Displacements: m.Displacements(),
		Forces:        m.Forces(),
	})
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "structkernel_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
