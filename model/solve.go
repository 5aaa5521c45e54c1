package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/james-bowman/sparse"

	"github.com/notargets/StructKernel/element"
	"github.com/notargets/StructKernel/metrics"
	"github.com/notargets/StructKernel/solver"
	"github.com/notargets/StructKernel/utils"
)

// Assemble sums every element block into a fresh global stiffness matrix.
// Elements are visited in key order so the result is reproducible.
func (m *Model) Assemble() (*sparse.CSR, error) {
	n := m.DOFCount()
	if n == 0 {
		return nil, fmt.Errorf("cannot assemble a model without nodes")
	}
	acc := utils.NewAccumulator(n)
	for _, key := range m.Elements() {
		b, err := m.block(m.elements[key])
		if err != nil {
			return nil, err
		}
		for r, I := range b.DOFs {
			for c, J := range b.DOFs {
				acc.Add(I, J, b.K.At(r, c))
			}
		}
	}
	return acc.ToCSR(), nil
}

// block resolves an element and returns its stiffness in global axes
func (m *Model) block(el element.Element) (element.Block, error) {
	p, err := m.props(el)
	if err != nil {
		return element.Block{}, fmt.Errorf("element %v: %w", el.Conn().Key(), err)
	}
	b, err := element.Stiffness(el, p, m.Dimension)
	if err != nil {
		return element.Block{}, fmt.Errorf("element %v: %w", el.Conn().Key(), err)
	}
	return b, nil
}

// Solve assembles, reduces, solves and expands the system. On success the
// displacement vector satisfies every boundary condition exactly and the
// force vector holds K·u, i.e. applied loads and reactions.
//
// The applied loads are overwritten. Freeing a constrained DOF and solving
// again applies its last reaction as a load; reset it with SetForce first.
func (m *Model) Solve() error {
	return m.SolveContext(context.Background())
}

// SolveContext is Solve with cancellation between solver iterations
func (m *Model) SolveContext(ctx context.Context) (err error) {
	var (
		start = time.Now()
		stats = Stats{NumDOF: m.DOFCount()}
	)
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case errors.Is(err, solver.ErrNotConverged):
			outcome = metrics.OutcomeNotConverged
		case err != nil:
			outcome = metrics.OutcomeError
		}
		metrics.ObserveSolve(outcome, time.Since(start), stats.Iterations, stats.NumFree)
	}()

	if stats.NumDOF == 0 {
		return nil
	}

	// 1. assemble into a fresh matrix
	K, err := m.Assemble()
	if err != nil {
		return err
	}
	stats.NNZ = K.NNZ()

	// 2. reduce
	part := utils.NewDOFPartition(m.bc)
	Kr, fr, err := part.Reduce(K, m.f)
	if err != nil {
		return fmt.Errorf("reduce: %w", err)
	}
	stats.NumFree = part.NumFree

	// 3. solve the free equations
	ur := make([]float64, part.NumFree)
	if part.NumFree > 0 {
		res, err := solver.MINRES(ctx, Kr, fr, solver.Config{
			Tolerance:     m.Epsilon,
			MaxIterations: m.MaxIterations,
		})
		stats.Iterations, stats.Residual = res.Iterations, res.Residual
		if err != nil {
			m.logger.Warn("solve failed", "dofs", stats.NumDOF, "free", stats.NumFree,
				"iterations", res.Iterations, "residual", res.Residual, "error", err)
			return fmt.Errorf("solve %d free dofs: %w", part.NumFree, err)
		}
		ur = res.X
	}

	// 4. expand
	u, err := part.Expand(ur)
	if err != nil {
		return fmt.Errorf("expand: %w", err)
	}

	// 5. recover forces, reactions included
	f, err := utils.MulVec(K, u)
	if err != nil {
		return fmt.Errorf("recover forces: %w", err)
	}

	m.k, m.u, m.f = K, u, f
	m.kReduced, m.fReduced = Kr, fr
	m.stats = stats
	m.logger.Debug("model solved", "dim", m.Dimension.String(), "nodes", len(m.nodes),
		"elements", len(m.elements), "dofs", stats.NumDOF, "free", stats.NumFree, "nnz", stats.NNZ,
		"iterations", stats.Iterations, "residual", stats.Residual, "elapsed", time.Since(start))
	return nil
}
