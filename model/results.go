package model

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/notargets/StructKernel/element"
)

// Displacement returns the displacement of one node DOF. Before a solve every
// free DOF reads zero.
func (m *Model) Displacement(node, field int) (float64, error) {
	I, err := m.equation(node, field)
	if err != nil {
		return 0, err
	}
	return m.u[I], nil
}

// Force returns the force at one node DOF: the applied value before a solve,
// the corresponding entry of K·u after it.
func (m *Model) Force(node, field int) (float64, error) {
	I, err := m.equation(node, field)
	if err != nil {
		return 0, err
	}
	return m.f[I], nil
}

// Displacements returns a copy of the full displacement vector
func (m *Model) Displacements() []float64 { return append([]float64(nil), m.u...) }

// Forces returns a copy of the full force vector
func (m *Model) Forces() []float64 { return append([]float64(nil), m.f...) }

// Reactions returns the force at every constrained equation of the last solve
func (m *Model) Reactions() (map[int]float64, error) {
	if m.k == nil {
		return nil, ErrNotSolved
	}
	out := make(map[int]float64)
	for I, v := range m.bc {
		if v != nil {
			out[I] = m.f[I]
		}
	}
	return out, nil
}

// Stiffness returns the global matrix assembled by the last solve
func (m *Model) Stiffness() (*sparse.CSR, error) {
	if m.k == nil {
		return nil, ErrNotSolved
	}
	return m.k, nil
}

// ReducedSystem returns the free-DOF stiffness and load of the last solve. The
// matrix is nil when every DOF was prescribed.
func (m *Model) ReducedSystem() (*sparse.CSR, []float64, error) {
	if m.k == nil {
		return nil, nil, ErrNotSolved
	}
	return m.kReduced, append([]float64(nil), m.fReduced...), nil
}

// Stats returns the diagnostics of the last solve
func (m *Model) Stats() Stats { return m.stats }

// ElementBlock returns the stiffness block of one element in global axes
func (m *Model) ElementBlock(key element.Key) (element.Block, error) {
	el, ok := m.elements[key]
	if !ok {
		return element.Block{}, fmt.Errorf("%w: %v", ErrNoElement, key)
	}
	return m.block(el)
}

// ElementEndForces returns the element's nodal forces K_e·u_e in global
// orientation along with the global DOF of each entry.
func (m *Model) ElementEndForces(key element.Key) ([]float64, []int, error) {
	b, err := m.ElementBlock(key)
	if err != nil {
		return nil, nil, err
	}
	fe, err := element.EndForces(b, m.u)
	if err != nil {
		return nil, nil, err
	}
	return fe, b.DOFs, nil
}

// AxialForce returns the normal force of an element, tension positive
func (m *Model) AxialForce(key element.Key) (float64, error) {
	el, ok := m.elements[key]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoElement, key)
	}
	p, err := m.props(el)
	if err != nil {
		return 0, err
	}
	return element.AxialForce(el, p, m.Dimension, m.u)
}
