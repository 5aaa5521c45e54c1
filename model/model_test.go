package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/StructKernel/element"
)

func TestNew(t *testing.T) {
	m := New(element.D3, 1e-9)
	assert.Equal(t, 6, m.DOFPerNode())
	assert.Equal(t, 0, m.DOFCount())
	assert.Panics(t, func() { New(element.Dimensionality(0), 1e-9) })
	assert.Panics(t, func() { New(element.Dimensionality(4), 1e-9) })
}

func TestAddNodeGrowsVectors(t *testing.T) {
	for _, tc := range []struct {
		dim  element.Dimensionality
		want int
	}{
		{element.D1, 1},
		{element.D2, 3},
		{element.D3, 6},
	} {
		m := New(tc.dim, 1e-9)
		assert.Equal(t, 0, m.AddNode(element.Node{}))
		assert.Equal(t, 1, m.AddNode(element.Node{X: 1}))
		assert.Equal(t, 2*tc.want, m.DOFCount())
		assert.Len(t, m.Displacements(), 2*tc.want)
		assert.Len(t, m.Forces(), 2*tc.want)
		assert.Len(t, m.BoundaryConditions(), 2*tc.want)
	}
}

func TestAddElement(t *testing.T) {
	newModel := func(dim element.Dimensionality) *Model {
		m := New(dim, 1e-9)
		m.AddNode(element.Node{})
		m.AddNode(element.Node{X: 1})
		m.AddNode(element.Node{X: 1})
		m.AddMaterial(element.Material{E: 1, G: 1})
		m.AddSection(element.Section{S: 1, I: 1, J: 1})
		return m
	}

	t.Run("Registers by ordered key", func(t *testing.T) {
		m := newModel(element.D2)
		require.NoError(t, m.AddElement(element.BeamKind, []int{0, 1}, 0, 0))
		require.NoError(t, m.AddElement(element.TrussKind, []int{1, 0}, 0, 0))
		assert.Equal(t, []element.Key{{I: 0, J: 1}, {I: 1, J: 0}}, m.Elements())
		el, ok := m.Element(element.Key{I: 1, J: 0})
		require.True(t, ok)
		assert.Equal(t, element.TrussKind, el.Kind())
	})

	t.Run("Last write wins", func(t *testing.T) {
		m := newModel(element.D2)
		m.AddSection(element.Section{S: 2, I: 2})
		require.NoError(t, m.AddElement(element.BeamKind, []int{0, 1}, 0, 0))
		require.NoError(t, m.AddElement(element.TrussKind, []int{0, 1}, 0, 1))
		require.Len(t, m.Elements(), 1)
		el, _ := m.Element(element.Key{I: 0, J: 1})
		assert.Equal(t, element.TrussKind, el.Kind())
		assert.Equal(t, 1, el.Conn().SectionID)
	})

	t.Run("Errors", func(t *testing.T) {
		m := newModel(element.D2)
		assert.ErrorIs(t, m.AddElement(element.TrussKind, []int{0, 3}, 0, 0), ErrIndexOutOfRange)
		assert.ErrorIs(t, m.AddElement(element.TrussKind, []int{-1, 0}, 0, 0), ErrIndexOutOfRange)
		assert.ErrorIs(t, m.AddElement(element.TrussKind, []int{0, 1}, 1, 0), ErrIndexOutOfRange)
		assert.ErrorIs(t, m.AddElement(element.TrussKind, []int{0, 1}, 0, 1), ErrIndexOutOfRange)
		assert.ErrorIs(t, m.AddElement(element.TrussKind, []int{1, 2}, 0, 0), element.ErrZeroLength)
		assert.ErrorIs(t, m.AddElement(element.Kind(7), []int{0, 1}, 0, 0), element.ErrUnknownKind)
		assert.Error(t, m.AddElement(element.TrussKind, []int{0, 1, 2}, 0, 0))
		assert.Empty(t, m.Elements())

		m1 := newModel(element.D1)
		assert.ErrorIs(t, m1.AddElement(element.BeamKind, []int{0, 1}, 0, 0), element.ErrUnsupported)
		assert.NoError(t, m1.AddElement(element.TrussKind, []int{0, 1}, 0, 0))
	})
}

func TestBoundaryConditions(t *testing.T) {
	m := New(element.D2, 1e-9)
	m.AddNode(element.Node{})
	m.AddNode(element.Node{X: 1})

	require.NoError(t, m.AddUBoundaryCondition(1, 2, 0.5))
	bc := m.BoundaryConditions()
	require.NotNil(t, bc[5])
	assert.Equal(t, 0.5, *bc[5])

	// returned slice is a copy
	*bc[5] = 9
	assert.Equal(t, 0.5, *m.BoundaryConditions()[5])

	require.NoError(t, m.RemoveUBoundaryCondition(1, 2))
	assert.Nil(t, m.BoundaryConditions()[5])

	assert.ErrorIs(t, m.AddUBoundaryCondition(2, 0, 0), ErrIndexOutOfRange)
	assert.ErrorIs(t, m.AddUBoundaryCondition(0, 3, 0), ErrIndexOutOfRange)
	assert.ErrorIs(t, m.RemoveUBoundaryCondition(0, -1), ErrIndexOutOfRange)

	require.NoError(t, m.SetForce(1, 1, 4))
	require.NoError(t, m.SetForce(1, 1, 3))
	f, err := m.Force(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
	assert.ErrorIs(t, m.SetForce(0, 3, 1), ErrIndexOutOfRange)
	_, err = m.Displacement(5, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEqual(t *testing.T) {
	build := func() *Model {
		m := New(element.D2, 1e-9)
		m.AddNode(element.Node{})
		m.AddNode(element.Node{X: 1})
		m.AddMaterial(element.Material{E: 1})
		m.AddSection(element.Section{S: 1, I: 1})
		_ = m.AddElement(element.BeamKind, []int{0, 1}, 0, 0)
		_ = m.AddUBoundaryCondition(0, 0, 0)
		_ = m.SetForce(1, 1, 1)
		return m
	}
	a, b := build(), build()
	assert.True(t, a.Equal(b))

	_ = b.AddUBoundaryCondition(0, 1, 0)
	assert.False(t, a.Equal(b))

	b = build()
	_ = b.SetForce(1, 0, 1)
	assert.False(t, a.Equal(b))

	b = build()
	_ = b.AddElement(element.TrussKind, []int{0, 1}, 0, 0)
	assert.False(t, a.Equal(b))

	b = build()
	b.Epsilon = 1e-6
	assert.False(t, a.Equal(b))
}
