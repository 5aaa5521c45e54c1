package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/StructKernel/element"
	"github.com/notargets/StructKernel/model"
)

func TestBuilder(t *testing.T) {
	t.Run("Cantilever", func(t *testing.T) {
		m, err := New(Config{Dimension: element.D2, Epsilon: 1e-12}).
			Node(0, 0).
			Node(1).
			Material(1, 0).
			Section(element.Section{S: 1, I: 1}).
			Beam(0, 1, 0, 0).
			Fix(0).
			Load(1, "uy", 3).
			Build()
		require.NoError(t, err)
		assert.Equal(t, 6, m.DOFCount())
		assert.Len(t, m.Elements(), 1)

		require.NoError(t, m.Solve())
		assert.InDeltaSlice(t, []float64{0, 0, 0, 0, 1, 1.5}, m.Displacements(), 1e-9)
	})

	t.Run("Fix named fields and prescribe", func(t *testing.T) {
		m, err := New(Config{Dimension: element.D3, Epsilon: 1e-12, MaxIterations: 50}).
			Node(0, 0, 0).
			Node(0, 0, 1).
			Material(1, 1).
			Section(element.Section{S: 1, I: 1, J: 1}).
			Truss(0, 1, 0, 0).
			Fix(0, "ux", "UY").
			Prescribe(1, "uz", 0.25).
			Build()
		require.NoError(t, err)
		assert.Equal(t, 50, m.MaxIterations)
		bc := m.BoundaryConditions()
		assert.NotNil(t, bc[0])
		assert.NotNil(t, bc[1])
		assert.Nil(t, bc[2])
		require.NotNil(t, bc[8])
		assert.Equal(t, 0.25, *bc[8])
	})

	t.Run("First error wins", func(t *testing.T) {
		b := New(Config{Dimension: element.D2, Epsilon: 1e-12}).
			Node(0, 0).
			Node(0, 0).
			Material(1, 0).
			Section(element.Section{S: 1}).
			Truss(0, 1, 0, 0). // zero length
			Truss(0, 5, 0, 0). // out of range, ignored
			Load(0, "uz", 1)
		_, err := b.Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, element.ErrZeroLength)
		assert.NotErrorIs(t, err, model.ErrIndexOutOfRange)
		assert.Equal(t, err, b.Err())
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := New(Config{Dimension: element.D1}).
			Node(0).
			Load(0, "uy", 1).
			Build()
		assert.ErrorIs(t, err, element.ErrUnknownField)
	})

	t.Run("Too many coordinates", func(t *testing.T) {
		_, err := New(Config{Dimension: element.D3}).Node(1, 2, 3, 4).Build()
		assert.Error(t, err)
	})

	t.Run("Invalid dimensionality", func(t *testing.T) {
		assert.Panics(t, func() { New(Config{}) })
	})
}
