package utils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestDOFPartition(t *testing.T) {
	bc := []*float64{ptr(0), nil, ptr(2.5), nil, nil, ptr(-1)}
	p := NewDOFPartition(bc)
	require.NoError(t, p.Verify())

	assert.Equal(t, 6, p.NumDOF)
	assert.Equal(t, 3, p.NumFree)
	assert.Equal(t, []int{1, 3, 4}, p.FreeToGlobal)
	assert.Equal(t, []int{-1, 0, -1, 1, 2, -1}, p.GlobalToFree)
	assert.True(t, p.IsFree(3))
	assert.False(t, p.IsFree(2))

	// the partition keeps its own copy of the prescribed values
	*bc[2] = 7
	full, err := p.Expand([]float64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 2.5, 20, 30, -1}, full)

	_, err = p.Expand([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = p.Gather([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDOFPartitionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(30)
		var (
			bc   = make([]*float64, n)
			full = make([]float64, n)
		)
		for I := range bc {
			full[I] = rng.NormFloat64()
			if rng.Intn(3) == 0 {
				bc[I] = ptr(full[I])
			}
		}
		p := NewDOFPartition(bc)
		require.NoError(t, p.Verify())

		reduced, err := p.Gather(full)
		require.NoError(t, err)
		back, err := p.Expand(reduced)
		require.NoError(t, err)
		assert.Equal(t, full, back, "trial %d", trial)
	}
}

func TestDOFPartitionReduce(t *testing.T) {
	// K(i, j) = 10·i + j encodes the source position of every entry
	const n = 5
	acc := NewAccumulator(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			acc.Add(i, j, float64(10*i+j+1))
		}
	}
	K := acc.ToCSR()
	f := []float64{100, 101, 102, 103, 104}

	t.Run("Zero prescribed values", func(t *testing.T) {
		p := NewDOFPartition([]*float64{nil, ptr(0), nil, ptr(0), nil})
		Kr, fr, err := p.Reduce(K, f)
		require.NoError(t, err)
		r, c := Kr.Dims()
		require.Equal(t, 3, r)
		require.Equal(t, 3, c)
		for i, I := range p.FreeToGlobal {
			for j, J := range p.FreeToGlobal {
				assert.Equal(t, K.At(I, J), Kr.At(i, j), "(%d,%d)", i, j)
			}
		}
		assert.Equal(t, []float64{100, 102, 104}, fr)
	})

	t.Run("Prescribed values lift the right-hand side", func(t *testing.T) {
		p := NewDOFPartition([]*float64{ptr(2), nil, nil, nil, nil})
		_, fr, err := p.Reduce(K, f)
		require.NoError(t, err)
		for i, I := range p.FreeToGlobal {
			assert.Equal(t, f[I]-2*K.At(I, 0), fr[i])
		}
	})

	t.Run("Everything fixed", func(t *testing.T) {
		bc := make([]*float64, n)
		for I := range bc {
			bc[I] = ptr(1)
		}
		p := NewDOFPartition(bc)
		Kr, fr, err := p.Reduce(K, f)
		require.NoError(t, err)
		assert.Nil(t, Kr)
		assert.Empty(t, fr)
	})

	t.Run("Size mismatch", func(t *testing.T) {
		p := NewDOFPartition(make([]*float64, 3))
		_, _, err := p.Reduce(K, f[:3])
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestDOFPartitionVerify(t *testing.T) {
	p := NewDOFPartition([]*float64{nil, ptr(0), nil})
	p.FreeToGlobal[0], p.FreeToGlobal[1] = p.FreeToGlobal[1], p.FreeToGlobal[0]
	assert.Error(t, p.Verify())

	p = NewDOFPartition([]*float64{nil, ptr(0), nil})
	p.Prescribed[1] = nil
	assert.Error(t, p.Verify())
}
