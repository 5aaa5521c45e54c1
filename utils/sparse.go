package utils

import (
	"errors"
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
)

// ErrDimensionMismatch is returned by matrix-vector products on incompatible sizes
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Accumulator sums coordinate contributions into an n×n sparse matrix.
// Repeated adds to the same coordinate are summed.
type Accumulator struct {
	N   int
	dok *sparse.DOK
}

// NewAccumulator creates an empty accumulator. n must be positive.
func NewAccumulator(n int) *Accumulator {
	if n <= 0 {
		panic(fmt.Sprintf("invalid accumulator size %d", n))
	}
	return &Accumulator{N: n, dok: sparse.NewDOK(n, n)}
}

// Add accumulates v at (i, j). Zeros are skipped to keep the pattern sparse.
func (a *Accumulator) Add(i, j int, v float64) {
	if v == 0 {
		return
	}
	a.dok.Set(i, j, a.dok.At(i, j)+v)
}

// NNZ returns the number of stored coordinates
func (a *Accumulator) NNZ() int { return a.dok.NNZ() }

// ToCSR converts the accumulated values to compressed row storage
func (a *Accumulator) ToCSR() *sparse.CSR { return a.dok.ToCSR() }

// MulVec returns A·x
func MulVec(A *sparse.CSR, x []float64) ([]float64, error) {
	r, c := A.Dims()
	if c != len(x) {
		return nil, fmt.Errorf("%w: matrix %dx%d times vector of length %d", ErrDimensionMismatch, r, c, len(x))
	}
	y := make([]float64, r)
	raw := A.RawMatrix()
	for i := 0; i < r; i++ {
		var sum float64
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			sum += raw.Data[k] * x[raw.Ind[k]]
		}
		y[i] = sum
	}
	return y, nil
}

// IsSymmetric reports whether |A(i,j) - A(j,i)| <= tol·max(|A(i,j)|, 1) for
// every stored entry
func IsSymmetric(A *sparse.CSR, tol float64) bool {
	r, c := A.Dims()
	if r != c {
		return false
	}
	sym := true
	A.DoNonZero(func(i, j int, v float64) {
		if !sym {
			return
		}
		if math.Abs(v-A.At(j, i)) > tol*math.Max(math.Abs(v), 1) {
			sym = false
		}
	})
	return sym
}
