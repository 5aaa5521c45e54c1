package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// DOFPartition splits global equations into prescribed and free sets. Free
// equations are numbered in ascending order of their global index over the
// original, undeleted ordering; Reduce and Expand both walk that ordering.
type DOFPartition struct {
	NumDOF  int // global equations
	NumFree int // equations left after removing prescribed ones

	// Index maps
	GlobalToFree []int // global equation → free equation, -1 when prescribed
	FreeToGlobal []int // free equation → global equation

	// Prescribed values, nil entries are free
	Prescribed []*float64
}

// NewDOFPartition builds the partition from a boundary-condition vector
func NewDOFPartition(bc []*float64) *DOFPartition {
	p := &DOFPartition{
		NumDOF:       len(bc),
		GlobalToFree: make([]int, len(bc)),
		FreeToGlobal: make([]int, 0, len(bc)),
		Prescribed:   make([]*float64, len(bc)),
	}
	for I, v := range bc {
		if v != nil {
			val := *v
			p.Prescribed[I] = &val
			p.GlobalToFree[I] = -1
			continue
		}
		p.GlobalToFree[I] = len(p.FreeToGlobal)
		p.FreeToGlobal = append(p.FreeToGlobal, I)
	}
	p.NumFree = len(p.FreeToGlobal)
	return p
}

// IsFree reports whether global equation I is unknown
func (p *DOFPartition) IsFree(I int) bool {
	return p.GlobalToFree[I] >= 0
}

// Gather picks the free entries of a full-length vector, in free order
func (p *DOFPartition) Gather(full []float64) ([]float64, error) {
	if len(full) != p.NumDOF {
		return nil, fmt.Errorf("%w: vector of length %d for %d equations", ErrDimensionMismatch, len(full), p.NumDOF)
	}
	reduced := make([]float64, p.NumFree)
	for i, I := range p.FreeToGlobal {
		reduced[i] = full[I]
	}
	return reduced, nil
}

// Reduce removes the rows and columns of every prescribed equation from K and
// the matching entries of f. The reduced (i, j) entry is K(FreeToGlobal[i],
// FreeToGlobal[j]). Non-zero prescribed values move to the right-hand side as
// -K(free, fixed)·u_fixed. Returns a nil matrix when nothing is free.
func (p *DOFPartition) Reduce(K *sparse.CSR, f []float64) (*sparse.CSR, []float64, error) {
	r, c := K.Dims()
	if r != p.NumDOF || c != p.NumDOF {
		return nil, nil, fmt.Errorf("%w: matrix %dx%d for %d equations", ErrDimensionMismatch, r, c, p.NumDOF)
	}
	fr, err := p.Gather(f)
	if err != nil {
		return nil, nil, err
	}
	if p.NumFree == 0 {
		return nil, fr, nil
	}
	acc := NewAccumulator(p.NumFree)
	K.DoNonZero(func(I, J int, v float64) {
		i, j := p.GlobalToFree[I], p.GlobalToFree[J]
		switch {
		case i < 0:
		case j < 0:
			fr[i] -= v * *p.Prescribed[J]
		default:
			acc.Add(i, j, v)
		}
	})
	return acc.ToCSR(), fr, nil
}

// Expand rebuilds the full vector: prescribed values where present, otherwise
// the next unused reduced entry.
func (p *DOFPartition) Expand(reduced []float64) ([]float64, error) {
	if len(reduced) != p.NumFree {
		return nil, fmt.Errorf("%w: reduced vector of length %d for %d free equations", ErrDimensionMismatch, len(reduced), p.NumFree)
	}
	var (
		full = make([]float64, p.NumDOF)
		next int
	)
	for I := 0; I < p.NumDOF; I++ {
		if v := p.Prescribed[I]; v != nil {
			full[I] = *v
			continue
		}
		full[I] = reduced[next]
		next++
	}
	return full, nil
}

// Verify checks that both index maps are consistent inverses
func (p *DOFPartition) Verify() error {
	if len(p.FreeToGlobal) != p.NumFree {
		return fmt.Errorf("free count %d does not match map length %d", p.NumFree, len(p.FreeToGlobal))
	}
	prev := -1
	for i, I := range p.FreeToGlobal {
		if I <= prev {
			return fmt.Errorf("free equation %d maps to %d, not ascending after %d", i, I, prev)
		}
		if p.GlobalToFree[I] != i {
			return fmt.Errorf("global equation %d maps to free %d, expected %d", I, p.GlobalToFree[I], i)
		}
		prev = I
	}
	fixed := 0
	for I, i := range p.GlobalToFree {
		if i < 0 {
			if p.Prescribed[I] == nil {
				return fmt.Errorf("global equation %d removed without a prescribed value", I)
			}
			fixed++
		}
	}
	if fixed+p.NumFree != p.NumDOF {
		return fmt.Errorf("conservation error: %d fixed + %d free != %d", fixed, p.NumFree, p.NumDOF)
	}
	return nil
}
