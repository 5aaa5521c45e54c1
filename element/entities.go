package element

import (
	"fmt"
	"math"
)

// Node is a point in space. Nodes are identified by their index in the model.
type Node struct {
	X, Y, Z float64
}

// Coord returns the k-th coordinate (0=x, 1=y, 2=z)
func (n Node) Coord(k int) float64 {
	switch k {
	case 0:
		return n.X
	case 1:
		return n.Y
	case 2:
		return n.Z
	}
	panic(fmt.Sprintf("coordinate index %d out of range", k))
}

// Material holds the elastic moduli of an element
type Material struct {
	E float64 // Young's modulus
	G float64 // shear modulus, read by 3D beams only
}

// Section holds the cross-section properties of an element
type Section struct {
	S  float64 // axial area
	I  float64 // second moment of area about local z (in-plane bending)
	Iy float64 // second moment of area about local y, 3D beams; I is used when zero
	J  float64 // torsion constant, 3D beams
}

// IyOrI returns the out-of-plane second moment, defaulting to I
func (s Section) IyOrI() float64 {
	if s.Iy == 0 {
		return s.I
	}
	return s.Iy
}

// Geometry is the derived length and axis of a two-node element
type Geometry struct {
	L   float64   // length measured over the active axes
	Dir []float64 // unit vector from the first to the second endpoint [nAxes]
}

// NewGeometry measures the element between a and b over the first nAxes axes.
// Coordinates outside the model's space are ignored.
func NewGeometry(a, b Node, nAxes int) (Geometry, error) {
	var (
		d   = make([]float64, nAxes)
		sum float64
	)
	for k := 0; k < nAxes; k++ {
		d[k] = b.Coord(k) - a.Coord(k)
		sum += d[k] * d[k]
	}
	l := math.Sqrt(sum)
	if l == 0 {
		return Geometry{}, fmt.Errorf("%w: nodes (%g, %g, %g) and (%g, %g, %g)",
			ErrZeroLength, a.X, a.Y, a.Z, b.X, b.Y, b.Z)
	}
	for k := range d {
		d[k] /= l
	}
	return Geometry{L: l, Dir: d}, nil
}

// Cosines returns the direction cosines c_k = (x1_k - x2_k) / L used by the
// truss pattern. Only products c_i*c_j enter the stiffness, so the sign
// convention does not change the assembled matrix.
func (g Geometry) Cosines() []float64 {
	c := make([]float64, len(g.Dir))
	for k, v := range g.Dir {
		c[k] = -v
	}
	return c
}
