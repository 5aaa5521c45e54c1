package element

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Props collects the entities an element refers to, resolved by the model
type Props struct {
	A, B     Node // first and second endpoint
	Material Material
	Section  Section
}

// Block is an element stiffness matrix in global orientation. DOFs[r] is the
// global equation number of row (and column) r.
type Block struct {
	K    *mat.SymDense
	DOFs []int
}

// Size returns the number of rows of the block
func (b Block) Size() int { return len(b.DOFs) }

// Validate checks the element against its properties before it is registered
func Validate(el Element, p Props, dim Dimensionality) (Geometry, error) {
	dim.MustValidate()
	g, err := NewGeometry(p.A, p.B, dim.NumAxes())
	if err != nil {
		return g, err
	}
	if p.Material.E <= 0 || p.Section.S <= 0 {
		return g, fmt.Errorf("%w: E=%g, S=%g must be positive", ErrInvalidProperty, p.Material.E, p.Section.S)
	}
	if el.Kind() != BeamKind {
		return g, nil
	}
	switch dim {
	case D1:
		return g, fmt.Errorf("%w: beam in %v", ErrUnsupported, dim)
	case D3:
		if p.Material.G <= 0 || p.Section.J <= 0 {
			return g, fmt.Errorf("%w: 3D beam needs G=%g and J=%g positive", ErrInvalidProperty, p.Material.G, p.Section.J)
		}
		if p.Section.IyOrI() <= 0 {
			return g, fmt.Errorf("%w: Iy=%g must be positive", ErrInvalidProperty, p.Section.IyOrI())
		}
	}
	if p.Section.I <= 0 {
		return g, fmt.Errorf("%w: I=%g must be positive", ErrInvalidProperty, p.Section.I)
	}
	return g, nil
}

// Stiffness maps (variant, dimensionality) to the element block in global axes
func Stiffness(el Element, p Props, dim Dimensionality) (Block, error) {
	g, err := Validate(el, p, dim)
	if err != nil {
		return Block{}, err
	}
	c := el.Conn()
	switch el.(type) {
	case *Truss:
		return trussStiffness(c, g, p, dim), nil
	case *Beam:
		if dim == D2 {
			return beam2DStiffness(c, g, p), nil
		}
		return beam3DStiffness(c, g, p), nil
	}
	panic(fmt.Sprintf("unhandled element type %T", el))
}

// blockDOFs lists the first slots DOFs of node i followed by those of node j.
// slots counts per node, so a block has 2*slots rows.
func blockDOFs(i, j, dofPerNode, slots int) []int {
	dofs := make([]int, 0, 2*slots)
	for _, n := range []int{i, j} {
		for k := 0; k < slots; k++ {
			dofs = append(dofs, n*dofPerNode+k)
		}
	}
	return dofs
}

// trussStiffness places ±k_a·c_i·c_j on the translational slots of both nodes.
// Rotational slots, if any, receive nothing.
func trussStiffness(c Connectivity, g Geometry, p Props, dim Dimensionality) Block {
	var (
		n   = dim.NumAxes()
		ka  = p.Material.E * p.Section.S / g.L
		cos = g.Cosines()
		K   = mat.NewSymDense(2*n, nil)
	)
	if dim == D1 {
		cos = []float64{1}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := ka * cos[i] * cos[j]
			K.SetSym(i, j, v)
			K.SetSym(n+i, n+j, v)
			K.SetSym(i, n+j, -v)
		}
	}
	return Block{K: K, DOFs: blockDOFs(c.I, c.J, dim.DOFPerNode(), n)}
}

// beam2DStiffness builds the 6x6 Euler-Bernoulli matrix along the local axis
// and rotates it into the plane. Slots per node: [ux, uy, rz].
func beam2DStiffness(c Connectivity, g Geometry, p Props) Block {
	var (
		l  = g.L
		ll = l * l
		m  = p.Material.E * p.Section.S / l
		n  = p.Material.E * p.Section.I / (ll * l)
		Kl = mat.NewSymDense(6, nil)
	)
	Kl.SetSym(0, 0, m)
	Kl.SetSym(0, 3, -m)
	Kl.SetSym(3, 3, m)

	Kl.SetSym(1, 1, 12*n)
	Kl.SetSym(1, 2, 6*l*n)
	Kl.SetSym(1, 4, -12*n)
	Kl.SetSym(1, 5, 6*l*n)
	Kl.SetSym(2, 2, 4*ll*n)
	Kl.SetSym(2, 4, -6*l*n)
	Kl.SetSym(2, 5, 2*ll*n)
	Kl.SetSym(4, 4, 12*n)
	Kl.SetSym(4, 5, -6*l*n)
	Kl.SetSym(5, 5, 4*ll*n)

	return Block{K: Rotate(Kl, Rotation2D(g)), DOFs: blockDOFs(c.I, c.J, D2.DOFPerNode(), 3)}
}

// beam3DStiffness builds the 12x12 space frame matrix: axial, torsion and
// bending in the local x-y (I) and x-z (Iy) planes.
// Slots per node: [ux, uy, uz, rx, ry, rz].
func beam3DStiffness(c Connectivity, g Geometry, p Props) Block {
	var (
		l   = g.L
		ll  = l * l
		lll = ll * l
		E   = p.Material.E
		ea  = E * p.Section.S / l
		gj  = p.Material.G * p.Section.J / l
		ez  = E * p.Section.I
		ey  = E * p.Section.IyOrI()
		Kl  = mat.NewSymDense(12, nil)
	)

	// axial and torsion
	Kl.SetSym(0, 0, ea)
	Kl.SetSym(0, 6, -ea)
	Kl.SetSym(6, 6, ea)
	Kl.SetSym(3, 3, gj)
	Kl.SetSym(3, 9, -gj)
	Kl.SetSym(9, 9, gj)

	// bending about local z: uy, rz
	Kl.SetSym(1, 1, 12*ez/lll)
	Kl.SetSym(1, 5, 6*ez/ll)
	Kl.SetSym(1, 7, -12*ez/lll)
	Kl.SetSym(1, 11, 6*ez/ll)
	Kl.SetSym(5, 5, 4*ez/l)
	Kl.SetSym(5, 7, -6*ez/ll)
	Kl.SetSym(5, 11, 2*ez/l)
	Kl.SetSym(7, 7, 12*ez/lll)
	Kl.SetSym(7, 11, -6*ez/ll)
	Kl.SetSym(11, 11, 4*ez/l)

	// bending about local y: uz, ry
	Kl.SetSym(2, 2, 12*ey/lll)
	Kl.SetSym(2, 4, -6*ey/ll)
	Kl.SetSym(2, 8, -12*ey/lll)
	Kl.SetSym(2, 10, -6*ey/ll)
	Kl.SetSym(4, 4, 4*ey/l)
	Kl.SetSym(4, 8, 6*ey/ll)
	Kl.SetSym(4, 10, 2*ey/l)
	Kl.SetSym(8, 8, 12*ey/lll)
	Kl.SetSym(8, 10, 6*ey/ll)
	Kl.SetSym(10, 10, 4*ey/l)

	return Block{K: Rotate(Kl, Rotation3D(g)), DOFs: blockDOFs(c.I, c.J, D3.DOFPerNode(), 6)}
}

// Rotation2D returns the 6x6 global-to-local matrix R of a plane beam. Each
// node's (ux, uy) pair is rotated by the element angle; rz is left alone.
func Rotation2D(g Geometry) *mat.Dense {
	c, s := g.Dir[0], g.Dir[1]
	R := mat.NewDense(6, 6, nil)
	for _, o := range []int{0, 3} {
		R.Set(o+0, o+0, c)
		R.Set(o+0, o+1, s)
		R.Set(o+1, o+0, -s)
		R.Set(o+1, o+1, c)
		R.Set(o+2, o+2, 1)
	}
	return R
}

// LocalAxes returns the unit local axes (ex, ey, ez) of a space element.
// ex runs from the first to the second endpoint; ey is perpendicular to ex and
// to global Z (global Y for members parallel to Z), so members lying in the
// x-y plane bend in-plane about local z exactly like the 2D beam.
func LocalAxes(g Geometry) (ex, ey, ez [3]float64) {
	copy(ex[:], g.Dir)
	ref := [3]float64{0, 0, 1}
	if math.Hypot(ex[0], ex[1]) < 1e-9 {
		ref = [3]float64{0, 1, 0}
	}
	ey = normalize(cross(ref, ex))
	ez = cross(ex, ey)
	return
}

// Rotation3D returns the 12x12 block-diagonal global-to-local matrix T with
// the local axes as rows of each 3x3 block.
func Rotation3D(g Geometry) *mat.Dense {
	ex, ey, ez := LocalAxes(g)
	T := mat.NewDense(12, 12, nil)
	for k := 0; k < 4; k++ {
		o := 3 * k
		for j := 0; j < 3; j++ {
			T.Set(o+0, o+j, ex[j])
			T.Set(o+1, o+j, ey[j])
			T.Set(o+2, o+j, ez[j])
		}
	}
	return T
}

// Rotate returns Rᵗ·Kl·R. The product is symmetrised to remove round-off.
func Rotate(Kl *mat.SymDense, R *mat.Dense) *mat.SymDense {
	var tmp, kg mat.Dense
	tmp.Mul(R.T(), Kl)
	kg.Mul(&tmp, R)
	n, _ := kg.Dims()
	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			K.SetSym(i, j, 0.5*(kg.At(i, j)+kg.At(j, i)))
		}
	}
	return K
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}
