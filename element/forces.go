package element

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// EndForces returns K_e·u_e, the forces the element exerts on its DOFs in
// global orientation, ordered like b.DOFs. u is the full displacement vector.
func EndForces(b Block, u []float64) ([]float64, error) {
	ue := mat.NewVecDense(b.Size(), nil)
	for r, I := range b.DOFs {
		if I >= len(u) {
			return nil, fmt.Errorf("dof %d outside displacement vector of length %d", I, len(u))
		}
		ue.SetVec(r, u[I])
	}
	var fe mat.VecDense
	fe.MulVec(b.K, ue)
	return fe.RawVector().Data, nil
}

// AxialForce computes N = E·S/L · ex·(u_J - u_I), tension positive
func AxialForce(el Element, p Props, dim Dimensionality, u []float64) (float64, error) {
	g, err := Validate(el, p, dim)
	if err != nil {
		return 0, err
	}
	var (
		c   = el.Conn()
		d   = dim.DOFPerNode()
		ext float64
	)
	for k, e := range g.Dir {
		i, j := c.I*d+k, c.J*d+k
		if i >= len(u) || j >= len(u) {
			return 0, fmt.Errorf("element %v outside displacement vector of length %d", c.Key(), len(u))
		}
		ext += e * (u[j] - u[i])
	}
	return p.Material.E * p.Section.S / g.L * ext, nil
}
