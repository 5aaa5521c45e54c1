package model

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/notargets/StructKernel/element"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotSolved       = errors.New("model has not been solved")
	ErrNoElement       = errors.New("no element registered")
)

// Model owns the entities, the element registry and the global system of a
// skeletal structure. It is not safe for concurrent use.
type Model struct {
	Dimension     element.Dimensionality
	Epsilon       float64 // relative residual tolerance of the iterative solve
	MaxIterations int     // 0 lets the solver pick a bound from the system size

	// Entities, append-only
	nodes     []element.Node
	materials []element.Material
	sections  []element.Section
	elements  map[element.Key]element.Element

	// Global system, indexed by global equation number
	k  *sparse.CSR // assembled stiffness of the last solve
	u  []float64   // displacements
	f  []float64   // applied forces before solve, K·u after
	bc []*float64  // prescribed displacements, nil when free

	// Reduced system of the last solve
	kReduced *sparse.CSR
	fReduced []float64
	stats    Stats

	logger *slog.Logger
}

// Stats describes the last solve
type Stats struct {
	NumDOF     int
	NumFree    int
	NNZ        int // stored entries of the global stiffness
	Iterations int
	Residual   float64 // relative residual of the reduced system
}

// New creates an empty model. An invalid dimensionality panics.
func New(dim element.Dimensionality, epsilon float64) *Model {
	dim.MustValidate()
	return &Model{
		Dimension: dim,
		Epsilon:   epsilon,
		elements:  make(map[element.Key]element.Element),
		logger:    slog.Default(),
	}
}

// SetLogger replaces the logger used for solve diagnostics
func (m *Model) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	m.logger = l
}

// DOFPerNode returns 1, 3 or 6 depending on the dimensionality
func (m *Model) DOFPerNode() int { return m.Dimension.DOFPerNode() }

// DOFCount returns the number of global equations
func (m *Model) DOFCount() int { return len(m.nodes) * m.DOFPerNode() }

// AddNode appends a node and grows the global vectors by one DOF block
func (m *Model) AddNode(n element.Node) int {
	m.nodes = append(m.nodes, n)
	d := m.DOFPerNode()
	m.u = append(m.u, make([]float64, d)...)
	m.f = append(m.f, make([]float64, d)...)
	m.bc = append(m.bc, make([]*float64, d)...)
	m.k = nil
	return len(m.nodes) - 1
}

// AddMaterial appends a material and returns its index
func (m *Model) AddMaterial(mat element.Material) int {
	m.materials = append(m.materials, mat)
	return len(m.materials) - 1
}

// AddSection appends a section and returns its index
func (m *Model) AddSection(s element.Section) int {
	m.sections = append(m.sections, s)
	return len(m.sections) - 1
}

// AddElement registers an element between two nodes. Registering the same
// ordered node pair again replaces the previous element.
func (m *Model) AddElement(kind element.Kind, nodes []int, material, section int) error {
	if len(nodes) != 2 {
		return fmt.Errorf("%v element needs 2 nodes, got %d", kind, len(nodes))
	}
	el, err := element.New(kind, nodes[0], nodes[1], material, section)
	if err != nil {
		return err
	}
	p, err := m.props(el)
	if err != nil {
		return err
	}
	if _, err = element.Validate(el, p, m.Dimension); err != nil {
		return fmt.Errorf("element %v: %w", el.Conn().Key(), err)
	}
	m.elements[el.Conn().Key()] = el
	return nil
}

// props resolves the entities referenced by an element
func (m *Model) props(el element.Element) (p element.Props, err error) {
	c := el.Conn()
	for _, n := range []int{c.I, c.J} {
		if n < 0 || n >= len(m.nodes) {
			return p, fmt.Errorf("%w: node %d of %d", ErrIndexOutOfRange, n, len(m.nodes))
		}
	}
	if c.MaterialID < 0 || c.MaterialID >= len(m.materials) {
		return p, fmt.Errorf("%w: material %d of %d", ErrIndexOutOfRange, c.MaterialID, len(m.materials))
	}
	if c.SectionID < 0 || c.SectionID >= len(m.sections) {
		return p, fmt.Errorf("%w: section %d of %d", ErrIndexOutOfRange, c.SectionID, len(m.sections))
	}
	return element.Props{
		A:        m.nodes[c.I],
		B:        m.nodes[c.J],
		Material: m.materials[c.MaterialID],
		Section:  m.sections[c.SectionID],
	}, nil
}

// equation maps (node, field) to a global equation number
func (m *Model) equation(node, field int) (int, error) {
	if node < 0 || node >= len(m.nodes) {
		return -1, fmt.Errorf("%w: node %d of %d", ErrIndexOutOfRange, node, len(m.nodes))
	}
	if field < 0 || field >= m.DOFPerNode() {
		return -1, fmt.Errorf("%w: field %d of %d for %v", ErrIndexOutOfRange, field, m.DOFPerNode(), m.Dimension)
	}
	return node*m.DOFPerNode() + field, nil
}

// AddUBoundaryCondition prescribes the displacement of one node DOF
func (m *Model) AddUBoundaryCondition(node, field int, value float64) error {
	I, err := m.equation(node, field)
	if err != nil {
		return err
	}
	m.bc[I] = &value
	return nil
}

// RemoveUBoundaryCondition frees a previously prescribed DOF
func (m *Model) RemoveUBoundaryCondition(node, field int) error {
	I, err := m.equation(node, field)
	if err != nil {
		return err
	}
	m.bc[I] = nil
	return nil
}

// SetForce overwrites the applied force of one node DOF
func (m *Model) SetForce(node, field int, value float64) error {
	I, err := m.equation(node, field)
	if err != nil {
		return err
	}
	m.f[I] = value
	return nil
}

// Nodes returns a copy of the node list
func (m *Model) Nodes() []element.Node { return append([]element.Node(nil), m.nodes...) }

// Materials returns a copy of the material list
func (m *Model) Materials() []element.Material {
	return append([]element.Material(nil), m.materials...)
}

// Sections returns a copy of the section list
func (m *Model) Sections() []element.Section { return append([]element.Section(nil), m.sections...) }

// Elements returns the registered element keys in ascending order
func (m *Model) Elements() []element.Key {
	keys := make([]element.Key, 0, len(m.elements))
	for k := range m.elements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a].Less(keys[b]) })
	return keys
}

// Element returns the element registered for key
func (m *Model) Element(key element.Key) (element.Element, bool) {
	el, ok := m.elements[key]
	return el, ok
}

// BoundaryConditions returns a copy of the prescribed-displacement vector
func (m *Model) BoundaryConditions() []*float64 {
	out := make([]*float64, len(m.bc))
	for I, v := range m.bc {
		if v != nil {
			val := *v
			out[I] = &val
		}
	}
	return out
}

// Equal compares the persisted state of two models: dimensionality,
// tolerance, entities, elements, boundary conditions and forces.
func (m *Model) Equal(o *Model) bool {
	if m.Dimension != o.Dimension || m.Epsilon != o.Epsilon || m.MaxIterations != o.MaxIterations {
		return false
	}
	if !slices.Equal(m.nodes, o.nodes) || !slices.Equal(m.materials, o.materials) ||
		!slices.Equal(m.sections, o.sections) || !slices.Equal(m.f, o.f) {
		return false
	}
	if len(m.elements) != len(o.elements) {
		return false
	}
	for k, el := range m.elements {
		oel, ok := o.elements[k]
		if !ok || el.Kind() != oel.Kind() || el.Conn() != oel.Conn() {
			return false
		}
	}
	if len(m.bc) != len(o.bc) {
		return false
	}
	for I := range m.bc {
		a, b := m.bc[I], o.bc[I]
		if (a == nil) != (b == nil) || (a != nil && *a != *b) {
			return false
		}
	}
	return true
}
