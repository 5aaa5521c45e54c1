package element

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrZeroLength      = errors.New("zero length element")
	ErrUnsupported     = errors.New("element kind not supported for dimensionality")
	ErrInvalidProperty = errors.New("invalid material or section property")
	ErrUnknownField    = errors.New("unknown dof field")
	ErrUnknownKind     = errors.New("unknown element kind")
)

// Dimensionality represents the spatial dimension of a model
type Dimensionality uint8

const (
	D1 Dimensionality = iota + 1 // axial bars along x
	D2                           // plane frames: ux, uy, rz per node
	D3                           // space frames: ux, uy, uz, rx, ry, rz per node
)

// DOF field names, in the order they are packed inside a 3D node block
const (
	UX = "ux"
	UY = "uy"
	UZ = "uz"
	RX = "rx"
	RY = "ry"
	RZ = "rz"
)

var fieldsByDim = map[Dimensionality][]string{
	D1: {UX},
	D2: {UX, UY, RZ},
	D3: {UX, UY, UZ, RX, RY, RZ},
}

// Valid reports whether d is one of D1, D2 or D3
func (d Dimensionality) Valid() bool {
	return d >= D1 && d <= D3
}

// MustValidate panics on an unsupported dimensionality
func (d Dimensionality) MustValidate() {
	if !d.Valid() {
		panic(fmt.Sprintf("invalid dimensionality %d, must be 1, 2 or 3", uint8(d)))
	}
}

// NumAxes returns the number of translational axes
func (d Dimensionality) NumAxes() int {
	d.MustValidate()
	return int(d)
}

// DOFPerNode returns the size of a node block: 1, 3 or 6
func (d Dimensionality) DOFPerNode() int {
	d.MustValidate()
	return len(fieldsByDim[d])
}

// Fields returns the DOF field names of a node block in packing order
func (d Dimensionality) Fields() []string {
	d.MustValidate()
	return append([]string(nil), fieldsByDim[d]...)
}

// FieldIndex resolves a field name (ux, uy, rz, ...) to its slot in a node block
func (d Dimensionality) FieldIndex(name string) (int, error) {
	d.MustValidate()
	name = strings.ToLower(strings.TrimSpace(name))
	for i, f := range fieldsByDim[d] {
		if f == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w %q for %v", ErrUnknownField, name, d)
}

// FieldName is the inverse of FieldIndex
func (d Dimensionality) FieldName(field int) string {
	d.MustValidate()
	fields := fieldsByDim[d]
	if field < 0 || field >= len(fields) {
		return fmt.Sprintf("dof%d", field)
	}
	return fields[field]
}

func (d Dimensionality) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Dimensionality(%d)", uint8(d))
	}
	return fmt.Sprintf("%dD", uint8(d))
}

// Kind tags the element variants
type Kind uint8

const (
	TrussKind Kind = iota
	BeamKind
)

func (k Kind) String() string {
	switch k {
	case TrussKind:
		return "truss"
	case BeamKind:
		return "beam"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind converts "truss" or "beam" into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "truss", "bar", "rod":
		return TrussKind, nil
	case "beam", "frame":
		return BeamKind, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Key identifies an element by its ordered pair of endpoint node indices
type Key struct {
	I, J int
}

func (k Key) String() string { return fmt.Sprintf("%d-%d", k.I, k.J) }

// Less orders keys by first, then second endpoint
func (k Key) Less(o Key) bool {
	if k.I != o.I {
		return k.I < o.I
	}
	return k.J < o.J
}

// Connectivity holds the indices shared by every line element. Entities are
// owned by the model; elements refer to them by position only.
type Connectivity struct {
	I, J       int // endpoint node indices, order sets the local axis direction
	MaterialID int // index into the model's materials
	SectionID  int // index into the model's sections
}

// Key returns the registry key of the element
func (c Connectivity) Key() Key { return Key{c.I, c.J} }

// Element is the closed set of line elements: *Truss and *Beam.
// New kinds are added by extending this file and the Stiffness dispatch.
type Element interface {
	Kind() Kind
	Conn() Connectivity
	isElement()
}

// Truss is an axial bar, no bending
type Truss struct {
	Connectivity
}

// Beam is an Euler-Bernoulli beam: axial + bending (+ torsion in 3D)
type Beam struct {
	Connectivity
}

func (t *Truss) Kind() Kind { return TrussKind }
func (t *Truss) Conn() Connectivity { return t.Connectivity }
func (t *Truss) isElement() {}
func (b *Beam) Kind() Kind { return BeamKind }
func (b *Beam) Conn() Connectivity { return b.Connectivity }
func (b *Beam) isElement() {}

// New builds the element variant for kind
func New(kind Kind, i, j, material, section int) (Element, error) {
	c := Connectivity{I: i, J: j, MaterialID: material, SectionID: section}
	switch kind {
	case TrussKind:
		return &Truss{c}, nil
	case BeamKind:
		return &Beam{c}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}
