package builder

import (
	"fmt"

	"github.com/notargets/StructKernel/element"
	"github.com/notargets/StructKernel/model"
)

// Config holds configuration for creating a Builder
type Config struct {
	Dimension     element.Dimensionality
	Epsilon       float64 // 0 selects the solver default
	MaxIterations int
}

// Builder provides a fluent interface for assembling a model. Every call
// records into the model as it goes; the first failure is kept and returned
// by Build, later calls become no-ops.
type Builder struct {
	m   *model.Model
	err error
}

// New creates a Builder for an empty model. An invalid dimensionality panics.
func New(cfg Config) *Builder {
	m := model.New(cfg.Dimension, cfg.Epsilon)
	m.MaxIterations = cfg.MaxIterations
	return &Builder{m: m}
}

// Err returns the first recorded failure
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil && err != nil {
		b.err = err
	}
	return b
}

// Node appends a node. Trailing coordinates may be omitted and default to zero.
func (b *Builder) Node(coords ...float64) *Builder {
	if b.err != nil {
		return b
	}
	if len(coords) > 3 {
		return b.fail(fmt.Errorf("node %d: %d coordinates, at most 3 allowed", len(b.m.Nodes()), len(coords)))
	}
	var c [3]float64
	copy(c[:], coords)
	b.m.AddNode(element.Node{X: c[0], Y: c[1], Z: c[2]})
	return b
}

// Material appends a material with Young's modulus E and shear modulus G
func (b *Builder) Material(E, G float64) *Builder {
	if b.err == nil {
		b.m.AddMaterial(element.Material{E: E, G: G})
	}
	return b
}

// Section appends a section
func (b *Builder) Section(s element.Section) *Builder {
	if b.err == nil {
		b.m.AddSection(s)
	}
	return b
}

// Truss registers a truss between nodes i and j
func (b *Builder) Truss(i, j, material, section int) *Builder {
	return b.element(element.TrussKind, i, j, material, section)
}

// Beam registers a beam between nodes i and j
func (b *Builder) Beam(i, j, material, section int) *Builder {
	return b.element(element.BeamKind, i, j, material, section)
}

func (b *Builder) element(kind element.Kind, i, j, material, section int) *Builder {
	if b.err != nil {
		return b
	}
	return b.fail(b.m.AddElement(kind, []int{i, j}, material, section))
}

// Fix prescribes zero displacement on the named fields of a node. With no
// field names every DOF of the node is fixed.
func (b *Builder) Fix(node int, fields ...string) *Builder {
	if len(fields) == 0 {
		fields = b.m.Dimension.Fields()
	}
	for _, name := range fields {
		b.Prescribe(node, name, 0)
	}
	return b
}

// Prescribe sets the displacement of a node field to value
func (b *Builder) Prescribe(node int, field string, value float64) *Builder {
	if b.err != nil {
		return b
	}
	idx, err := b.m.Dimension.FieldIndex(field)
	if err != nil {
		return b.fail(fmt.Errorf("node %d: %w", node, err))
	}
	return b.fail(b.m.AddUBoundaryCondition(node, idx, value))
}

// Load sets the applied force of a node field to value
func (b *Builder) Load(node int, field string, value float64) *Builder {
	if b.err != nil {
		return b
	}
	idx, err := b.m.Dimension.FieldIndex(field)
	if err != nil {
		return b.fail(fmt.Errorf("node %d: %w", node, err))
	}
	return b.fail(b.m.SetForce(node, idx, value))
}

// Build returns the model, or the first error recorded while building it
func (b *Builder) Build() (*model.Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.m, nil
}
