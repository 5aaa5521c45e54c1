package readers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/notargets/StructKernel/element"
	"github.com/notargets/StructKernel/model"
)

var ErrInvalidDocument = errors.New("invalid model document")

// Document is the on-disk layout of a model
type Document struct {
	Dimension          int           `yaml:"dimension"`
	Epsilon            float64       `yaml:"epsilon"`
	MaxIterations      int           `yaml:"max_iterations,omitempty"`
	Nodes              []NodeDoc     `yaml:"nodes"`
	Materials          []MaterialDoc `yaml:"materials"`
	Sections           []SectionDoc  `yaml:"sections"`
	Elements           []ElementDoc  `yaml:"elements"`
	BoundaryConditions []DOFValue    `yaml:"boundary_conditions,omitempty"`
	Forces             []DOFValue    `yaml:"forces,omitempty"`
}

type NodeDoc struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y,omitempty"`
	Z float64 `yaml:"z,omitempty"`
}

type MaterialDoc struct {
	E float64 `yaml:"e"`
	G float64 `yaml:"g,omitempty"`
}

type SectionDoc struct {
	S  float64 `yaml:"s"`
	I  float64 `yaml:"i,omitempty"`
	Iy float64 `yaml:"iy,omitempty"`
	J  float64 `yaml:"j,omitempty"`
}

type ElementDoc struct {
	Kind     string `yaml:"kind"`
	Nodes    []int  `yaml:"nodes,flow"`
	Material int    `yaml:"material"`
	Section  int    `yaml:"section"`
}

// DOFValue addresses one node field by name
type DOFValue struct {
	Node  int     `yaml:"node"`
	Field string  `yaml:"field"`
	Value float64 `yaml:"value"`
}

// NewDocument captures the persisted state of a model. Forces are taken
// from the current force vector, so a solved model stores K·u.
func NewDocument(m *model.Model) *Document {
	dim := m.Dimension
	doc := &Document{
		Dimension:     int(dim),
		Epsilon:       m.Epsilon,
		MaxIterations: m.MaxIterations,
	}
	for _, n := range m.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeDoc{X: n.X, Y: n.Y, Z: n.Z})
	}
	for _, mat := range m.Materials() {
		doc.Materials = append(doc.Materials, MaterialDoc{E: mat.E, G: mat.G})
	}
	for _, s := range m.Sections() {
		doc.Sections = append(doc.Sections, SectionDoc{S: s.S, I: s.I, Iy: s.Iy, J: s.J})
	}
	for _, key := range m.Elements() {
		el, _ := m.Element(key)
		c := el.Conn()
		doc.Elements = append(doc.Elements, ElementDoc{
			Kind:     el.Kind().String(),
			Nodes:    []int{c.I, c.J},
			Material: c.MaterialID,
			Section:  c.SectionID,
		})
	}
	d := m.DOFPerNode()
	for I, v := range m.BoundaryConditions() {
		if v != nil {
			doc.BoundaryConditions = append(doc.BoundaryConditions,
				DOFValue{Node: I / d, Field: dim.FieldName(I % d), Value: *v})
		}
	}
	for I, v := range m.Forces() {
		if v != 0 {
			doc.Forces = append(doc.Forces, DOFValue{Node: I / d, Field: dim.FieldName(I % d), Value: v})
		}
	}
	return doc
}

// Model rebuilds a model from the document, validating every entry
func (doc *Document) Model() (*model.Model, error) {
	dim := element.Dimensionality(doc.Dimension)
	if !dim.Valid() {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidDocument, doc.Dimension)
	}
	m := model.New(dim, doc.Epsilon)
	m.MaxIterations = doc.MaxIterations
	for _, n := range doc.Nodes {
		m.AddNode(element.Node{X: n.X, Y: n.Y, Z: n.Z})
	}
	for _, mat := range doc.Materials {
		m.AddMaterial(element.Material{E: mat.E, G: mat.G})
	}
	for _, s := range doc.Sections {
		m.AddSection(element.Section{S: s.S, I: s.I, Iy: s.Iy, J: s.J})
	}
	for i, e := range doc.Elements {
		kind, err := element.ParseKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if err = m.AddElement(kind, e.Nodes, e.Material, e.Section); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	for _, bc := range doc.BoundaryConditions {
		field, err := dim.FieldIndex(bc.Field)
		if err != nil {
			return nil, fmt.Errorf("boundary condition on node %d: %w", bc.Node, err)
		}
		if err = m.AddUBoundaryCondition(bc.Node, field, bc.Value); err != nil {
			return nil, fmt.Errorf("boundary condition on node %d: %w", bc.Node, err)
		}
	}
	for _, f := range doc.Forces {
		field, err := dim.FieldIndex(f.Field)
		if err != nil {
			return nil, fmt.Errorf("force on node %d: %w", f.Node, err)
		}
		if err = m.SetForce(f.Node, field, f.Value); err != nil {
			return nil, fmt.Errorf("force on node %d: %w", f.Node, err)
		}
	}
	return m, nil
}

// WriteModel encodes a model as YAML
func WriteModel(w io.Writer, m *model.Model) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(m)); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return enc.Close()
}

// ReadModel decodes a YAML model. Unknown keys are rejected.
func ReadModel(r io.Reader) (*model.Model, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc.Model()
}

// SaveModelFile writes a model to path
func SaveModelFile(path string, m *model.Model) error {
	var buf bytes.Buffer
	if err := WriteModel(&buf, m); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadModelFile loads a model from path
func ReadModelFile(path string) (*model.Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	m, err := ReadModel(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
