package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/notargets/StructKernel/element"
)

func newInfoCmd(root *rootOptions) *cobra.Command {
	var matrices bool
	cmd := &cobra.Command{
		Use:   "info <model.yaml>",
		Short: "Summarize a model file without solving it",
		Long: `Print the dimensionality, entity counts, elements and constraints of a
model file. A model file is YAML of the form:

  dimension: 2
  epsilon: 1e-10
  nodes: [{x: 0}, {x: 1}]
  materials: [{e: 1}]
  sections: [{s: 1, i: 1}]
  elements:
    - {kind: beam, nodes: [0, 1], material: 0, section: 0}
  boundary_conditions:
    - {node: 0, field: ux, value: 0}
  forces:
    - {node: 1, field: uy, value: 3}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(root, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			nodes := m.Nodes()

			fmt.Fprintln(w)
			printHeader(w, "MODEL "+args[0])
			printField(w, "Dimension", m.Dimension)
			printField(w, "Nodes", len(nodes))
			printField(w, "Materials", len(m.Materials()))
			printField(w, "Sections", len(m.Sections()))
			printField(w, "Elements", len(m.Elements()))
			printField(w, "DOFs", m.DOFCount())
			printField(w, "Epsilon", m.Epsilon)
			fmt.Fprintln(w)

			rows := make([][]string, 0, len(m.Elements()))
			for _, key := range m.Elements() {
				el, _ := m.Element(key)
				c := el.Conn()
				length := "-"
				if g, err := element.NewGeometry(nodes[c.I], nodes[c.J], m.Dimension.NumAxes()); err == nil {
					length = formatValue(g.L)
				}
				rows = append(rows, []string{
					key.String(), el.Kind().String(),
					strconv.Itoa(c.MaterialID), strconv.Itoa(c.SectionID), length,
				})
			}
			if len(rows) > 0 {
				printHeader(w, "ELEMENTS")
				renderTable(w, []string{"element", "kind", "material", "section", "length"}, rows)
				fmt.Fprintln(w)
			}

			d := m.DOFPerNode()
			rows = rows[:0]
			for I, v := range m.BoundaryConditions() {
				if v != nil {
					rows = append(rows, []string{strconv.Itoa(I / d), m.Dimension.FieldName(I % d), formatValue(*v)})
				}
			}
			if len(rows) > 0 {
				printHeader(w, "CONSTRAINTS")
				renderTable(w, []string{"node", "field", "value"}, rows)
				fmt.Fprintln(w)
			}

			if matrices {
				printHeader(w, "ELEMENT STIFFNESS")
				for _, key := range m.Elements() {
					b, err := m.ElementBlock(key)
					if err != nil {
						return err
					}
					fmt.Fprintln(w, element.FormatBlock("K_"+key.String(), b, m.Dimension))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&matrices, "matrices", false, "Print every element stiffness block in global axes")
	return cmd
}
