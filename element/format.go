package element

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// FormatBlock renders an element block as a labelled matrix, one row per
// global DOF, for diagnostics.
func FormatBlock(name string, b Block, dim Dimensionality) string {
	var (
		sb  strings.Builder
		d   = dim.DOFPerNode()
		lbl = make([]string, b.Size())
	)
	for r, I := range b.DOFs {
		lbl[r] = fmt.Sprintf("%d.%s", I/d, dim.FieldName(I%d))
	}

	sb.WriteString(fmt.Sprintf("%s [%d][%d] = {\n", name, b.Size(), b.Size()))
	sb.WriteString(fmt.Sprintf("    %8s", ""))
	for _, l := range lbl {
		sb.WriteString(fmt.Sprintf(" %12s", l))
	}
	sb.WriteString("\n")
	for i := 0; i < b.Size(); i++ {
		sb.WriteString(fmt.Sprintf("    %8s", lbl[i]))
		for j := 0; j < b.Size(); j++ {
			sb.WriteString(fmt.Sprintf(" %12.5e", b.K.At(i, j)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// FormatMatrix formats a dense matrix with full precision, rows in braces
func FormatMatrix(name string, m mat.Matrix) string {
	rows, cols := m.Dims()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s[%d][%d] = {\n", name, rows, cols))
	for i := 0; i < rows; i++ {
		sb.WriteString("    {")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%.15e", m.At(i, j)))
		}
		sb.WriteString("}")
		if i < rows-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
