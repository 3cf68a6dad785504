// Package splicingfactory provides the shared tabular types used by the
// diversity and difference packages: a labeled numeric matrix plus helpers
// for reading and writing it as delimited text.
package splicingfactory

import (
	"fmt"
	"math"
)

// Matrix is an ordered, labeled numeric table. It is used both for
// transcript-level expression (transcripts × samples) and for gene-level
// diversity values (genes × samples). Missing cells are represented as NaN;
// use IsNA to test for them.
type Matrix struct {
	RowNames []string
	ColNames []string

	// Values is row-major: len(Values) == len(RowNames), and every row has
	// len == len(ColNames).
	Values [][]float64
}

// NewMatrix allocates a Matrix with the given labels and all cells zero.
func NewMatrix(rowNames, colNames []string) *Matrix {
	values := make([][]float64, len(rowNames))
	for i := range values {
		values[i] = make([]float64, len(colNames))
	}

	return &Matrix{
		RowNames: append([]string{}, rowNames...),
		ColNames: append([]string{}, colNames...),
		Values:   values,
	}
}

// NA is the missing-value marker for Matrix cells.
func NA() float64 {
	return math.NaN()
}

// IsNA reports whether a cell value is missing.
func IsNA(x float64) bool {
	return math.IsNaN(x)
}

func (m *Matrix) NRows() int {
	return len(m.RowNames)
}

func (m *Matrix) NCols() int {
	return len(m.ColNames)
}

// Row returns the i'th row of the matrix. The slice is not a copy.
func (m *Matrix) Row(i int) []float64 {
	return m.Values[i]
}

// CheckRectangular confirms that every row has exactly one value per column
// label.
func (m *Matrix) CheckRectangular() error {
	if len(m.Values) != len(m.RowNames) {
		return fmt.Errorf("matrix has %d rows of values but %d row labels", len(m.Values), len(m.RowNames))
	}

	for i, row := range m.Values {
		if len(row) != len(m.ColNames) {
			return fmt.Errorf("row %q has %d values but the matrix has %d columns", m.RowNames[i], len(row), len(m.ColNames))
		}
	}

	return nil
}
