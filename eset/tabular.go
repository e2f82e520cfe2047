package eset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Tabular is anything with a numeric matrix and labels on both of its axes.
// Clustering tools accept a Tabular.
type Tabular interface {
	Matrix() mat.Matrix
	RowLabels() []string
	ColLabels() []string
}

// TabularView is the samples x features orientation of an ExpressionSet:
// rows are samples and columns are features.
type TabularView struct {
	data *mat.Dense
	rows []string
	cols []string
}

// NewTabular wraps a matrix with row and column labels. The labels are made
// unique.
func NewTabular(data mat.Matrix, rows, cols []string) (*TabularView, error) {
	if len(rows) == 0 || len(cols) == 0 || data == nil {
		return nil, fmt.Errorf("%w: %d rows, %d columns", ErrEmptyInput, len(rows), len(cols))
	}
	if r, c := data.Dims(); r != len(rows) || c != len(cols) {
		return nil, fmt.Errorf("%w: matrix is %dx%d, labels are %dx%d", ErrShapeMismatch, r, c, len(rows), len(cols))
	}

	r, err := MakeUnique(rows)
	if err != nil {
		return nil, err
	}
	c, err := MakeUnique(cols)
	if err != nil {
		return nil, err
	}

	return &TabularView{data: mat.DenseCopyOf(data), rows: r, cols: c}, nil
}

func (t *TabularView) Matrix() mat.Matrix { return t.data }

func (t *TabularView) RowLabels() []string { return append([]string(nil), t.rows...) }

func (t *TabularView) ColLabels() []string { return append([]string(nil), t.cols...) }

func (t *TabularView) Dims() (rows, cols int) { return t.data.Dims() }

func (t *TabularView) At(row, col int) float64 { return t.data.At(row, col) }

// Row returns a copy of one sample's values.
func (t *TabularView) Row(i int) []float64 { return mat.Row(nil, i, t.data) }

// WriteTSV writes the view with a header of column labels and one line per
// row, the row label first. NaN is written as NA.
func (t *TabularView) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("sample")
	for _, c := range t.cols {
		bw.WriteByte('\t')
		bw.WriteString(c)
	}
	bw.WriteByte('\n')

	_, nc := t.Dims()
	for i, label := range t.rows {
		bw.WriteString(label)
		for j := 0; j < nc; j++ {
			bw.WriteByte('\t')
			v := t.data.At(i, j)
			if v != v {
				bw.WriteString("NA")
				continue
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}
