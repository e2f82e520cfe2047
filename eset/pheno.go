package eset

import (
	"fmt"
	"sort"

	"gopkg.in/guregu/null.v3"
)

// Pheno holds per-sample metadata: one row per sample, arbitrary named string
// columns. Missing cells are invalid null.Strings.
type Pheno struct {
	samples []string
	columns []string
	index   map[string]int
	cells   [][]null.String // [sample][column]
}

// NewPheno builds a metadata table. cells must have one row per sample and
// one entry per column. "NA" and empty cells are treated as missing.
func NewPheno(samples, columns []string, cells [][]string) (*Pheno, error) {
	if len(cells) != len(samples) {
		return nil, fmt.Errorf("%w: %d metadata rows for %d samples", ErrShapeMismatch, len(cells), len(samples))
	}

	p := &Pheno{
		samples: append([]string(nil), samples...),
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		cells:   make([][]null.String, len(cells)),
	}

	for i, col := range columns {
		if _, exists := p.index[col]; exists {
			return nil, fmt.Errorf("metadata column %q appears more than once", col)
		}
		p.index[col] = i
	}

	for i, row := range cells {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: metadata row %d (%s) has %d cells, expected %d", ErrShapeMismatch, i, samples[i], len(row), len(columns))
		}

		p.cells[i] = make([]null.String, len(row))
		for j, v := range row {
			p.cells[i][j] = cellValue(v)
		}
	}

	return p, nil
}

func cellValue(v string) null.String {
	if v == "" || v == "NA" {
		return null.NewString("", false)
	}

	return null.StringFrom(v)
}

func (p *Pheno) Len() int { return len(p.samples) }

func (p *Pheno) Samples() []string { return append([]string(nil), p.samples...) }

func (p *Pheno) Columns() []string { return append([]string(nil), p.columns...) }

// Column returns the values of the named column in sample order.
func (p *Pheno) Column(name string) ([]null.String, error) {
	j, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: metadata column %q", ErrUnknownLabel, name)
	}

	out := make([]null.String, len(p.cells))
	for i := range p.cells {
		out[i] = p.cells[i][j]
	}

	return out, nil
}

// Levels returns the sorted distinct non-missing values of a column.
func (p *Pheno) Levels(name string) ([]string, error) {
	col, err := p.Column(name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, v := range col {
		if v.Valid {
			seen[v.String] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)

	return out, nil
}

// Subset returns the rows at idx, in that order.
func (p *Pheno) Subset(idx []int) (*Pheno, error) {
	out := &Pheno{
		samples: make([]string, 0, len(idx)),
		columns: p.columns,
		index:   p.index,
		cells:   make([][]null.String, 0, len(idx)),
	}

	for _, i := range idx {
		if i < 0 || i >= len(p.samples) {
			return nil, fmt.Errorf("%w: metadata row %d of %d", ErrOutOfRange, i, len(p.samples))
		}
		out.samples = append(out.samples, p.samples[i])
		out.cells = append(out.cells, append([]null.String(nil), p.cells[i]...))
	}

	return out, nil
}

// Reorder returns the metadata rows matching samples, in that order. Every
// sample must be present.
func (p *Pheno) Reorder(samples []string) (*Pheno, error) {
	pos := make(map[string]int, len(p.samples))
	for i, s := range p.samples {
		pos[s] = i
	}

	idx := make([]int, len(samples))
	for i, s := range samples {
		j, ok := pos[s]
		if !ok {
			return nil, fmt.Errorf("%w: sample %q has no metadata row", ErrShapeMismatch, s)
		}
		idx[i] = j
	}

	out, err := p.Subset(idx)
	if err != nil {
		return nil, err
	}
	out.samples = append([]string(nil), samples...)

	return out, nil
}
