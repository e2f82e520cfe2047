// Package diffexpr fits a linear model to every feature of an expression set
// and tests for differential expression with empirical-Bayes moderated
// statistics.
package diffexpr

import (
	"errors"
	"fmt"

	"github.com/carbocation/esetclust/eset"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingular      = errors.New("diffexpr: design matrix is not of full rank")
	ErrShapeMismatch = errors.New("diffexpr: design rows do not match samples")
	ErrTooFewLevels  = errors.New("diffexpr: grouping column needs at least two levels")
	ErrMissingValue  = errors.New("diffexpr: grouping column has missing values")
)

// Intercept is the name of the first coefficient of every design.
const Intercept = "(Intercept)"

// Design is a model matrix with one row per sample and named columns.
type Design struct {
	X            *mat.Dense
	Coefficients []string

	// Column and Levels describe the factor the design was built from; the
	// first level is the reference.
	Column string
	Levels []string
}

// DesignFromPheno builds the treatment-contrast design ~ factor(column): an
// intercept plus one indicator per non-reference level. The reference level
// is the first level in sorted order.
func DesignFromPheno(p *eset.Pheno, column string) (*Design, error) {
	if p == nil {
		return nil, eset.ErrNoPheno
	}

	values, err := p.Column(column)
	if err != nil {
		return nil, err
	}
	levels, err := p.Levels(column)
	if err != nil {
		return nil, err
	}
	if len(levels) < 2 {
		return nil, fmt.Errorf("%w: %q has %d", ErrTooFewLevels, column, len(levels))
	}

	levelIdx := make(map[string]int, len(levels))
	for i, l := range levels {
		levelIdx[l] = i
	}

	samples := p.Samples()
	X := mat.NewDense(len(values), len(levels), nil)
	for i, v := range values {
		if !v.Valid {
			return nil, fmt.Errorf("%w: sample %s in %q", ErrMissingValue, samples[i], column)
		}

		X.Set(i, 0, 1)
		if j := levelIdx[v.String]; j > 0 {
			X.Set(i, j, 1)
		}
	}

	coefs := make([]string, len(levels))
	coefs[0] = Intercept
	for i, l := range levels[1:] {
		coefs[i+1] = column + l
	}

	return &Design{X: X, Coefficients: coefs, Column: column, Levels: levels}, nil
}

// Groups returns the level index of every sample.
func (d *Design) Groups() []int {
	n, p := d.X.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 1; j < p; j++ {
			if d.X.At(i, j) == 1 {
				out[i] = j
			}
		}
	}

	return out
}
