// Package eset holds annotated expression matrices (features x samples) and
// reshapes them into labeled samples x features tables for clustering tools.
package eset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ExpressionSet is an annotated features x samples matrix of measurements.
// It is immutable: every method that changes something returns a new value.
type ExpressionSet struct {
	exprs      *mat.Dense
	features   []string
	samples    []string
	pheno      *Pheno
	annotation string
}

// New validates and copies its inputs. Feature and sample identifiers are
// normalized with MakeUnique.
func New(exprs mat.Matrix, features, samples []string) (*ExpressionSet, error) {
	if len(features) == 0 || len(samples) == 0 || exprs == nil {
		return nil, fmt.Errorf("%w: %d features, %d samples", ErrEmptyInput, len(features), len(samples))
	}

	if r, c := exprs.Dims(); r != len(features) || c != len(samples) {
		return nil, fmt.Errorf("%w: matrix is %dx%d, identifiers are %dx%d", ErrShapeMismatch, r, c, len(features), len(samples))
	}

	f, err := MakeUnique(features)
	if err != nil {
		return nil, err
	}
	s, err := MakeUnique(samples)
	if err != nil {
		return nil, err
	}

	return &ExpressionSet{
		exprs:    mat.DenseCopyOf(exprs),
		features: f,
		samples:  s,
	}, nil
}

// WithPheno attaches sample metadata, which must have one row per sample.
// Rows are matched to samples by identifier; a sample without a metadata row
// is an ErrShapeMismatch.
func (e *ExpressionSet) WithPheno(p *Pheno) (*ExpressionSet, error) {
	if p == nil {
		out := e.clone()
		out.pheno = nil
		return out, nil
	}

	if p.Len() != len(e.samples) {
		return nil, fmt.Errorf("%w: %d metadata rows for %d samples", ErrShapeMismatch, p.Len(), len(e.samples))
	}

	ordered, err := p.Reorder(e.samples)
	if err != nil {
		return nil, err
	}

	out := e.clone()
	out.pheno = ordered

	return out, nil
}

// WithAnnotation sets the annotation tag, e.g. the platform name used to pick
// an annotation source.
func (e *ExpressionSet) WithAnnotation(tag string) *ExpressionSet {
	out := e.clone()
	out.annotation = tag

	return out
}

// WithFeatures replaces the feature identifiers, e.g. with gene symbols.
func (e *ExpressionSet) WithFeatures(ids []string) (*ExpressionSet, error) {
	if len(ids) != len(e.features) {
		return nil, fmt.Errorf("%w: %d identifiers for %d features", ErrShapeMismatch, len(ids), len(e.features))
	}

	f, err := MakeUnique(ids)
	if err != nil {
		return nil, err
	}

	out := e.clone()
	out.features = f

	return out, nil
}

// clone is shallow for the matrix, which is never mutated after New.
func (e *ExpressionSet) clone() *ExpressionSet {
	out := *e
	return &out
}

// Dims returns the number of features and samples.
func (e *ExpressionSet) Dims() (features, samples int) { return e.exprs.Dims() }

// At returns the value for feature f in sample s.
func (e *ExpressionSet) At(f, s int) float64 { return e.exprs.At(f, s) }

func (e *ExpressionSet) Features() []string { return append([]string(nil), e.features...) }

func (e *ExpressionSet) Samples() []string { return append([]string(nil), e.samples...) }

func (e *ExpressionSet) Pheno() *Pheno { return e.pheno }

func (e *ExpressionSet) Annotation() string { return e.annotation }

// Exprs returns a copy of the features x samples matrix.
func (e *ExpressionSet) Exprs() *mat.Dense { return mat.DenseCopyOf(e.exprs) }

// Row returns a copy of the values for feature f across all samples.
func (e *ExpressionSet) Row(f int) []float64 { return mat.Row(nil, f, e.exprs) }

// Subset returns the features and samples at the given indices, in the given
// order. A nil slice selects everything.
func (e *ExpressionSet) Subset(featureIdx, sampleIdx []int) (*ExpressionSet, error) {
	nf, ns := e.Dims()
	if featureIdx == nil {
		featureIdx = seq(nf)
	}
	if sampleIdx == nil {
		sampleIdx = seq(ns)
	}

	if len(featureIdx) == 0 || len(sampleIdx) == 0 {
		return nil, fmt.Errorf("%w: subset of %d features, %d samples", ErrEmptyInput, len(featureIdx), len(sampleIdx))
	}

	features := make([]string, len(featureIdx))
	for i, f := range featureIdx {
		if f < 0 || f >= nf {
			return nil, fmt.Errorf("%w: feature %d of %d", ErrOutOfRange, f, nf)
		}
		features[i] = e.features[f]
	}

	samples := make([]string, len(sampleIdx))
	for j, s := range sampleIdx {
		if s < 0 || s >= ns {
			return nil, fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, s, ns)
		}
		samples[j] = e.samples[s]
	}

	data := mat.NewDense(len(featureIdx), len(sampleIdx), nil)
	for i, f := range featureIdx {
		for j, s := range sampleIdx {
			data.Set(i, j, e.exprs.At(f, s))
		}
	}

	out, err := New(data, features, samples)
	if err != nil {
		return nil, err
	}
	out.annotation = e.annotation

	if e.pheno != nil {
		p, err := e.pheno.Subset(sampleIdx)
		if err != nil {
			return nil, err
		}
		p.samples = out.Samples()
		out.pheno = p
	}

	return out, nil
}

// SubsetByName is like Subset but selects by identifier. A nil slice selects
// everything.
func (e *ExpressionSet) SubsetByName(features, samples []string) (*ExpressionSet, error) {
	featureIdx, err := lookup(e.features, features)
	if err != nil {
		return nil, err
	}

	sampleIdx, err := lookup(e.samples, samples)
	if err != nil {
		return nil, err
	}

	return e.Subset(featureIdx, sampleIdx)
}

// Transpose returns the samples x features view of the set.
func (e *ExpressionSet) Transpose() (*TabularView, error) {
	return ToTabular(e)
}

func lookup(universe, names []string) ([]int, error) {
	if names == nil {
		return nil, nil
	}

	pos := make(map[string]int, len(universe))
	for i, v := range universe {
		pos[v] = i
	}

	out := make([]int, len(names))
	for i, name := range names {
		j, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
		}
		out[i] = j
	}

	return out, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}
