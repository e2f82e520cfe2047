package eset

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Container is the read-only view of an expression container that the
// adapter needs. *ExpressionSet satisfies it.
type Container interface {
	// Dims returns the number of features and samples.
	Dims() (features, samples int)

	// At returns the value for feature f in sample s.
	At(f, s int) float64

	Features() []string
	Samples() []string
}

// Clusterer is an interactive or batch clustering routine that consumes a
// labeled table. Its session state is its own; R is whatever it hands back.
type Clusterer[R any] interface {
	Cluster(ctx context.Context, t Tabular) (R, error)
}

// ClustererFunc adapts a plain function to Clusterer.
type ClustererFunc[R any] func(ctx context.Context, t Tabular) (R, error)

func (f ClustererFunc[R]) Cluster(ctx context.Context, t Tabular) (R, error) {
	return f(ctx, t)
}

// ToTabular transposes a container into a samples x features view labeled by
// the de-duplicated sample and feature identifiers. Values are copied exactly;
// nothing is filtered or reordered.
func ToTabular(c Container) (*TabularView, error) {
	nf, ns := c.Dims()
	features, samples := c.Features(), c.Samples()

	if nf == 0 || ns == 0 || len(features) == 0 || len(samples) == 0 {
		return nil, fmt.Errorf("%w: %d features, %d samples", ErrEmptyInput, nf, ns)
	}
	if nf != len(features) || ns != len(samples) {
		return nil, fmt.Errorf("%w: matrix is %dx%d, identifiers are %dx%d", ErrShapeMismatch, nf, ns, len(features), len(samples))
	}

	rows, err := MakeUnique(samples)
	if err != nil {
		return nil, err
	}
	cols, err := MakeUnique(features)
	if err != nil {
		return nil, err
	}

	data := mat.NewDense(ns, nf, nil)
	for f := 0; f < nf; f++ {
		for s := 0; s < ns; s++ {
			data.Set(s, f, c.At(f, s))
		}
	}

	return &TabularView{data: data, rows: rows, cols: cols}, nil
}

// Adapt reshapes c into its Tabular View and hands it to the clustering
// routine, returning whatever the routine returns. Errors from the routine
// are passed through untouched.
func Adapt[R any](ctx context.Context, c Container, clusterer Clusterer[R]) (R, error) {
	view, err := ToTabular(c)
	if err != nil {
		var zero R
		return zero, err
	}

	return clusterer.Cluster(ctx, view)
}
