package eset

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func literal3x4(t *testing.T) *ExpressionSet {
	t.Helper()

	data := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	})

	es, err := New(data, []string{"g1", "g2", "g3"}, []string{"s1", "s2", "s3", "s4"})
	if err != nil {
		t.Fatal(err)
	}

	return es
}

func TestToTabularLiteral(t *testing.T) {
	es := literal3x4(t)

	view, err := ToTabular(es)
	if err != nil {
		t.Fatal(err)
	}

	if r, c := view.Dims(); r != 4 || c != 3 {
		t.Fatalf("Expected a 4x3 view, got %dx%d", r, c)
	}

	if got := view.RowLabels(); !reflect.DeepEqual(got, []string{"s1", "s2", "s3", "s4"}) {
		t.Errorf("Row labels: %v", got)
	}
	if got := view.ColLabels(); !reflect.DeepEqual(got, []string{"g1", "g2", "g3"}) {
		t.Errorf("Column labels: %v", got)
	}

	expected := [][]float64{
		{1, 5, 9},
		{2, 6, 10},
		{3, 7, 11},
		{4, 8, 12},
	}
	for s, row := range expected {
		if got := view.Row(s); !reflect.DeepEqual(got, row) {
			t.Errorf("Row %d: got %v, expected %v", s, got, row)
		}
	}
}

func TestToTabularExactTransposition(t *testing.T) {
	nf, ns := 7, 5
	data := mat.NewDense(nf, ns, nil)
	features := make([]string, nf)
	samples := make([]string, ns)
	for f := 0; f < nf; f++ {
		features[f] = "probe" + string(rune('a'+f))
		for s := 0; s < ns; s++ {
			data.Set(f, s, float64(f)*1.5-float64(s)/3)
		}
	}
	for s := range samples {
		samples[s] = "GSM" + string(rune('0'+s))
	}

	es, err := New(data, features, samples)
	if err != nil {
		t.Fatal(err)
	}

	view, err := ToTabular(es)
	if err != nil {
		t.Fatal(err)
	}

	if r, c := view.Dims(); r != ns || c != nf {
		t.Fatalf("Expected %dx%d, got %dx%d", ns, nf, r, c)
	}

	for f := 0; f < nf; f++ {
		for s := 0; s < ns; s++ {
			if view.At(s, f) != es.At(f, s) {
				t.Errorf("Cell (%d,%d): %v != %v", s, f, view.At(s, f), es.At(f, s))
			}
		}
	}
}

func TestToTabularIdempotent(t *testing.T) {
	es := literal3x4(t)

	a, err := ToTabular(es)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ToTabular(es)
	if err != nil {
		t.Fatal(err)
	}

	if !mat.Equal(a.Matrix(), b.Matrix()) ||
		!reflect.DeepEqual(a.RowLabels(), b.RowLabels()) ||
		!reflect.DeepEqual(a.ColLabels(), b.ColLabels()) {
		t.Error("Two transformations of the same input differ")
	}
}

// rawContainer lets tests bypass the validation done by New.
type rawContainer struct {
	nf, ns   int
	features []string
	samples  []string
}

func (r rawContainer) Dims() (int, int)   { return r.nf, r.ns }
func (r rawContainer) At(f, s int) float64 { return float64(f*100 + s) }
func (r rawContainer) Features() []string { return r.features }
func (r rawContainer) Samples() []string  { return r.samples }

func TestToTabularDuplicateSamples(t *testing.T) {
	c := rawContainer{nf: 2, ns: 3, features: []string{"f1", "f2"}, samples: []string{"A", "A", "B"}}

	view, err := ToTabular(c)
	if err != nil {
		t.Fatal(err)
	}

	if got := view.RowLabels(); !reflect.DeepEqual(got, []string{"A", "A.1", "B"}) {
		t.Errorf("Row labels: %v", got)
	}
	if view.At(1, 1) != 101 {
		t.Errorf("Cell (1,1) is %v, expected 101", view.At(1, 1))
	}
}

func TestToTabularErrors(t *testing.T) {
	for name, c := range map[string]rawContainer{
		"zero samples":  {nf: 2, ns: 0, features: []string{"f1", "f2"}, samples: nil},
		"zero features": {nf: 0, ns: 2, features: nil, samples: []string{"a", "b"}},
	} {
		if _, err := ToTabular(c); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("%s: expected ErrEmptyInput, got %v", name, err)
		}
	}

	mismatch := rawContainer{nf: 2, ns: 2, features: []string{"f1"}, samples: []string{"a", "b"}}
	if _, err := ToTabular(mismatch); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestAdaptHandsOffView(t *testing.T) {
	es := literal3x4(t)

	var seen Tabular
	clusterer := ClustererFunc[int](func(ctx context.Context, tab Tabular) (int, error) {
		seen = tab
		r, _ := tab.Matrix().Dims()
		return r, nil
	})

	rows, err := Adapt[int](context.Background(), es, clusterer)
	if err != nil {
		t.Fatal(err)
	}
	if rows != 4 {
		t.Errorf("Clusterer saw %d rows, expected 4", rows)
	}
	if seen == nil || seen.Matrix().At(3, 2) != 12 {
		t.Error("Clusterer did not receive the transposed view")
	}
}

func TestAdaptPropagatesCollaboratorError(t *testing.T) {
	es := literal3x4(t)
	sentinel := errors.New("session closed")

	_, err := Adapt[struct{}](context.Background(), es, ClustererFunc[struct{}](func(context.Context, Tabular) (struct{}, error) {
		return struct{}{}, sentinel
	}))
	if err != sentinel {
		t.Errorf("Expected the collaborator's error unchanged, got %v", err)
	}
}

func TestAdaptZeroSamples(t *testing.T) {
	called := false
	c := rawContainer{nf: 1, ns: 0, features: []string{"f"}}

	_, err := Adapt[bool](context.Background(), c, ClustererFunc[bool](func(context.Context, Tabular) (bool, error) {
		called = true
		return true, nil
	}))
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
	if called {
		t.Error("Clusterer was invoked on empty input")
	}
}
