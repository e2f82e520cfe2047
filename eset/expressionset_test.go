package eset

import (
	"errors"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewValidates(t *testing.T) {
	data := mat.NewDense(2, 3, nil)

	if _, err := New(data, []string{"a", "b", "c"}, []string{"x", "y", "z"}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
	if _, err := New(data, []string{"a", "b"}, nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}

	es, err := New(data, []string{"a", "a"}, []string{"x", "y", "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got := es.Features(); !reflect.DeepEqual(got, []string{"a", "a.1"}) {
		t.Errorf("Features were not normalized: %v", got)
	}
	if got := es.Samples(); !reflect.DeepEqual(got, []string{"x", "y", "x.1"}) {
		t.Errorf("Samples were not normalized: %v", got)
	}
}

func TestNewCopiesInput(t *testing.T) {
	data := mat.NewDense(1, 2, []float64{1, 2})
	es, err := New(data, []string{"f"}, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}

	data.Set(0, 0, 99)
	if es.At(0, 0) != 1 {
		t.Error("ExpressionSet shares storage with its input")
	}
}

func TestSubset(t *testing.T) {
	es := literal3x4(t)

	pheno, err := NewPheno(
		[]string{"s1", "s2", "s3", "s4"},
		[]string{"group"},
		[][]string{{"ctl"}, {"trt"}, {"NA"}, {"trt"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	es, err = es.WithPheno(pheno)
	if err != nil {
		t.Fatal(err)
	}

	sub, err := es.Subset([]int{2, 0}, []int{3, 1})
	if err != nil {
		t.Fatal(err)
	}

	if nf, ns := sub.Dims(); nf != 2 || ns != 2 {
		t.Fatalf("Expected 2x2, got %dx%d", nf, ns)
	}
	if !reflect.DeepEqual(sub.Features(), []string{"g3", "g1"}) || !reflect.DeepEqual(sub.Samples(), []string{"s4", "s2"}) {
		t.Errorf("Unexpected labels %v %v", sub.Features(), sub.Samples())
	}
	if sub.At(0, 0) != 12 || sub.At(1, 1) != 2 {
		t.Errorf("Unexpected values %v", mat.Formatted(sub.Exprs()))
	}

	group, err := sub.Pheno().Column("group")
	if err != nil {
		t.Fatal(err)
	}
	if group[0].String != "trt" || group[1].String != "trt" {
		t.Errorf("Metadata not subset alongside samples: %v", group)
	}

	if _, err := es.Subset([]int{5}, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
	if _, err := es.Subset(nil, []int{}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestSubsetByName(t *testing.T) {
	es := literal3x4(t)

	sub, err := es.SubsetByName([]string{"g2"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sub.Row(0), []float64{5, 6, 7, 8}) {
		t.Errorf("Unexpected row %v", sub.Row(0))
	}

	if _, err := es.SubsetByName([]string{"nope"}, nil); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("Expected ErrUnknownLabel, got %v", err)
	}
}

func TestWithPhenoUnmatchedSamples(t *testing.T) {
	es := literal3x4(t)

	pheno, err := NewPheno(
		[]string{"X1", "X2", "X3", "X4"},
		[]string{"group"},
		[][]string{{"d"}, {"c"}, {"b"}, {"a"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	out, err := es.WithPheno(pheno)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("Expected ErrShapeMismatch, got %v", err)
	}
	if out != nil {
		t.Error("Expected no ExpressionSet on mismatch")
	}
	if es.Pheno() != nil {
		t.Error("Receiver was modified")
	}
}

func TestWithPhenoReorders(t *testing.T) {
	es := literal3x4(t)

	pheno, err := NewPheno(
		[]string{"s4", "s3", "s2", "s1"},
		[]string{"group"},
		[][]string{{"d"}, {"c"}, {"b"}, {"a"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	es, err = es.WithPheno(pheno)
	if err != nil {
		t.Fatal(err)
	}

	group, _ := es.Pheno().Column("group")
	for i, expected := range []string{"a", "b", "c", "d"} {
		if group[i].String != expected {
			t.Errorf("Sample %d: got %q, expected %q", i, group[i].String, expected)
		}
	}

	levels, err := es.Pheno().Levels("group")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(levels, []string{"a", "b", "c", "d"}) {
		t.Errorf("Levels: %v", levels)
	}
}

func TestWithFeatures(t *testing.T) {
	es := literal3x4(t)

	relabeled, err := es.WithFeatures([]string{"TP53", "TP53", "MYC"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(relabeled.Features(), []string{"TP53", "TP53.1", "MYC"}) {
		t.Errorf("Unexpected features %v", relabeled.Features())
	}
	if !reflect.DeepEqual(es.Features(), []string{"g1", "g2", "g3"}) {
		t.Error("Original set was modified")
	}

	if _, err := es.WithFeatures([]string{"x"}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}
