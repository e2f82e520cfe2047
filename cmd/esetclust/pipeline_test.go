package main

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/carbocation/esetclust/eset"
	"gonum.org/v1/gonum/mat"
)

func smallSet(t *testing.T) *eset.ExpressionSet {
	t.Helper()

	es, err := eset.New(mat.NewDense(3, 4, []float64{
		1, 1, 1, 1,
		0, 10, 0, 10,
		1, 2, math.NaN(), 3,
	}), []string{"flat", "wide", "narrow"}, []string{"s1", "s2", "s3", "s4"})
	if err != nil {
		t.Fatal(err)
	}

	pheno, err := eset.NewPheno([]string{"s1", "s2", "s3", "s4"}, []string{"group"}, [][]string{{"a"}, {"b"}, {"NA"}, {"b"}})
	if err != nil {
		t.Fatal(err)
	}

	if es, err = es.WithPheno(pheno); err != nil {
		t.Fatal(err)
	}

	return es
}

func TestMostVariable(t *testing.T) {
	got := mostVariable(smallSet(t), 2)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected [1 2], got %v", got)
	}
}

func TestDropMissing(t *testing.T) {
	es, err := dropMissing(smallSet(t), "group")
	if err != nil {
		t.Fatal(err)
	}

	if _, ns := es.Dims(); ns != 3 {
		t.Fatalf("Expected 3 samples, got %d", ns)
	}

	groups, err := groupLabels(es, "group")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "b"}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("Group %d: expected %s, got %s", i, want[i], groups[i])
		}
	}

	if _, err := dropMissing(smallSet(t), "batch"); !errors.Is(err, eset.ErrUnknownLabel) {
		t.Errorf("Expected ErrUnknownLabel, got %v", err)
	}
}

func TestAnyRemote(t *testing.T) {
	if anyRemote("a.tsv", "", "https://example.org/x") {
		t.Error("Only gs:// paths need a storage client")
	}
	if !anyRemote("a.tsv", "gs://bucket/pheno.tsv") {
		t.Error("Expected a gs:// path to be detected")
	}
}

func TestFatalFlushesReport(t *testing.T) {
	var buf bytes.Buffer
	stdout, stop := STDOUT, exit
	defer func() { STDOUT, exit = stdout, stop }()

	STDOUT = bufio.NewWriterSize(&buf, BufferSize)
	var exited []interface{}
	exit = func(v ...interface{}) { exited = v }

	STDOUT.WriteString("ID\tlogFC\n")
	fatal(errors.New("boom"))

	if buf.String() != "ID\tlogFC\n" {
		t.Errorf("Buffered output was not flushed: %q", buf.String())
	}
	if len(exited) != 1 || exited[0].(error).Error() != "boom" {
		t.Errorf("Unexpected exit arguments %v", exited)
	}
}
