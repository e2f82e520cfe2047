package eset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// ReadMatrix parses a delimited features x samples table. The header row
// holds sample identifiers, optionally preceded by a label for the feature
// column. Every other row is a feature identifier followed by one value per
// sample. NA and empty cells become NaN.
func ReadMatrix(r io.Reader, delim rune) (features, samples []string, data *mat.Dense, err error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comment = '#'

	entries, err := cr.ReadAll()
	if err != nil {
		return nil, nil, nil, pfx.Err(err)
	}
	if len(entries) < 2 {
		return nil, nil, nil, fmt.Errorf("%w: expression table has %d rows", ErrEmptyInput, len(entries))
	}

	header := entries[0]
	width := len(entries[1])
	switch len(header) {
	case width - 1:
		samples = append([]string(nil), header...)
	case width:
		samples = append([]string(nil), header[1:]...)
	default:
		return nil, nil, nil, fmt.Errorf("%w: header has %d fields but the first row has %d", ErrShapeMismatch, len(header), width)
	}

	features = make([]string, 0, len(entries)-1)
	values := make([]float64, 0, (len(entries)-1)*len(samples))

	for i, row := range entries[1:] {
		if len(row) != len(samples)+1 {
			return nil, nil, nil, fmt.Errorf("%w: row %d has %d fields, expected %d", ErrShapeMismatch, i+2, len(row), len(samples)+1)
		}

		features = append(features, row[0])
		for j, cell := range row[1:] {
			v, err := parseValue(cell)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("row %d (%s), sample %s: %w", i+2, row[0], samples[j], err)
			}
			values = append(values, v)
		}
	}

	if len(samples) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: expression table has no samples", ErrEmptyInput)
	}

	return features, samples, mat.NewDense(len(features), len(samples), values), nil
}

func parseValue(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "NA" || cell == "NaN" {
		return math.NaN(), nil
	}

	return strconv.ParseFloat(cell, 64)
}

// ReadPheno parses a delimited metadata table. The first column holds sample
// identifiers and the header names the remaining columns.
func ReadPheno(r io.Reader, delim rune) (*Pheno, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	entries, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}
	if len(entries) < 2 {
		return nil, fmt.Errorf("%w: metadata table has %d rows", ErrEmptyInput, len(entries))
	}

	header := entries[0]
	width := len(entries[1])
	var columns []string
	switch len(header) {
	case width - 1:
		columns = header
	case width:
		columns = header[1:]
	default:
		return nil, fmt.Errorf("%w: metadata header has %d fields but the first row has %d", ErrShapeMismatch, len(header), width)
	}

	samples := make([]string, 0, len(entries)-1)
	cells := make([][]string, 0, len(entries)-1)
	for _, row := range entries[1:] {
		if len(row) != len(columns)+1 {
			return nil, fmt.Errorf("%w: metadata row %q has %d fields, expected %d", ErrShapeMismatch, row[0], len(row), len(columns)+1)
		}
		samples = append(samples, row[0])
		cells = append(cells, row[1:])
	}

	return NewPheno(samples, columns, cells)
}

// LoadOptions names the inputs of Load.
type LoadOptions struct {
	ExprsPath  string
	PhenoPath  string // Optional
	Annotation string // Optional

	// Required only when a path is a gs:// URL.
	StorageClient *storage.Client
}

// Load reads an expression matrix and, optionally, its sample metadata.
// Delimiters and compression are detected automatically.
func Load(ctx context.Context, opts LoadOptions) (*ExpressionSet, error) {
	payload, err := ReadAll(ctx, opts.ExprsPath, opts.StorageClient)
	if err != nil {
		return nil, err
	}

	features, samples, data, err := ReadMatrix(bytes.NewReader(payload), DetermineDelimiter(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.ExprsPath, err)
	}

	es, err := New(data, features, samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.ExprsPath, err)
	}
	es = es.WithAnnotation(opts.Annotation)

	if opts.PhenoPath == "" {
		return es, nil
	}

	payload, err = ReadAll(ctx, opts.PhenoPath, opts.StorageClient)
	if err != nil {
		return nil, err
	}

	pheno, err := ReadPheno(bytes.NewReader(payload), DetermineDelimiter(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.PhenoPath, err)
	}

	return es.WithPheno(pheno)
}
