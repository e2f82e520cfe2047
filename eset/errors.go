package eset

import "errors"

var (
	// ErrShapeMismatch is returned when the expression matrix dimensions do not
	// agree with the feature and sample identifier lengths.
	ErrShapeMismatch = errors.New("eset: matrix dimensions do not match identifiers")

	// ErrEmptyInput is returned when either dimension has length zero.
	ErrEmptyInput = errors.New("eset: empty input")

	// ErrDuplicateLabelUnresolvable is returned when a duplicated identifier
	// cannot be given a unique suffix.
	ErrDuplicateLabelUnresolvable = errors.New("eset: duplicate label cannot be disambiguated")

	ErrOutOfRange   = errors.New("eset: index out of range")
	ErrUnknownLabel = errors.New("eset: unknown label")
	ErrNoPheno      = errors.New("eset: no sample metadata")
)
