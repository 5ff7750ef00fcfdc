package app

import (
	"errors"
	"fmt"
)

var (
	// ErrSimilarExists is matched by errors.Is when a capture would repeat
	// the content identity of a stored record.
	ErrSimilarExists = errors.New("a record for this contract, tax id and local time already exists")

	// ErrNotSealed is returned when an operation needs a sealed record.
	ErrNotSealed = errors.New("record is not sealed")

	// ErrArtifactAttached is returned when a record already names a
	// different artifact.
	ErrArtifactAttached = errors.New("record already has an attached artifact")

	// ErrNoRenderer is returned by Render when no renderer is configured.
	ErrNoRenderer = errors.New("no pdf renderer configured")
)

// SimilarError names the stored records a capture would duplicate.
type SimilarError struct {
	Contract string
	TaxID    string
	Existing []string
}

func (e *SimilarError) Error() string {
	return fmt.Sprintf("contract %q, tax id %q: %v (existing: %v)", e.Contract, e.TaxID, ErrSimilarExists, e.Existing)
}

func (e *SimilarError) Unwrap() error { return ErrSimilarExists }
