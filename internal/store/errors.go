package store

import "github.com/rotisserie/eris"

// Link creation errors. They are reported to the caller synchronously and
// never retried.
var (
	ErrSelfLink          = eris.New("cannot link a tower to itself")
	ErrFrequencyMismatch = eris.New("frequencies must match to create link")
	ErrDuplicateLink     = eris.New("link already exists")
)

// Tower errors.
var (
	ErrTowerNotFound       = eris.New("tower not found")
	ErrInvalidTower        = eris.New("invalid tower")
	ErrConstraintViolation = eris.New("tower is part of an existing link")
)
