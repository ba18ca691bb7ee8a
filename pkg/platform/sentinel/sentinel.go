package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist
//   - ErrAlreadyUsed: a unique key (code, case link, CI) is already taken
//   - ErrInvalidState: record exists but its status did not match the guard
//     of a conditional update
//   - ErrUnavailable: collaborator (scorer, broker, redis) temporarily down
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
