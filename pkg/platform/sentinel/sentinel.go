package sentinel

import "errors"

// Store-level facts. Record, identity and template stores return these
// (optionally wrapped); services translate them into domain errors.
//
//   - ErrNotFound: no live row for the key
//   - ErrAlreadyUsed: a unique index rejected the write
//   - ErrUnavailable: backing store or broker could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
