package db

import "errors"

// ErrNotFound is returned when a referenced record does not exist or is not
// owned by the caller. Callers must treat it as non-retryable.
var ErrNotFound = errors.New("record not found")
