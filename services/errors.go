package services

import "errors"

// ErrInvalidInput marks caller mistakes: bad enums, empty required fields,
// out-of-range counts. Surfaced immediately, never retried.
var ErrInvalidInput = errors.New("invalid request")
