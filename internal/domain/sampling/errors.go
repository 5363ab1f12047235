package sampling

import "errors"

// Sentinel kinds for sampler invariant violations. These are programming
// errors, never expected outcomes, and must not be swallowed by callers.
var (
	ErrDuplicateID = errors.New("duplicate entry id in sample")
)
