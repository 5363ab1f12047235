package model

import "errors"

// Sentinel kinds for record construction errors.
var (
	ErrMissingEntryID = errors.New("hit missing entry_id")
)
