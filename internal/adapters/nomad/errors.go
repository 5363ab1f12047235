package nomad

import "errors"

// Sentinel kinds for catalog fetch errors.
var (
	ErrFetchFailed      = errors.New("population fetch failed")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrEmptyPopulation  = errors.New("no entries matched the query")
)
