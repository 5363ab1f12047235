package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotConfigured = errors.New("service missing fetcher or writer")
)
