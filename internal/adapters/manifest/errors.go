package manifest

import "errors"

// Sentinel kinds for manifest writer errors.
var (
	ErrWriteManifest = errors.New("write manifest failed")
)
