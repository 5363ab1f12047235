package manifest

import (
	"github.com/EBB2675/curator/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithOutputDir sets the directory receiving the manifest files.
func WithOutputDir(dir string) Option {
	return func(w *Writer) {
		if dir != "" {
			w.dir = dir
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}
