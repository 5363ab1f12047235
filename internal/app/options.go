package app

import (
	"github.com/EBB2675/curator/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the catalog fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithWriter sets the manifest writer.
func WithWriter(w ManifestWriter) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithSeed sets the base seed. Per-size seeds derive from it, so any
// integer, including zero, is valid.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithTargetSizes sets the sample sizes to draw.
func WithTargetSizes(sizes []int) Option {
	return func(s *Service) {
		s.targetSizes = sizes
	}
}

// WithSampleWorkers bounds how many sizes are sampled concurrently.
func WithSampleWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
