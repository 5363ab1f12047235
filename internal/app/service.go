// Package app provides the service that orchestrates one curation run:
// fetch the population, then sample and write each requested size.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EBB2675/curator/internal/domain/model"
	"github.com/EBB2675/curator/internal/domain/population"
	"github.com/EBB2675/curator/internal/domain/sampling"
	"github.com/EBB2675/curator/pkg/logger"
	"github.com/EBB2675/curator/pkg/metrics"
)

// Fetcher retrieves the full population from the remote catalog.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]model.Record, error)
}

// ManifestWriter persists one sample under its requested size.
type ManifestWriter interface {
	Write(ctx context.Context, size int, sample []model.Record) error
}

// Service runs the fetch -> sample -> write pipeline.
type Service struct {
	fetcher Fetcher
	writer  ManifestWriter
	sampler *sampling.Sampler

	seed        int64
	targetSizes []int
	workers     int

	runID  string
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sampler: sampling.New(),
		seed:    123456,
		workers: runtime.NumCPU(),
		runID:   uuid.NewString(),
		logger:  logger.Get().Named("run"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RunID identifies this run in logs and diagnostics.
func (s *Service) RunID() string {
	return s.runID
}

// Run executes the pipeline once. The fetch happens first and fully; the
// requested sizes are then sampled concurrently, each from its own seeded
// generator, against the shared immutable population.
func (s *Service) Run(ctx context.Context) error {
	if s.fetcher == nil || s.writer == nil {
		return ErrNotConfigured
	}

	s.logger.Info(ctx, "fetching population", logger.String("run_id", s.runID))
	records, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch population: %w", err)
	}

	pop := population.New(records)
	s.reportPopulation(ctx, pop)

	// Bounded fan-out across target sizes. Each size derives its own seed
	// from the base seed, so completion order never changes results.
	sem := make(chan struct{}, s.workerLimit())
	var wg sync.WaitGroup
	errs := make([]error, len(s.targetSizes))
	for i, size := range s.targetSizes {
		wg.Add(1)
		sem <- struct{}{}
		go func(i, size int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = s.sampleOne(ctx, pop, size)
		}(i, size)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (s *Service) workerLimit() int {
	if s.workers > 0 {
		return s.workers
	}
	return 1
}

// sampleOne draws and writes the sample for a single target size.
func (s *Service) sampleOne(ctx context.Context, pop *population.Store, size int) error {
	n := size
	if n > pop.Size() {
		// Degrades to the full population; surfaced so callers can tell.
		s.logger.Warn(ctx, "target size exceeds population, clamping",
			logger.Int("target_size", size),
			logger.Int("population", pop.Size()))
		metrics.RecordSampleShortfall()
		n = pop.Size()
	}

	started := time.Now()
	rng := rand.New(rand.NewSource(s.seed + int64(size))) //nolint:gosec // deterministic seed is the point
	sample, err := s.sampler.Sample(pop, n, rng)
	if err != nil {
		return fmt.Errorf("sample size %d: %w", size, err)
	}
	metrics.ObserveSampleDuration(time.Since(started).Seconds())
	metrics.RecordSampleProduced()

	stats := sampling.Summarize(sample)
	metrics.SetSampleDistinctAuthors(strconv.Itoa(size), stats.DistinctAuthors)
	s.logger.Info(ctx, "sample drawn",
		logger.Int("target_size", size),
		logger.Int("selected", len(sample)),
		logger.Int("distinct_authors", stats.DistinctAuthors),
		logger.Any("group_counts", stats.GroupCounts))

	if err := s.writer.Write(ctx, size, sample); err != nil {
		return fmt.Errorf("write sample %d: %w", size, err)
	}
	return nil
}

func (s *Service) reportPopulation(ctx context.Context, pop *population.Store) {
	sizes := pop.GroupSizes()
	metrics.SetPopulationSize(pop.Size())
	metrics.SetDistinctAuthors(pop.DistinctAuthors())
	for group, n := range sizes {
		metrics.SetGroupSize(group, n)
	}
	s.logger.Info(ctx, "population ready",
		logger.Int("records", pop.Size()),
		logger.Int("distinct_authors", pop.DistinctAuthors()),
		logger.Any("group_sizes", sizes))
}
