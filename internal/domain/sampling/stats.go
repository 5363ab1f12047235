package sampling

import (
	"github.com/EBB2675/curator/internal/domain/model"
)

// Stats summarizes a produced sample for logging and verification.
type Stats struct {
	GroupCounts     map[string]int
	DistinctAuthors int
}

// Summarize computes per-group counts and the distinct author count of a
// sample.
func Summarize(sample []model.Record) Stats {
	counts := make(map[string]int)
	authors := make(map[string]struct{})
	for _, r := range sample {
		counts[r.System]++
		authors[r.MainAuthor] = struct{}{}
	}
	return Stats{
		GroupCounts:     counts,
		DistinctAuthors: len(authors),
	}
}
