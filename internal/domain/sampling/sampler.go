// Package sampling implements stratified, author-diverse record selection.
//
// A sample of size n mirrors the population's distribution over the system
// label (largest-remainder quotas) and, inside each group, prefers records
// whose author has not yet contributed to the sample. All random draws come
// from one caller-supplied generator, consumed in a fixed order, so a sample
// is fully determined by (population order, n, seed).
package sampling

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/EBB2675/curator/internal/domain/model"
	"github.com/EBB2675/curator/internal/domain/population"
)

// Sampler selects author-diverse stratified samples from a population.
// It keeps no state between calls; concurrent calls with separate
// generators are safe.
type Sampler struct{}

// New creates a Sampler.
func New() *Sampler {
	return &Sampler{}
}

// Sample selects exactly n records from pop, clamped to the population size.
// n <= 0 yields an empty sample. The caller owns rng; two calls with equal
// population order, n, and generator state return identical samples.
//
// Draw order per call: for each group in ascending key order, one shuffle of
// the fresh-author partition then one shuffle of the seen-author partition
// (groups with a zero quota consume nothing); finally, if the per-group
// passes left the sample short, one shuffle of the unselected remainder.
func (s *Sampler) Sample(pop *population.Store, n int, rng *rand.Rand) ([]model.Record, error) {
	if n <= 0 {
		return []model.Record{}, nil
	}

	total := pop.Size()
	if n >= total {
		// The whole population is the sample; no quota math, no draws.
		sample := make([]model.Record, total)
		copy(sample, pop.Records())
		return sample, verifyUnique(sample)
	}

	quotas := computeQuotas(pop.GroupSizes(), n)

	usedAuthors := make(map[string]struct{})
	selectedIDs := make(map[string]struct{}, n)
	sample := make([]model.Record, 0, n)

	// Groups are processed in ascending key order so the used-author
	// accumulator evolves identically on every run.
	for _, key := range pop.GroupKeys() {
		quota := quotas[key]
		if quota <= 0 {
			continue
		}

		fresh, seen := partitionByAuthor(pop.Group(key), usedAuthors)
		shuffle(rng, fresh)
		shuffle(rng, seen)

		// First pass: at most one record per still-unused author. Records
		// sharing an author with an earlier pick drop into the fill pool.
		var leftover []model.Record
		for _, r := range fresh {
			if quota == 0 {
				leftover = append(leftover, r)
				continue
			}
			if _, ok := usedAuthors[r.MainAuthor]; ok {
				leftover = append(leftover, r)
				continue
			}
			sample = append(sample, r)
			selectedIDs[r.EntryID] = struct{}{}
			usedAuthors[r.MainAuthor] = struct{}{}
			quota--
		}

		// Second pass: fill the rest of the quota ignoring author overlap,
		// fresh leftovers before records of previously used authors.
		for _, r := range append(leftover, seen...) {
			if quota == 0 {
				break
			}
			sample = append(sample, r)
			selectedIDs[r.EntryID] = struct{}{}
			usedAuthors[r.MainAuthor] = struct{}{}
			quota--
		}
	}

	// Reconcile rounding and clamping drift by drawing from the whole
	// unselected remainder, regardless of group.
	if deficit := n - len(sample); deficit > 0 {
		pool := make([]model.Record, 0, total-len(sample))
		for _, r := range pop.Records() {
			if _, ok := selectedIDs[r.EntryID]; !ok {
				pool = append(pool, r)
			}
		}
		shuffle(rng, pool)
		if deficit > len(pool) {
			deficit = len(pool)
		}
		sample = append(sample, pool[:deficit]...)
	}

	return sample, verifyUnique(sample)
}

// computeQuotas assigns each group floor(n * size / total) records and then
// hands out the remaining units in descending fractional-remainder order,
// ties broken by ascending group key. Groups already at capacity are
// skipped; the walk repeats until every unit is placed, which terminates
// because n never exceeds the total capacity here.
func computeQuotas(sizes map[string]int, n int) map[string]int {
	total := 0
	for _, size := range sizes {
		total += size
	}

	type remainder struct {
		key  string
		frac float64
	}

	quotas := make(map[string]int, len(sizes))
	remainders := make([]remainder, 0, len(sizes))
	assigned := 0
	for key, size := range sizes {
		raw := float64(n) * float64(size) / float64(total)
		q := int(math.Floor(raw))
		quotas[key] = q
		assigned += q
		remainders = append(remainders, remainder{key: key, frac: raw - float64(q)})
	}

	sort.Slice(remainders, func(i, j int) bool {
		if remainders[i].frac != remainders[j].frac {
			return remainders[i].frac > remainders[j].frac
		}
		return remainders[i].key < remainders[j].key
	})

	for left := n - assigned; left > 0; {
		placed := false
		for _, r := range remainders {
			if left == 0 {
				break
			}
			if quotas[r.key] < sizes[r.key] {
				quotas[r.key]++
				left--
				placed = true
			}
		}
		if !placed {
			break
		}
	}

	return quotas
}

// partitionByAuthor splits a group into records whose author has not yet
// contributed to the sample and the rest, preserving relative order.
func partitionByAuthor(records []model.Record, usedAuthors map[string]struct{}) (fresh, seen []model.Record) {
	for _, r := range records {
		if _, ok := usedAuthors[r.MainAuthor]; ok {
			seen = append(seen, r)
		} else {
			fresh = append(fresh, r)
		}
	}
	return fresh, seen
}

func shuffle(rng *rand.Rand, records []model.Record) {
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// verifyUnique guards the no-duplicate invariant. A violation means the
// selection logic is broken and the sample cannot be trusted.
func verifyUnique(sample []model.Record) error {
	ids := make(map[string]struct{}, len(sample))
	for _, r := range sample {
		if _, ok := ids[r.EntryID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, r.EntryID)
		}
		ids[r.EntryID] = struct{}{}
	}
	return nil
}
