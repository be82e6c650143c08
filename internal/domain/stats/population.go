// Package stats aggregates one actor's rating against the whole population
// for the competition page.
package stats

import (
	"math"
	"slices"

	"github.com/repentdaily/rating/internal/domain/rating"
)

// DefaultBucketCount is the histogram resolution used when callers pass zero.
const DefaultBucketCount = 20

// Summary compares one actor against the population.
type Summary struct {
	Total        int     `json:"total"`
	RankPosition int     `json:"rank_position"`
	Percentile   int     `json:"percentile"`
	Mean         float64 `json:"mean"`
	Median       int     `json:"median"`
	Max          int     `json:"max"`
	Min          int     `json:"min"`
	AboveAverage bool    `json:"above_average"`
}

// Bucket is one histogram bar. RangeEnd is exclusive except for the last
// bucket.
type Bucket struct {
	RangeStart    float64 `json:"range_start"`
	RangeEnd      float64 `json:"range_end"`
	RangeMidpoint float64 `json:"range_midpoint"`
	Count         int     `json:"count"`
}

// TierCount is the number of population members in one tier.
type TierCount struct {
	Tier  string `json:"tier"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// Population summarizes actorRating against all.
//
// RankPosition is the first slot the actor's rating takes in a descending
// sort (1 + number of strictly higher ratings). Percentile is the share of
// the population strictly below the actor, not a true percentile rank.
// Median is the element at index n/2 of the ascending sort, with no
// averaging for even populations. An empty population yields a zero Summary.
func Population(actorRating int, all []int) Summary {
	if len(all) == 0 {
		return Summary{}
	}
	actor := max(actorRating, 0)

	sorted := clampedSorted(all)
	n := len(sorted)

	var (
		sum          int64
		above, below int
	)
	for _, r := range sorted {
		sum += int64(r)
		switch {
		case r > actor:
			above++
		case r < actor:
			below++
		}
	}
	mean := float64(sum) / float64(n)

	return Summary{
		Total:        n,
		RankPosition: above + 1,
		Percentile:   percentOf(below, n),
		Mean:         mean,
		Median:       sorted[n/2],
		Max:          sorted[n-1],
		Min:          sorted[0],
		AboveAverage: float64(actor) >= mean,
	}
}

// PositionOf returns the 1-based position of all[index] when all is sorted
// descending with ties kept in list order. It returns 0 for an index out of
// range.
func PositionOf(index int, all []int) int {
	if index < 0 || index >= len(all) {
		return 0
	}
	target := all[index]
	pos := 1
	for i, r := range all {
		if r > target || (r == target && i < index) {
			pos++
		}
	}
	return pos
}

// DistributionBuckets splits [min, max] of all into bucketCount equal-width
// buckets and counts members of each. When every rating is equal the whole
// population lands in the first bucket.
func DistributionBuckets(all []int, bucketCount int) []Bucket {
	if len(all) == 0 {
		return []Bucket{}
	}
	if bucketCount <= 0 {
		bucketCount = DefaultBucketCount
	}

	sorted := clampedSorted(all)
	lo, hi := float64(sorted[0]), float64(sorted[len(sorted)-1])
	width := (hi - lo) / float64(bucketCount)
	if width == 0 {
		width = 1
	}

	buckets := make([]Bucket, bucketCount)
	for i := range buckets {
		start := lo + float64(i)*width
		buckets[i] = Bucket{
			RangeStart:    start,
			RangeEnd:      start + width,
			RangeMidpoint: start + width/2,
		}
	}
	for _, r := range sorted {
		idx := int(math.Floor((float64(r) - lo) / width))
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

// TierDistribution counts members per rank tier, in table order, skipping
// empty tiers.
func TierDistribution(all []int) []TierCount {
	tiers := rating.Tiers()
	counts := make([]int, len(tiers))
	for _, r := range all {
		counts[rating.TierIndex(r)]++
	}

	out := make([]TierCount, 0, len(tiers))
	for i, c := range counts {
		if c == 0 {
			continue
		}
		out = append(out, TierCount{Tier: tiers[i].Name, Color: tiers[i].Color, Count: c})
	}
	return out
}

func clampedSorted(all []int) []int {
	sorted := make([]int, len(all))
	for i, r := range all {
		sorted[i] = max(r, 0)
	}
	slices.Sort(sorted)
	return sorted
}

func percentOf(part, total int) int {
	if total == 0 {
		return 0
	}
	p := int(math.Floor(float64(part)/float64(total)*100 + 0.5))
	return max(0, min(p, 100))
}
