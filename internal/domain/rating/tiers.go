package rating

import (
	"fmt"
	"math"
)

// OpenEnded marks the Max of the top tier.
const OpenEnded = math.MaxInt

// nominalTopSpan is the span used for progress inside the open-ended top tier.
const nominalTopSpan = 500

// Tier is one named band of the rating scale. Min and Max are inclusive.
type Tier struct {
	Name  string `json:"name"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Color string `json:"color"`
}

// Contains reports whether r falls in the tier.
func (t Tier) Contains(r int) bool {
	return r >= t.Min && r <= t.Max
}

// IsTop reports whether the tier has no upper bound.
func (t Tier) IsTop() bool {
	return t.Max == OpenEnded
}

// Progress is the position of a rating inside its tier.
type Progress struct {
	Offset     int `json:"offset"`
	Span       int `json:"span"`
	Percentage int `json:"percentage"`
}

// tiers is the rank table: ascending, contiguous from zero, open at the top.
var tiers = [...]Tier{
	{Name: "Bronze III", Min: 0, Max: 1099, Color: "#8c5a2b"},
	{Name: "Bronze II", Min: 1100, Max: 1199, Color: "#a0672f"},
	{Name: "Bronze I", Min: 1200, Max: 1299, Color: "#b87333"},
	{Name: "Silver III", Min: 1300, Max: 1399, Color: "#9ea7ad"},
	{Name: "Silver II", Min: 1400, Max: 1499, Color: "#b3bcc2"},
	{Name: "Silver I", Min: 1500, Max: 1599, Color: "#c0c0c0"},
	{Name: "Gold III", Min: 1600, Max: 1699, Color: "#c9a227"},
	{Name: "Gold II", Min: 1700, Max: 1799, Color: "#dbb42c"},
	{Name: "Gold I", Min: 1800, Max: 1899, Color: "#ffd700"},
	{Name: "Platinum III", Min: 1900, Max: 1999, Color: "#3fb0ac"},
	{Name: "Platinum II", Min: 2000, Max: 2099, Color: "#4cc9c4"},
	{Name: "Platinum I", Min: 2100, Max: 2199, Color: "#5fe3dd"},
	{Name: "Diamond III", Min: 2200, Max: 2349, Color: "#4a7bd0"},
	{Name: "Diamond II", Min: 2350, Max: 2499, Color: "#5b8ef0"},
	{Name: "Diamond I", Min: 2500, Max: 2649, Color: "#6fa3ff"},
	{Name: "Master", Min: 2650, Max: 2799, Color: "#9b59b6"},
	{Name: "Grandmaster", Min: 2800, Max: 2949, Color: "#e74c3c"},
	{Name: "Challenger", Min: 2950, Max: OpenEnded, Color: "#f1c40f"},
}

func init() {
	if err := ValidateTiers(tiers[:]); err != nil {
		panic(err)
	}
}

// Tiers returns a copy of the rank table in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers[:])
	return out
}

// ValidateTiers checks that ts starts at zero, has no gaps or overlaps and
// ends in an open-ended tier.
func ValidateTiers(ts []Tier) error {
	if len(ts) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	if ts[0].Min != 0 {
		return fmt.Errorf("tier %q starts at %d, want 0", ts[0].Name, ts[0].Min)
	}
	for i, t := range ts {
		if t.Max < t.Min {
			return fmt.Errorf("tier %q has max %d below min %d", t.Name, t.Max, t.Min)
		}
		if i > 0 && t.Min != ts[i-1].Max+1 {
			return fmt.Errorf("tier %q starts at %d, want %d", t.Name, t.Min, ts[i-1].Max+1)
		}
	}
	if last := ts[len(ts)-1]; !last.IsTop() {
		return fmt.Errorf("top tier %q is not open-ended", last.Name)
	}
	return nil
}

// tierIndex returns the index of the tier containing r. Ratings below every
// tier fall back to the lowest; ratings above every tier to the highest.
func tierIndex(r int) int {
	if r < tiers[0].Min {
		return 0
	}
	for i, t := range tiers {
		if t.Contains(r) {
			return i
		}
	}
	return len(tiers) - 1
}

// TierFor returns the tier containing r.
func TierFor(r int) Tier {
	return tiers[tierIndex(r)]
}

// ClassifyRank returns the name of the tier containing r.
func ClassifyRank(r int) string {
	return TierFor(r).Name
}

// TierIndex returns the position of r's tier in Tiers().
func TierIndex(r int) int {
	return tierIndex(r)
}

// NextTier returns the tier above r's tier. ok is false at the top.
func NextTier(r int) (next Tier, ok bool) {
	i := tierIndex(r)
	if i+1 >= len(tiers) {
		return Tier{}, false
	}
	return tiers[i+1], true
}

// TierProgress reports how far r has climbed through its tier. The
// open-ended top tier is measured against a nominal span and capped at 100%.
func TierProgress(r int) Progress {
	r = clampRating(r)
	t := TierFor(r)

	span := t.Max - t.Min
	if t.IsTop() {
		span = nominalTopSpan
	}
	offset := r - t.Min
	if span <= 0 {
		return Progress{Offset: offset, Span: 0, Percentage: 100}
	}

	pct := roundHalfUp(float64(offset) / float64(span) * 100)
	if pct > 100 {
		pct = 100
	}
	return Progress{Offset: offset, Span: span, Percentage: pct}
}
