package analytics

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// The five fixed score buckets. All ranges are half-open [lo, hi) except the
// last which includes 100. SortKey is numeric because the label string order
// does not match the intended order.
type bucketDef struct {
	label   string
	sortKey int
	lo, hi  float64
}

var scoreBuckets = [5]bucketDef{
	{label: "0-59", sortKey: 0, lo: 0, hi: 60},
	{label: "60-69", sortKey: 1, lo: 60, hi: 70},
	{label: "70-79", sortKey: 2, lo: 70, hi: 80},
	{label: "80-89", sortKey: 3, lo: 80, hi: 90},
	{label: "90-100", sortKey: 4, lo: 90, hi: 100},
}

// DistributeScores classifies scores into the fixed buckets with counts and
// round-half-up percentages. Policy: null scores count as 0, they are not
// discarded. Contract: out-of-range input never panics; it clamps into the
// nearest bucket (below 0 -> first, above 100 -> last).
func DistributeScores(scores []null.Float64) []ScoreBucket {
	var counts [len(scoreBuckets)]int
	for _, s := range scores {
		counts[bucketIndex(s.Float64)]++ // invalid null.Float64 yields 0
	}

	total := len(scores)
	out := make([]ScoreBucket, 0, len(scoreBuckets))
	for i, def := range scoreBuckets {
		var pct float64
		if total > 0 {
			pct = core.Round1(100 * float64(counts[i]) / float64(total))
		}
		out = append(out, ScoreBucket{
			Label:      def.label,
			SortKey:    def.sortKey,
			Count:      counts[i],
			Percentage: pct,
		})
	}
	return out
}

func bucketIndex(score float64) int {
	last := len(scoreBuckets) - 1
	if score < scoreBuckets[0].hi {
		return 0 // includes clamped negatives
	}
	for i := 1; i < last; i++ {
		if score < scoreBuckets[i].hi {
			return i
		}
	}
	return last // 90..100, plus 100 itself and clamped overshoots
}
