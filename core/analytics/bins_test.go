package analytics

import (
	"math"
	"testing"

	"github.com/volatiletech/null/v8"
)

func scoresOf(vals ...float64) []null.Float64 {
	scores := make([]null.Float64, 0, len(vals))
	for _, v := range vals {
		scores = append(scores, null.Float64From(v))
	}
	return scores
}

func TestDistributeScores(t *testing.T) {
	buckets := DistributeScores(scoresOf(55, 61, 72, 81, 95, 100))

	want := []ScoreBucket{
		{Label: "0-59", SortKey: 0, Count: 1, Percentage: 16.7},
		{Label: "60-69", SortKey: 1, Count: 1, Percentage: 16.7},
		{Label: "70-79", SortKey: 2, Count: 1, Percentage: 16.7},
		{Label: "80-89", SortKey: 3, Count: 1, Percentage: 16.7},
		{Label: "90-100", SortKey: 4, Count: 2, Percentage: 33.3},
	}
	if len(buckets) != len(want) {
		t.Fatalf("len(buckets) = %d, want %d", len(buckets), len(want))
	}
	for i, b := range buckets {
		if b != want[i] {
			t.Errorf("buckets[%d] = %+v, want %+v", i, b, want[i])
		}
	}
}

func TestDistributeScoresInvariants(t *testing.T) {
	tests := []struct {
		name   string
		scores []null.Float64
	}{
		{name: "empty", scores: nil},
		{name: "single", scores: scoresOf(70)},
		{name: "boundaries", scores: scoresOf(0, 59.9, 60, 69.9, 70, 80, 89.9, 90, 100)},
		{name: "with nulls", scores: append(scoresOf(88, 42), null.Float64{}, null.Float64{})},
		{name: "out of range", scores: scoresOf(-5, 101, 250)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := DistributeScores(tt.scores)

			var total int
			var pctSum float64
			for _, b := range buckets {
				total += b.Count
				pctSum += b.Percentage
			}
			if total != len(tt.scores) {
				t.Errorf("sum of counts = %d, want %d", total, len(tt.scores))
			}
			if len(tt.scores) == 0 {
				if pctSum != 0 {
					t.Errorf("percentages sum = %v, want 0 for empty input", pctSum)
				}
			} else if math.Abs(pctSum-100) > 0.1 {
				t.Errorf("percentages sum = %v, want 100 +- 0.1", pctSum)
			}
		})
	}
}

func TestBucketIndexClamp(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{score: -10, want: 0},
		{score: 0, want: 0},
		{score: 59.99, want: 0},
		{score: 60, want: 1},
		{score: 89.99, want: 3},
		{score: 90, want: 4},
		{score: 100, want: 4}, // exactly 100 falls in the last bucket
		{score: 150, want: 4},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.score); got != tt.want {
			t.Errorf("bucketIndex(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestDistributeScoresNullsCountAsZero(t *testing.T) {
	buckets := DistributeScores([]null.Float64{{}, {}})
	if buckets[0].Count != 2 {
		t.Errorf("first bucket count = %d, want 2 (nulls treated as 0)", buckets[0].Count)
	}
	if buckets[0].Percentage != 100.0 {
		t.Errorf("first bucket percentage = %v, want 100", buckets[0].Percentage)
	}
}
