package analytics

import (
	"sort"

	"github.com/trezcool/darasa/core"
)

// RankedEntity is one top-K entry before profile resolution.
type RankedEntity struct {
	ID      string
	Average float64 // rounded to 1 decimal
	Count   int64
}

// TopK ranks grouped rows by average metric descending and truncates to k.
// Ties are broken by entity id ascending so the ordering is deterministic
// regardless of store ordering.
func TopK(rows []GroupRow, k int) []RankedEntity {
	if k <= 0 {
		return []RankedEntity{}
	}

	sorted := make([]GroupRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Avg.Float64 != sorted[j].Avg.Float64 {
			return sorted[i].Avg.Float64 > sorted[j].Avg.Float64
		}
		return sorted[i].Key < sorted[j].Key
	})

	if len(sorted) > k {
		sorted = sorted[:k]
	}
	ranked := make([]RankedEntity, 0, len(sorted))
	for _, row := range sorted {
		ranked = append(ranked, RankedEntity{
			ID:      row.Key,
			Average: core.Round1(row.Avg.Float64), // null average counts as 0
			Count:   row.Count,
		})
	}
	return ranked
}
