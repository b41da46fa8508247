package analytics

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

func groupRow(key string, avg float64, count int64) GroupRow {
	return GroupRow{Key: key, Avg: null.Float64From(avg), Count: count}
}

func TestTopK(t *testing.T) {
	rows := []GroupRow{
		groupRow("u3", 71.25, 4),
		groupRow("u1", 90, 10),
		groupRow("u2", 85.5, 7),
		groupRow("u4", 60, 2),
	}

	ranked := TopK(rows, 3)

	if len(ranked) != 3 {
		t.Fatalf("len(ranked) = %d, want 3", len(ranked))
	}
	wantIDs := []string{"u1", "u2", "u3"}
	for i, r := range ranked {
		if r.ID != wantIDs[i] {
			t.Errorf("ranked[%d].ID = %q, want %q", i, r.ID, wantIDs[i])
		}
	}
	if ranked[2].Average != 71.3 { // round-half-up
		t.Errorf("ranked[2].Average = %v, want 71.3", ranked[2].Average)
	}
}

func TestTopKNeverExceedsK(t *testing.T) {
	rows := []GroupRow{groupRow("a", 50, 1), groupRow("b", 60, 1)}
	if got := TopK(rows, 5); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := TopK(rows, 1); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
	if got := TopK(rows, 0); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestTopKTieBreakByIDAscending(t *testing.T) {
	rows := []GroupRow{
		groupRow("zz", 80, 3),
		groupRow("aa", 80, 5),
		groupRow("mm", 80, 1),
	}

	ranked := TopK(rows, 3)

	wantIDs := []string{"aa", "mm", "zz"}
	for i, r := range ranked {
		if r.ID != wantIDs[i] {
			t.Errorf("ranked[%d].ID = %q, want %q", i, r.ID, wantIDs[i])
		}
	}
}

func TestTopKNonIncreasingAverages(t *testing.T) {
	rows := []GroupRow{
		groupRow("a", 10, 1),
		groupRow("b", 99, 1),
		groupRow("c", 54.3, 1),
		{Key: "d", Count: 1}, // null average ranks as 0
	}

	ranked := TopK(rows, 4)
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Average > ranked[i-1].Average {
			t.Errorf("averages increase at %d: %v > %v", i, ranked[i].Average, ranked[i-1].Average)
		}
	}
	if ranked[3].ID != "d" || ranked[3].Average != 0 {
		t.Errorf("null average entry = %+v, want last with average 0", ranked[3])
	}
}
