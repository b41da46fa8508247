package analytics

import "time"

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// WindowDescriptor is one computed time range used for bucketing.
// Start is inclusive, End exclusive. Ephemeral; never persisted.
type WindowDescriptor struct {
	Start   time.Time
	End     time.Time
	Label   string
	SortKey string
}

func (w WindowDescriptor) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Windows returns exactly n contiguous windows of the given granularity,
// earliest first, ending with the window containing now.
// n <= 0 is a caller contract violation and returns nil.
func Windows(now time.Time, g Granularity, n int) []WindowDescriptor {
	if n <= 0 {
		return nil
	}
	switch g {
	case GranularityMonth:
		return monthWindows(now, n)
	case GranularityWeek:
		return weekWindows(now, n)
	default:
		return dayWindows(now, n)
	}
}

// monthWindows emits n consecutive calendar months; month arithmetic rolls
// over year boundaries via time.Date normalization.
func monthWindows(now time.Time, n int) []WindowDescriptor {
	first := time.Date(now.Year(), now.Month()-time.Month(n-1), 1, 0, 0, 0, 0, now.Location())
	wins := make([]WindowDescriptor, 0, n)
	for i := 0; i < n; i++ {
		start := first.AddDate(0, i, 0)
		wins = append(wins, WindowDescriptor{
			Start:   start,
			End:     start.AddDate(0, 1, 0),
			Label:   start.Format("2006-01"),
			SortKey: start.Format("2006-01-02"),
		})
	}
	return wins
}

// weekWindows emits n fixed 7-day blocks aligned to midnight, not ISO calendar
// weeks. Deliberate simplification.
func weekWindows(now time.Time, n int) []WindowDescriptor {
	first := midnight(now).AddDate(0, 0, -7*(n-1))
	wins := make([]WindowDescriptor, 0, n)
	for i := 0; i < n; i++ {
		start := first.AddDate(0, 0, 7*i)
		wins = append(wins, WindowDescriptor{
			Start:   start,
			End:     start.AddDate(0, 0, 7),
			Label:   start.Format("2006-01-02"),
			SortKey: start.Format("2006-01-02"),
		})
	}
	return wins
}

func dayWindows(now time.Time, n int) []WindowDescriptor {
	first := midnight(now).AddDate(0, 0, -(n - 1))
	wins := make([]WindowDescriptor, 0, n)
	for i := 0; i < n; i++ {
		start := first.AddDate(0, 0, i)
		wins = append(wins, WindowDescriptor{
			Start:   start,
			End:     start.AddDate(0, 0, 1),
			Label:   start.Format("2006-01-02"),
			SortKey: start.Format("2006-01-02"),
		})
	}
	return wins
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// windowIndex locates the window containing t; -1 when t falls outside all windows.
func windowIndex(wins []WindowDescriptor, t time.Time) int {
	for i, w := range wins {
		if w.Contains(t) {
			return i
		}
	}
	return -1
}
