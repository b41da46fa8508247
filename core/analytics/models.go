package analytics

// Dashboard-ready rollup shapes. All of these are recomputed per request and
// never persisted; every numeric field has already passed through the
// normalization boundary (normalize.go).

type (
	// SystemAnalytics is the system-wide (admin) rollup.
	SystemAnalytics struct {
		Totals                SystemTotals            `json:"totals"`
		UserGrowth            []TrendPoint            `json:"user_growth"`
		AssignmentTrend       []ScoreTrendPoint       `json:"assignment_trend"`
		DepartmentPerformance []DepartmentPerformance `json:"department_performance"`
		ActivityHeatmap       []HeatmapCell           `json:"activity_heatmap"`
		PracticeHours         []DepartmentHours       `json:"practice_hours"`
		ScoreDistribution     []ScoreBucket           `json:"score_distribution"`
		RecentAssignments     []AssignmentVolume      `json:"recent_assignments"`
	}

	SystemTotals struct {
		Users        int64   `json:"users"`
		Students     int64   `json:"students"`
		Teachers     int64   `json:"teachers"`
		Assignments  int64   `json:"assignments"`
		Submissions  int64   `json:"submissions"`
		AverageScore float64 `json:"average_score"`
	}

	// ScopedAnalytics is the instructor dashboard rollup, scoped to the caller.
	ScopedAnalytics struct {
		Summary               ScopedSummary           `json:"summary"`
		ScoreDistribution     []ScoreBucket           `json:"score_distribution"`
		AssignmentPerformance []AssignmentPerformance `json:"assignment_performance"`
		CompletionTrend       []TrendPoint            `json:"completion_trend"`
		TopStudents           []TopStudent            `json:"top_students"`
	}

	ScopedSummary struct {
		Assignments    int64   `json:"assignments"`
		Published      int64   `json:"published"`
		Students       int64   `json:"students"`
		Submissions    int64   `json:"submissions"`
		AverageScore   float64 `json:"average_score"`
		CompletionRate float64 `json:"completion_rate"`
	}

	// TrendPoint is one time-bucketed count.
	TrendPoint struct {
		Period string `json:"period"`
		Count  int64  `json:"count"`
	}

	// ScoreTrendPoint is one time-bucketed count with its average score.
	ScoreTrendPoint struct {
		Period       string  `json:"period"`
		Count        int64   `json:"count"`
		AverageScore float64 `json:"average_score"`
	}

	DepartmentPerformance struct {
		Department   string  `json:"department"`
		AverageScore float64 `json:"average_score"`
		TestCount    int64   `json:"test_count"`
	}

	HeatmapCell struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	DepartmentHours struct {
		Department string  `json:"department"`
		Hours      float64 `json:"hours"`
	}

	// ScoreBucket is one fixed score-distribution bin. SortKey carries the
	// intended numeric order since label string order does not match it.
	ScoreBucket struct {
		Label      string  `json:"label"`
		SortKey    int     `json:"sort_key"`
		Count      int     `json:"count"`
		Percentage float64 `json:"percentage"`
	}

	AssignmentVolume struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Submissions int64  `json:"submissions"`
	}

	AssignmentPerformance struct {
		ID             string  `json:"id"`
		Title          string  `json:"title"`
		Submissions    int64   `json:"submissions"`
		AverageScore   float64 `json:"average_score"`
		CompletionRate float64 `json:"completion_rate"`
	}

	TopStudent struct {
		ID           string  `json:"id"`
		Name         string  `json:"name"`
		Department   string  `json:"department,omitempty"`
		AverageScore float64 `json:"average_score"`
		Submissions  int64   `json:"submissions"`
	}
)
