package analytics

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// ErrNormalization marks a raw aggregate row the normalizer cannot coerce.
// It is a critical failure: better to abort than to emit wrong numbers.
var ErrNormalization = errors.New("cannot normalize aggregate row")

// Num coerces any raw numeric value to a plain float64.
// Null/missing values become 0; decimal strings and []byte (as returned by
// some drivers for SUM/AVG) are parsed. Anything else is an ErrNormalization.
func Num(v interface{}) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case null.Float64:
		return n.Float64, nil
	case null.Int64:
		return float64(n.Int64), nil
	case string:
		return parseNum(n)
	case []byte:
		return parseNum(string(n))
	default:
		return 0, errors.Wrapf(ErrNormalization, "numeric value %T(%v)", v, v)
	}
}

func parseNum(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrNormalization, "numeric string %q", s)
	}
	return f, nil
}

// ISODate coerces any date-like value to a canonical ISO-8601 string.
// Null dates become "". Unparseable values are an ErrNormalization.
func ISODate(v interface{}) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", nil
	case time.Time:
		return d.UTC().Format(time.RFC3339), nil
	case null.Time:
		if !d.Valid {
			return "", nil
		}
		return d.Time.UTC().Format(time.RFC3339), nil
	case string:
		return parseDate(d)
	case []byte:
		return parseDate(string(d))
	default:
		return "", errors.Wrapf(ErrNormalization, "date value %T(%v)", v, v)
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return "", errors.Wrapf(ErrNormalization, "date string %q", s)
}

// Avg normalizes a nullable average: null -> 0, rounded to 1 decimal half-up.
// Counts are never rounded; they stay integers.
func Avg(v null.Float64) float64 {
	return core.Round1(v.Float64)
}

// foldCountTrend assigns date-bucketed counts to the given windows, one
// TrendPoint per window in order. Buckets outside the windows are dropped;
// a null bucket in a date-grouped row is an ErrNormalization.
func foldCountTrend(wins []WindowDescriptor, rows []BucketRow) ([]TrendPoint, error) {
	points := make([]TrendPoint, 0, len(wins))
	for _, w := range wins {
		points = append(points, TrendPoint{Period: w.Label})
	}
	for _, row := range rows {
		if !row.Bucket.Valid {
			return nil, errors.Wrap(ErrNormalization, "null date bucket")
		}
		if i := windowIndex(wins, row.Bucket.Time); i >= 0 {
			points[i].Count += row.Count
		}
	}
	return points, nil
}

// foldScoreTrend is foldCountTrend plus a per-window weighted average score.
func foldScoreTrend(wins []WindowDescriptor, rows []BucketRow) ([]ScoreTrendPoint, error) {
	points := make([]ScoreTrendPoint, 0, len(wins))
	weighted := make([]float64, len(wins))
	for _, w := range wins {
		points = append(points, ScoreTrendPoint{Period: w.Label})
	}
	for _, row := range rows {
		if !row.Bucket.Valid {
			return nil, errors.Wrap(ErrNormalization, "null date bucket")
		}
		i := windowIndex(wins, row.Bucket.Time)
		if i < 0 {
			continue
		}
		points[i].Count += row.Count
		weighted[i] += row.Avg.Float64 * float64(row.Count) // null average counts as 0
	}
	for i := range points {
		if points[i].Count > 0 {
			points[i].AverageScore = core.Round1(weighted[i] / float64(points[i].Count))
		}
	}
	return points, nil
}

// foldHeatmap assigns daily activity counts to day windows.
func foldHeatmap(wins []WindowDescriptor, rows []BucketRow) ([]HeatmapCell, error) {
	cells := make([]HeatmapCell, 0, len(wins))
	for _, w := range wins {
		cells = append(cells, HeatmapCell{Date: w.Label})
	}
	for _, row := range rows {
		if !row.Bucket.Valid {
			return nil, errors.Wrap(ErrNormalization, "null date bucket")
		}
		if i := windowIndex(wins, row.Bucket.Time); i >= 0 {
			cells[i].Count += row.Count
		}
	}
	return cells, nil
}

// deptLabel normalizes a nullable department; users without one roll up
// under "unassigned".
func deptLabel(d null.String) string {
	if !d.Valid || d.String == "" {
		return "unassigned"
	}
	return d.String
}

// completionRate is min(100, 100*actual/expected), 0 when expected is 0.
// expected approximates studentCount * publishedAssignmentCount: it assumes
// every student is eligible for every published assignment. Known modeling
// limitation, kept for contract compatibility.
func completionRate(expected, actual int64) float64 {
	if expected <= 0 {
		return 0
	}
	rate := core.Round1(100 * float64(actual) / float64(expected))
	if rate > 100 {
		rate = 100
	}
	return rate
}

