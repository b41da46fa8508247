package analytics

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

const noNamePlaceholder = "no name"

// Service assembles the dashboard rollups. It owns no state beyond its
// collaborators: every call recomputes from source data, and concurrent
// sub-queries read whatever snapshot the store returns at call time (no
// cross-query consistency guarantee).
type Service struct {
	repo    Repository
	logger  core.Logger
	conf    core.AnalyticsConfig
	nowFunc func() time.Time // mockable
}

func NewService(repo Repository, logger core.Logger, conf core.AnalyticsConfig) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		conf:    conf,
		nowFunc: time.Now,
	}
}

// System computes the system-wide (admin) rollup. The totals are critical;
// every trend/rollup beyond them degrades to an empty value on failure.
func (svc *Service) System(ctx context.Context) (SystemAnalytics, error) {
	now := svc.nowFunc().UTC()
	res := SystemAnalytics{
		UserGrowth:            []TrendPoint{},
		AssignmentTrend:       []ScoreTrendPoint{},
		DepartmentPerformance: []DepartmentPerformance{},
		ActivityHeatmap:       []HeatmapCell{},
		PracticeHours:         []DepartmentHours{},
		ScoreDistribution:     []ScoreBucket{},
		RecentAssignments:     []AssignmentVolume{},
	}

	g := newGroup(ctx, svc.logger, svc.conf.QueryTimeout)

	var avg null.Float64

	g.Critical("total users", func(ctx context.Context) (err error) {
		res.Totals.Users, err = svc.repo.CountUsers(ctx, Filter{})
		return
	})
	g.Critical("total students", func(ctx context.Context) (err error) {
		res.Totals.Students, err = svc.repo.CountUsers(ctx, Filter{RolePrefix: user.RoleStudent})
		return
	})
	g.Critical("total teachers", func(ctx context.Context) (err error) {
		res.Totals.Teachers, err = svc.repo.CountUsers(ctx, Filter{RolePrefix: user.RoleTeacher})
		return
	})
	g.Critical("total assignments", func(ctx context.Context) (err error) {
		res.Totals.Assignments, err = svc.repo.CountAssignments(ctx, Filter{})
		return
	})
	g.Critical("total submissions", func(ctx context.Context) (err error) {
		res.Totals.Submissions, err = svc.repo.CountSubmissions(ctx, Filter{})
		return
	})
	g.Critical("global average score", func(ctx context.Context) (err error) {
		avg, err = svc.repo.AverageScore(ctx, Filter{})
		return
	})

	g.Optional("user growth", func(ctx context.Context) error {
		wins := Windows(now, GranularityMonth, svc.conf.GrowthMonths)
		rows, err := svc.repo.UserMonthlyCounts(ctx, wins[0].Start, wins[len(wins)-1].End)
		if err != nil {
			return err
		}
		points, err := foldCountTrend(wins, rows)
		if err != nil {
			return err
		}
		res.UserGrowth = points
		return nil
	})
	g.Optional("submission trend", func(ctx context.Context) error {
		wins := Windows(now, GranularityWeek, svc.conf.TrendWeeks)
		rows, err := svc.repo.SubmissionDailyCounts(ctx, Filter{From: wins[0].Start, To: wins[len(wins)-1].End})
		if err != nil {
			return err
		}
		points, err := foldScoreTrend(wins, rows)
		if err != nil {
			return err
		}
		res.AssignmentTrend = points
		return nil
	})
	g.Optional("department performance", func(ctx context.Context) error {
		rows, err := svc.repo.ScoresByDepartment(ctx, Filter{})
		if err != nil {
			return err
		}
		perf := make([]DepartmentPerformance, 0, len(rows))
		for _, row := range rows {
			perf = append(perf, DepartmentPerformance{
				Department:   deptLabel(row.Department),
				AverageScore: Avg(row.Avg),
				TestCount:    row.Count,
			})
		}
		res.DepartmentPerformance = perf
		return nil
	})
	g.Optional("activity heatmap", func(ctx context.Context) error {
		wins := Windows(now, GranularityDay, svc.conf.HeatmapDays)
		rows, err := svc.repo.ActivityDailyCounts(ctx, wins[0].Start, wins[len(wins)-1].End)
		if err != nil {
			return err
		}
		cells, err := foldHeatmap(wins, rows)
		if err != nil {
			return err
		}
		res.ActivityHeatmap = cells
		return nil
	})
	g.Optional("practice hours", func(ctx context.Context) error {
		wins := Windows(now, GranularityDay, svc.conf.HeatmapDays)
		rows, err := svc.repo.PracticeMinutesByDepartment(ctx, wins[0].Start, wins[len(wins)-1].End)
		if err != nil {
			return err
		}
		hours := make([]DepartmentHours, 0, len(rows))
		for _, row := range rows {
			hours = append(hours, DepartmentHours{
				Department: deptLabel(row.Department),
				Hours:      core.Round1(float64(row.Minutes.Int64) / 60),
			})
		}
		res.PracticeHours = hours
		return nil
	})
	g.Optional("score distribution", func(ctx context.Context) error {
		scores, err := svc.repo.ScoreValues(ctx, Filter{})
		if err != nil {
			return err
		}
		res.ScoreDistribution = DistributeScores(scores)
		return nil
	})
	g.Optional("top assignments", func(ctx context.Context) error {
		since := midnight(now).AddDate(0, 0, -7*svc.conf.TrendWeeks)
		rows, err := svc.repo.TopAssignmentsByVolume(ctx, since, svc.conf.TopAssignments)
		if err != nil {
			return err
		}
		top := make([]AssignmentVolume, 0, len(rows))
		for _, row := range rows {
			top = append(top, AssignmentVolume{
				ID:          row.ID,
				Title:       row.Title.String,
				Submissions: row.Count,
			})
		}
		res.RecentAssignments = top
		return nil
	})

	if err := g.Wait(); err != nil {
		return SystemAnalytics{}, err
	}

	res.Totals.AverageScore = Avg(avg)
	return res, nil
}

// Dashboard computes the rollup scoped to the calling teacher: their own
// assignments and their department's students.
func (svc *Service) Dashboard(ctx context.Context, caller user.User) (ScopedAnalytics, error) {
	now := svc.nowFunc().UTC()
	res := ScopedAnalytics{
		ScoreDistribution:     []ScoreBucket{},
		AssignmentPerformance: []AssignmentPerformance{},
		CompletionTrend:       []TrendPoint{},
		TopStudents:           []TopStudent{},
	}
	scope := Filter{OwnerID: caller.ID}

	g := newGroup(ctx, svc.logger, svc.conf.QueryTimeout)

	var (
		avg         null.Float64
		recent      []AssignmentRow
		recentStats []GroupRow
		topRanked   []TopStudent
	)

	g.Critical("assignment count", func(ctx context.Context) (err error) {
		res.Summary.Assignments, err = svc.repo.CountAssignments(ctx, Filter{OwnerID: caller.ID})
		return
	})
	g.Critical("published count", func(ctx context.Context) (err error) {
		res.Summary.Published, err = svc.repo.CountAssignments(ctx, Filter{OwnerID: caller.ID, Status: assignment.StatusPublished})
		return
	})
	g.Critical("student count", func(ctx context.Context) (err error) {
		res.Summary.Students, err = svc.repo.CountUsers(ctx, Filter{RolePrefix: user.RoleStudent, Department: caller.Department})
		return
	})
	g.Critical("submission count", func(ctx context.Context) (err error) {
		res.Summary.Submissions, err = svc.repo.CountSubmissions(ctx, scope)
		return
	})
	g.Critical("average score", func(ctx context.Context) (err error) {
		avg, err = svc.repo.AverageScore(ctx, scope)
		return
	})

	g.Optional("score distribution", func(ctx context.Context) error {
		scores, err := svc.repo.ScoreValues(ctx, scope)
		if err != nil {
			return err
		}
		res.ScoreDistribution = DistributeScores(scores)
		return nil
	})
	g.Optional("completion trend", func(ctx context.Context) error {
		wins := Windows(now, GranularityMonth, svc.conf.CompletionMonths)
		rows, err := svc.repo.SubmissionMonthlyCounts(ctx, Filter{OwnerID: caller.ID, From: wins[0].Start, To: wins[len(wins)-1].End})
		if err != nil {
			return err
		}
		points, err := foldCountTrend(wins, rows)
		if err != nil {
			return err
		}
		res.CompletionTrend = points
		return nil
	})
	g.Optional("assignment performance", func(ctx context.Context) error {
		rows, err := svc.repo.RecentAssignments(ctx, caller.ID, svc.conf.RecentAssignments)
		if err != nil {
			return err
		}
		recent = rows
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		recentStats, err = svc.repo.ScoresByAssignment(ctx, ids)
		return err
	})
	g.Optional("top students", func(ctx context.Context) error {
		rows, err := svc.repo.ScoresByUser(ctx, scope, 0)
		if err != nil {
			return err
		}
		topRanked, err = svc.resolveTopStudents(ctx, rows)
		return err
	})

	if err := g.Wait(); err != nil {
		return ScopedAnalytics{}, err
	}

	res.Summary.AverageScore = Avg(avg)
	res.Summary.CompletionRate = completionRate(res.Summary.Students*res.Summary.Published, res.Summary.Submissions)
	res.AssignmentPerformance = svc.assembleAssignmentPerformance(recent, recentStats, res.Summary.Students)
	if topRanked != nil {
		res.TopStudents = topRanked
	}
	return res, nil
}

// resolveTopStudents truncates the grouped rows to the top K and resolves the
// display profiles with a single batched lookup.
func (svc *Service) resolveTopStudents(ctx context.Context, rows []GroupRow) ([]TopStudent, error) {
	ranked := TopK(rows, svc.conf.TopStudents)
	if len(ranked) == 0 {
		return []TopStudent{}, nil
	}

	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	profiles, err := svc.repo.ProfilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	top := make([]TopStudent, 0, len(ranked))
	for _, r := range ranked {
		student := TopStudent{
			ID:           r.ID,
			Name:         noNamePlaceholder,
			AverageScore: r.Average,
			Submissions:  r.Count,
		}
		if p, ok := byID[r.ID]; ok {
			if p.Name.Valid && p.Name.String != "" {
				student.Name = p.Name.String
			}
			student.Department = p.Department.String
		}
		top = append(top, student)
	}
	return top, nil
}

func (svc *Service) assembleAssignmentPerformance(recent []AssignmentRow, stats []GroupRow, studentCount int64) []AssignmentPerformance {
	if len(recent) == 0 {
		return []AssignmentPerformance{}
	}
	statsByID := make(map[string]GroupRow, len(stats))
	for _, s := range stats {
		statsByID[s.Key] = s
	}

	perf := make([]AssignmentPerformance, 0, len(recent))
	for _, asg := range recent {
		p := AssignmentPerformance{
			ID:    asg.ID,
			Title: asg.Title.String,
		}
		if s, ok := statsByID[asg.ID]; ok {
			p.Submissions = s.Count
			p.AverageScore = Avg(s.Avg)
		}
		p.CompletionRate = completionRate(studentCount, p.Submissions)
		perf = append(perf, p)
	}
	return perf
}
