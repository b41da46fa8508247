package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// fakeRepo serves canned aggregate rows; errs injects per-query failures.
type fakeRepo struct {
	errs map[string]error

	usersTotal, students, teachers      int64
	assignments, published, submissions int64
	avg                                 null.Float64
	scores                              []null.Float64
	userMonthly                         []BucketRow
	subDaily                            []BucketRow
	subMonthly                          []BucketRow
	actDaily                            []BucketRow
	deptRows                            []DeptRow
	practice                            []DeptMinutesRow
	byUser                              []GroupRow
	byAssignment                        []GroupRow
	topVol                              []AssignmentVolumeRow
	recent                              []AssignmentRow
	profiles                            []Profile
}

func (r *fakeRepo) err(name string) error {
	if r.errs == nil {
		return nil
	}
	return r.errs[name]
}

func (r *fakeRepo) CountUsers(_ context.Context, f Filter) (int64, error) {
	if err := r.err("CountUsers"); err != nil {
		return 0, err
	}
	switch f.RolePrefix {
	case user.RoleStudent:
		return r.students, nil
	case user.RoleTeacher:
		return r.teachers, nil
	}
	return r.usersTotal, nil
}

func (r *fakeRepo) CountAssignments(_ context.Context, f Filter) (int64, error) {
	if err := r.err("CountAssignments"); err != nil {
		return 0, err
	}
	if f.Status != "" {
		return r.published, nil
	}
	return r.assignments, nil
}

func (r *fakeRepo) CountSubmissions(_ context.Context, _ Filter) (int64, error) {
	return r.submissions, r.err("CountSubmissions")
}

func (r *fakeRepo) AverageScore(_ context.Context, _ Filter) (null.Float64, error) {
	return r.avg, r.err("AverageScore")
}

func (r *fakeRepo) ScoreValues(_ context.Context, _ Filter) ([]null.Float64, error) {
	return r.scores, r.err("ScoreValues")
}

func (r *fakeRepo) UserMonthlyCounts(_ context.Context, _, _ time.Time) ([]BucketRow, error) {
	return r.userMonthly, r.err("UserMonthlyCounts")
}

func (r *fakeRepo) SubmissionDailyCounts(_ context.Context, _ Filter) ([]BucketRow, error) {
	return r.subDaily, r.err("SubmissionDailyCounts")
}

func (r *fakeRepo) SubmissionMonthlyCounts(_ context.Context, _ Filter) ([]BucketRow, error) {
	return r.subMonthly, r.err("SubmissionMonthlyCounts")
}

func (r *fakeRepo) ActivityDailyCounts(_ context.Context, _, _ time.Time) ([]BucketRow, error) {
	return r.actDaily, r.err("ActivityDailyCounts")
}

func (r *fakeRepo) ScoresByDepartment(_ context.Context, _ Filter) ([]DeptRow, error) {
	return r.deptRows, r.err("ScoresByDepartment")
}

func (r *fakeRepo) PracticeMinutesByDepartment(_ context.Context, _, _ time.Time) ([]DeptMinutesRow, error) {
	return r.practice, r.err("PracticeMinutesByDepartment")
}

func (r *fakeRepo) ScoresByUser(_ context.Context, _ Filter, _ int) ([]GroupRow, error) {
	return r.byUser, r.err("ScoresByUser")
}

func (r *fakeRepo) ScoresByAssignment(_ context.Context, _ []string) ([]GroupRow, error) {
	return r.byAssignment, r.err("ScoresByAssignment")
}

func (r *fakeRepo) TopAssignmentsByVolume(_ context.Context, _ time.Time, _ int) ([]AssignmentVolumeRow, error) {
	return r.topVol, r.err("TopAssignmentsByVolume")
}

func (r *fakeRepo) RecentAssignments(_ context.Context, _ string, _ int) ([]AssignmentRow, error) {
	return r.recent, r.err("RecentAssignments")
}

func (r *fakeRepo) ProfilesByID(_ context.Context, _ []string) ([]Profile, error) {
	return r.profiles, r.err("ProfilesByID")
}

var _ Repository = (*fakeRepo)(nil)

func testConf() core.AnalyticsConfig {
	return core.AnalyticsConfig{
		QueryTimeout:      time.Second,
		GrowthMonths:      6,
		TrendWeeks:        8,
		CompletionMonths:  6,
		HeatmapDays:       42,
		TopAssignments:    8,
		RecentAssignments: 5,
		TopStudents:       5,
	}
}

func newTestService(repo Repository, logger core.Logger, now time.Time) *Service {
	svc := NewService(repo, logger, testConf())
	svc.nowFunc = func() time.Time { return now }
	return svc
}

func TestServiceSystem(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		usersTotal:  120,
		students:    100,
		teachers:    15,
		assignments: 30,
		submissions: 900,
		avg:         null.Float64From(77.77),
		scores:      scoresOf(55, 61, 72, 81, 95, 100),
		userMonthly: []BucketRow{
			{Bucket: null.TimeFrom(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)), Count: 12},
			{Bucket: null.TimeFrom(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)), Count: 7},
		},
		deptRows: []DeptRow{
			{Department: null.StringFrom("Mathematics"), Avg: null.Float64From(81.234), Count: 400},
			{Department: null.String{}, Avg: null.Float64{}, Count: 3},
		},
		practice: []DeptMinutesRow{
			{Department: null.StringFrom("Physics"), Minutes: null.Int64From(330)},
		},
		topVol: []AssignmentVolumeRow{
			{ID: "a1", Title: null.StringFrom("Algebra I"), Count: 42},
		},
	}
	svc := newTestService(repo, core.NopLogger{}, now)

	res, err := svc.System(context.Background())
	if err != nil {
		t.Fatalf("System() error = %v", err)
	}

	if res.Totals.Users != 120 || res.Totals.Students != 100 || res.Totals.Teachers != 15 {
		t.Errorf("Totals = %+v", res.Totals)
	}
	if res.Totals.AverageScore != 77.8 {
		t.Errorf("AverageScore = %v, want 77.8", res.Totals.AverageScore)
	}

	if len(res.UserGrowth) != 6 {
		t.Fatalf("len(UserGrowth) = %d, want 6", len(res.UserGrowth))
	}
	if res.UserGrowth[3].Period != "2024-01" || res.UserGrowth[3].Count != 12 {
		t.Errorf("UserGrowth[3] = %+v", res.UserGrowth[3])
	}
	if res.UserGrowth[5].Period != "2024-03" || res.UserGrowth[5].Count != 7 {
		t.Errorf("UserGrowth[5] = %+v", res.UserGrowth[5])
	}

	if len(res.DepartmentPerformance) != 2 {
		t.Fatalf("len(DepartmentPerformance) = %d", len(res.DepartmentPerformance))
	}
	if dp := res.DepartmentPerformance[0]; dp.Department != "Mathematics" || dp.AverageScore != 81.2 || dp.TestCount != 400 {
		t.Errorf("DepartmentPerformance[0] = %+v", dp)
	}
	if dp := res.DepartmentPerformance[1]; dp.Department != "unassigned" || dp.AverageScore != 0 {
		t.Errorf("DepartmentPerformance[1] = %+v", dp)
	}

	if len(res.ActivityHeatmap) != 42 {
		t.Errorf("len(ActivityHeatmap) = %d, want 42", len(res.ActivityHeatmap))
	}
	if len(res.PracticeHours) != 1 || res.PracticeHours[0].Hours != 5.5 {
		t.Errorf("PracticeHours = %+v", res.PracticeHours)
	}

	var total int
	for _, b := range res.ScoreDistribution {
		total += b.Count
	}
	if total != 6 {
		t.Errorf("score distribution total = %d, want 6", total)
	}

	if len(res.RecentAssignments) != 1 || res.RecentAssignments[0].Title != "Algebra I" {
		t.Errorf("RecentAssignments = %+v", res.RecentAssignments)
	}
}

func TestServiceSystemCriticalFailureAborts(t *testing.T) {
	repo := &fakeRepo{errs: map[string]error{"CountUsers": errors.New("store down")}}
	svc := newTestService(repo, core.NopLogger{}, time.Now().UTC())

	if _, err := svc.System(context.Background()); err == nil {
		t.Fatal("System() error = nil, want critical failure")
	}
}

func TestServiceSystemOptionalFailureDegrades(t *testing.T) {
	logger := &recordingLogger{}
	repo := &fakeRepo{
		usersTotal: 10,
		errs:       map[string]error{"ScoreValues": errors.New("slow aggregate")},
	}
	svc := newTestService(repo, logger, time.Now().UTC())

	res, err := svc.System(context.Background())
	if err != nil {
		t.Fatalf("System() error = %v, want success with degraded distribution", err)
	}
	if len(res.ScoreDistribution) != 0 {
		t.Errorf("ScoreDistribution = %+v, want empty default", res.ScoreDistribution)
	}
	if res.Totals.Users != 10 {
		t.Errorf("Totals.Users = %d, want 10", res.Totals.Users)
	}
	if len(logger.warns) == 0 {
		t.Error("degraded query was not logged")
	}
}

func TestServiceDashboard(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	caller := user.User{ID: "t1", Department: "Mathematics", Roles: []string{user.RoleTeacher}}

	repo := &fakeRepo{
		assignments: 12,
		published:   4,
		students:    20,
		submissions: 70,
		avg:         null.Float64From(68.04),
		scores:      scoresOf(40, 65, 92),
		subMonthly: []BucketRow{
			{Bucket: null.TimeFrom(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)), Count: 33},
		},
		recent: []AssignmentRow{
			{ID: "a1", Title: null.StringFrom("Limits"), Status: "published", CreatedAt: now.AddDate(0, 0, -3)},
			{ID: "a2", Title: null.String{}, Status: "published", CreatedAt: now.AddDate(0, 0, -9)},
		},
		byAssignment: []GroupRow{
			{Key: "a1", Avg: null.Float64From(74.46), Count: 25},
		},
		byUser: []GroupRow{
			groupRow("s2", 88, 4),
			groupRow("s1", 88, 6),
			groupRow("s3", 70, 2),
		},
		profiles: []Profile{
			{ID: "s1", Name: null.StringFrom("Asha"), Department: null.StringFrom("Mathematics")},
			{ID: "s3", Name: null.String{}},
		},
	}
	svc := newTestService(repo, core.NopLogger{}, now)

	res, err := svc.Dashboard(context.Background(), caller)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if res.Summary.Assignments != 12 || res.Summary.Published != 4 || res.Summary.Students != 20 {
		t.Errorf("Summary = %+v", res.Summary)
	}
	if res.Summary.AverageScore != 68 {
		t.Errorf("AverageScore = %v, want 68", res.Summary.AverageScore)
	}
	// expected = 20 students * 4 published = 80; actual 70
	if res.Summary.CompletionRate != 87.5 {
		t.Errorf("CompletionRate = %v, want 87.5", res.Summary.CompletionRate)
	}

	if len(res.CompletionTrend) != 6 {
		t.Fatalf("len(CompletionTrend) = %d, want 6", len(res.CompletionTrend))
	}
	if res.CompletionTrend[4].Period != "2024-02" || res.CompletionTrend[4].Count != 33 {
		t.Errorf("CompletionTrend[4] = %+v", res.CompletionTrend[4])
	}

	if len(res.AssignmentPerformance) != 2 {
		t.Fatalf("len(AssignmentPerformance) = %d, want 2", len(res.AssignmentPerformance))
	}
	if p := res.AssignmentPerformance[0]; p.Submissions != 25 || p.AverageScore != 74.5 || p.CompletionRate != 100 {
		t.Errorf("AssignmentPerformance[0] = %+v", p)
	}
	if p := res.AssignmentPerformance[1]; p.Submissions != 0 || p.CompletionRate != 0 {
		t.Errorf("AssignmentPerformance[1] = %+v", p)
	}

	if len(res.TopStudents) != 3 {
		t.Fatalf("len(TopStudents) = %d, want 3", len(res.TopStudents))
	}
	// tie on 88 broken by id ascending
	if res.TopStudents[0].ID != "s1" || res.TopStudents[0].Name != "Asha" {
		t.Errorf("TopStudents[0] = %+v", res.TopStudents[0])
	}
	if res.TopStudents[1].ID != "s2" || res.TopStudents[1].Name != "no name" {
		t.Errorf("TopStudents[1] = %+v", res.TopStudents[1])
	}
	if res.TopStudents[2].ID != "s3" || res.TopStudents[2].Name != "no name" {
		t.Errorf("TopStudents[2] = %+v", res.TopStudents[2])
	}
}

func TestServiceDashboardRankingFailureDegrades(t *testing.T) {
	logger := &recordingLogger{}
	repo := &fakeRepo{
		byUser: []GroupRow{groupRow("s1", 90, 3)},
		errs:   map[string]error{"ProfilesByID": errors.New("profiles unavailable")},
	}
	svc := newTestService(repo, logger, time.Now().UTC())

	res, err := svc.Dashboard(context.Background(), user.User{ID: "t1"})
	if err != nil {
		t.Fatalf("Dashboard() error = %v, want success with degraded ranking", err)
	}
	if len(res.TopStudents) != 0 {
		t.Errorf("TopStudents = %+v, want empty default", res.TopStudents)
	}
	if len(logger.warns) == 0 {
		t.Error("degraded ranking was not logged")
	}
}
