package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/activity"
	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
)

// ----------------------------------------------------------------------------
// fakes

type fakeUserRepo struct {
	users map[string]user.User
}

var _ user.Repository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{users: make(map[string]user.User)} }

func (r *fakeUserRepo) CheckUsernameUniqueness(_ context.Context, uname, email string, excluded ...user.User) error {
	skip := make(map[string]bool, len(excluded))
	for _, u := range excluded {
		skip[u.ID] = true
	}
	for _, u := range r.users {
		if skip[u.ID] {
			continue
		}
		if u.Username == uname {
			return user.ErrUsernameExists
		}
		if u.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (r *fakeUserRepo) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeUserRepo) QueryAllUsers(context.Context) ([]user.User, error) {
	all := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	return all, nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (user.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *fakeUserRepo) GetUserByUsernameOrEmail(_ context.Context, uname string) (user.User, error) {
	for _, u := range r.users {
		if u.Username == uname || u.Email == uname {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *fakeUserRepo) FilterUsers(context.Context, user.QueryFilter) ([]user.User, error) {
	return r.QueryAllUsers(context.Background())
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	if isActive != nil {
		usr.IsActive = isActive
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeUserRepo) DeleteUsersByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

type fakeAssignmentRepo struct {
	asgs map[string]assignment.Assignment
}

var _ assignment.Repository = (*fakeAssignmentRepo)(nil)

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{asgs: make(map[string]assignment.Assignment)}
}

func (r *fakeAssignmentRepo) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	r.asgs[asg.ID] = asg
	return asg, nil
}

func (r *fakeAssignmentRepo) GetAssignmentByID(_ context.Context, id string) (assignment.Assignment, error) {
	if a, ok := r.asgs[id]; ok {
		return a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (r *fakeAssignmentRepo) FilterAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var asgs []assignment.Assignment
	for _, a := range r.asgs {
		if filter.OwnerID != "" && a.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		asgs = append(asgs, a)
	}
	return asgs, nil
}

func (r *fakeAssignmentRepo) UpdateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	r.asgs[asg.ID] = asg
	return asg, nil
}

func (r *fakeAssignmentRepo) DeleteAssignmentsByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.asgs, id)
	}
	return nil
}

type fakeSubmissionRepo struct {
	subs []submission.Submission
}

var _ submission.Repository = (*fakeSubmissionRepo)(nil)

func (r *fakeSubmissionRepo) CreateSubmission(_ context.Context, sub submission.Submission) (submission.Submission, error) {
	sub.ID = uuid.New().String()
	r.subs = append(r.subs, sub)
	return sub, nil
}

func (r *fakeSubmissionRepo) FilterSubmissions(_ context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	var subs []submission.Submission
	for _, s := range r.subs {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
			continue
		}
		subs = append(subs, s)
	}
	return subs, nil
}

type fakeActivityRepo struct {
	events []activity.Event
}

var _ activity.Repository = (*fakeActivityRepo)(nil)

func (r *fakeActivityRepo) CreateEvent(_ context.Context, evt activity.Event) (activity.Event, error) {
	evt.ID = uuid.New().String()
	r.events = append(r.events, evt)
	return evt, nil
}

// fakeAnalyticsRepo returns fixed aggregates; enough to exercise the HTTP surface.
type fakeAnalyticsRepo struct{}

var _ analytics.Repository = (*fakeAnalyticsRepo)(nil)

func (fakeAnalyticsRepo) CountUsers(context.Context, analytics.Filter) (int64, error) {
	return 10, nil
}
func (fakeAnalyticsRepo) CountAssignments(context.Context, analytics.Filter) (int64, error) {
	return 4, nil
}
func (fakeAnalyticsRepo) CountSubmissions(context.Context, analytics.Filter) (int64, error) {
	return 20, nil
}
func (fakeAnalyticsRepo) AverageScore(context.Context, analytics.Filter) (null.Float64, error) {
	return null.Float64From(75.5), nil
}
func (fakeAnalyticsRepo) ScoreValues(context.Context, analytics.Filter) ([]null.Float64, error) {
	return []null.Float64{null.Float64From(55), null.Float64From(95)}, nil
}
func (fakeAnalyticsRepo) UserMonthlyCounts(context.Context, time.Time, time.Time) ([]analytics.BucketRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) SubmissionDailyCounts(context.Context, analytics.Filter) ([]analytics.BucketRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) SubmissionMonthlyCounts(context.Context, analytics.Filter) ([]analytics.BucketRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) ActivityDailyCounts(context.Context, time.Time, time.Time) ([]analytics.BucketRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) ScoresByDepartment(context.Context, analytics.Filter) ([]analytics.DeptRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) PracticeMinutesByDepartment(context.Context, time.Time, time.Time) ([]analytics.DeptMinutesRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) ScoresByUser(context.Context, analytics.Filter, int) ([]analytics.GroupRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) ScoresByAssignment(context.Context, []string) ([]analytics.GroupRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) TopAssignmentsByVolume(context.Context, time.Time, int) ([]analytics.AssignmentVolumeRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) RecentAssignments(context.Context, string, int) ([]analytics.AssignmentRow, error) {
	return nil, nil
}
func (fakeAnalyticsRepo) ProfilesByID(context.Context, []string) ([]analytics.Profile, error) {
	return nil, nil
}

// ----------------------------------------------------------------------------
// helpers

type testEnv struct {
	server  Server
	auth    *auth
	usrRepo *fakeUserRepo
	asgRepo *fakeAssignmentRepo
}

func testConf() *core.Config {
	conf := &core.Config{
		TestMode:  true,
		AppName:   "Darasa",
		SecretKey: "secret",
	}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.Analytics = core.AnalyticsConfig{
		QueryTimeout:      time.Second,
		GrowthMonths:      6,
		TrendWeeks:        8,
		CompletionMonths:  6,
		HeatmapDays:       42,
		TopAssignments:    8,
		RecentAssignments: 5,
		TopStudents:       5,
	}
	return conf
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	conf := testConf()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()

	usrRepo := newFakeUserRepo()
	asgRepo := newFakeAssignmentRepo()

	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := core.NopLogger{}

	srv := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       user.NewService(usrRepo, mailSvc, conf),
		AssignmentSvc: assignment.NewService(asgRepo),
		SubmissionSvc: submission.NewService(&fakeSubmissionRepo{}),
		ActivitySvc:   activity.NewService(&fakeActivityRepo{}),
		AnalyticsSvc:  analytics.NewService(fakeAnalyticsRepo{}, logger, conf.Analytics),
		Validate:      validate,
		Translator:    translator,
	})

	return &testEnv{
		server:  srv,
		auth:    newAuth(conf),
		usrRepo: usrRepo,
		asgRepo: asgRepo,
	}
}

func (env *testEnv) createUser(t *testing.T, name, uname, email, pwd string, roles []string) user.User {
	t.Helper()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	usr.SetActive(true)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := env.auth.generateToken(env.auth.getUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope failed: %v; body: %s", err, rec.Body.String())
	}
	return env
}

// ----------------------------------------------------------------------------
// tests

func Test_analyticsApi_permissions(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin})
	teacher := env.createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher})
	student := env.createUser(t, "Student", "student", "student@test.cd", "", []string{user.RoleStudent})

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
	}{
		{name: "system: no token", path: "/v1/analytics/system", wantCode: http.StatusUnauthorized},
		{name: "system: student", path: "/v1/analytics/system", token: env.getToken(t, student), wantCode: http.StatusForbidden},
		{name: "system: teacher", path: "/v1/analytics/system", token: env.getToken(t, teacher), wantCode: http.StatusForbidden},
		{name: "system: admin", path: "/v1/analytics/system", token: env.getToken(t, admin), wantCode: http.StatusOK},
		{name: "dashboard: no token", path: "/v1/analytics/dashboard", wantCode: http.StatusUnauthorized},
		{name: "dashboard: student", path: "/v1/analytics/dashboard", token: env.getToken(t, student), wantCode: http.StatusForbidden},
		{name: "dashboard: teacher", path: "/v1/analytics/dashboard", token: env.getToken(t, teacher), wantCode: http.StatusOK},
		{name: "dashboard: admin", path: "/v1/analytics/dashboard", token: env.getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			envlp := decodeEnvelope(t, rec)
			if tt.wantCode == http.StatusOK {
				assert.True(t, envlp.Success)
				assert.NotNil(t, envlp.Data)
			} else {
				assert.False(t, envlp.Success)
				assert.NotNil(t, envlp.Message)
			}
		})
	}
}

func Test_analyticsApi_system(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin})

	req, rec := newAuthRequest(http.MethodGet, "/v1/analytics/system", env.getToken(t, admin))
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envlp struct {
		Success bool                      `json:"success"`
		Data    analytics.SystemAnalytics `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envlp); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	assert.True(t, envlp.Success)
	assert.EqualValues(t, 4, envlp.Data.Totals.Assignments)
	assert.EqualValues(t, 20, envlp.Data.Totals.Submissions)
	assert.Equal(t, 75.5, envlp.Data.Totals.AverageScore)

	// degraded rollups come back as empty slices, not null
	assert.NotNil(t, envlp.Data.UserGrowth)
	assert.NotNil(t, envlp.Data.ScoreDistribution)
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	env.createUser(t, "Hero", "hero", "hero@test.cd", "s3cr3t-pwd", []string{user.RoleStudent})

	body := func(uname, pwd string) []byte {
		b, _ := json.Marshal(map[string]string{"username": uname, "password": pwd})
		return b
	}

	tests := []struct {
		name     string
		body     []byte
		wantCode int
	}{
		{name: "valid credentials", body: body("hero", "s3cr3t-pwd"), wantCode: http.StatusOK},
		{name: "valid email credentials", body: body("hero@test.cd", "s3cr3t-pwd"), wantCode: http.StatusOK},
		{name: "wrong password", body: body("hero", "nope"), wantCode: http.StatusBadRequest},
		{name: "unknown user", body: body("ghost", "nope"), wantCode: http.StatusBadRequest},
		{name: "missing fields", body: body("", ""), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/login", "", tt.body)
			env.server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			envlp := decodeEnvelope(t, rec)
			if tt.wantCode == http.StatusOK {
				assert.True(t, envlp.Success)
				data, _ := envlp.Data.(map[string]interface{})
				assert.NotEmpty(t, data["token"])
			} else {
				assert.False(t, envlp.Success)
			}
		})
	}
}

func Test_assignmentApi_create(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher})
	student := env.createUser(t, "Student", "student", "student@test.cd", "", []string{user.RoleStudent})

	body, _ := json.Marshal(map[string]string{"title": "Algebra II", "status": "published"})

	t.Run("student forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", env.getToken(t, student), body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("teacher creates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", env.getToken(t, teacher), body)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		envlp := decodeEnvelope(t, rec)
		assert.True(t, envlp.Success)
		data, _ := envlp.Data.(map[string]interface{})
		assert.Equal(t, "Algebra II", data["title"])
		assert.Equal(t, teacher.ID, data["owner_id"])
	})
}

func Test_submissionApi_create(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher})
	student := env.createUser(t, "Student", "student", "student@test.cd", "", []string{user.RoleStudent})

	published, err := env.asgRepo.CreateAssignment(context.Background(), assignment.Assignment{
		OwnerID: teacher.ID,
		Title:   "Quiz 1",
		Status:  assignment.StatusPublished,
	})
	if err != nil {
		t.Fatalf("creating assignment failed: %v", err)
	}
	draft, err := env.asgRepo.CreateAssignment(context.Background(), assignment.Assignment{
		OwnerID: teacher.ID,
		Title:   "Quiz 2",
		Status:  assignment.StatusDraft,
	})
	if err != nil {
		t.Fatalf("creating assignment failed: %v", err)
	}

	body := func(asgID string, score float64) []byte {
		b, _ := json.Marshal(map[string]interface{}{"assignment_id": asgID, "score": score})
		return b
	}

	tests := []struct {
		name     string
		body     []byte
		wantCode int
	}{
		{name: "published assignment", body: body(published.ID, 87.5), wantCode: http.StatusCreated},
		{name: "draft assignment", body: body(draft.ID, 87.5), wantCode: http.StatusForbidden},
		{name: "unknown assignment", body: body(uuid.New().String(), 50), wantCode: http.StatusNotFound},
		{name: "score above 100", body: body(published.ID, 101), wantCode: http.StatusBadRequest},
		{name: "negative score", body: body(published.ID, -1), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/submissions", env.getToken(t, student), tt.body)
			env.server.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
