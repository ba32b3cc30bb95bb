package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kyri56xcaesar/pms-tracker/internal/authmw"
	"kyri56xcaesar/pms-tracker/internal/config"
	"kyri56xcaesar/pms-tracker/internal/notify"
	"kyri56xcaesar/pms-tracker/internal/progress"
	"kyri56xcaesar/pms-tracker/internal/status"
	"kyri56xcaesar/pms-tracker/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "tracker-test-secret"

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Assignment
	err  error
}

func (f *fakeNotifier) NotifyAssignment(_ context.Context, a notify.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, a)
	return nil
}

type fixture struct {
	srv      *Server
	store    *store.Store
	notifier *fakeNotifier

	manager store.User
	as400   store.User
	web     store.User
	project store.Project
	task    store.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a, err := authmw.NewHMACAuth(testSecret, "", "")
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	cfg := config.Config{
		ApiGinMode:       "test",
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		EnforceUserTypes: true,
	}
	n := &fakeNotifier{}
	f := &fixture{srv: NewServer(cfg, st, n, a, nil), store: st, notifier: n}

	f.manager = f.mustUser(t, "Boss", "boss@example.com", store.UserTypeWeb, store.RoleManager)
	f.as400 = f.mustUser(t, "Ada", "ada@example.com", store.UserTypeAS400, store.RoleCollaborator)
	f.web = f.mustUser(t, "Wes", "wes@example.com", store.UserTypeWeb, store.RoleCollaborator)

	f.project, err = st.CreateProject(ctx, store.Project{Name: "Alpha", Techno: store.TechnoWeb, UserID: f.manager.ID})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	f.task, err = st.CreateTask(ctx, store.Task{ProjectID: f.project.ID, Name: "Schema"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return f
}

func (f *fixture) mustUser(t *testing.T, name, email, userType, role string) store.User {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), store.User{Name: name, Email: email, UserType: userType, Role: role})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func token(t *testing.T, email string, roles ...string) string {
	t.Helper()
	claims := &authmw.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		PreferredUsername: email,
		Email:             email,
	}
	claims.RealmAccess.Roles = roles

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func (f *fixture) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, apiVersion+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

type validationBody struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields"`
}

func (b validationBody) has(field string) bool {
	for _, f := range b.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestAssign_Succeeds(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/tasks/"+itoa(f.task.ID)+"/assign", tok, AssignRequest{AS400UserID: f.as400.ID, WebUserID: f.web.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode[map[string]any](t, w)
	if body["outcome"] != "assigned" {
		t.Fatalf("outcome = %v", body["outcome"])
	}

	if len(f.notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notifier.sent))
	}
	sent := f.notifier.sent[0]
	if sent.Email != f.as400.Email || sent.TaskName != "Schema" || sent.ProjectName != "Alpha" {
		t.Fatalf("notification = %+v", sent)
	}
}

func TestAssign_ReassignReplacesWebUser(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)
	other := f.mustUser(t, "Wim", "wim@example.com", store.UserTypeWeb, store.RoleCollaborator)

	path := "/tasks/" + itoa(f.task.ID) + "/assign"
	f.do(t, http.MethodPost, path, tok, AssignRequest{AS400UserID: f.as400.ID, WebUserID: f.web.ID})
	w := f.do(t, http.MethodPost, path, tok, AssignRequest{AS400UserID: f.as400.ID, WebUserID: other.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/tasks/"+itoa(f.task.ID)+"/assignments", tok, nil)
	list := decode[[]store.Assignment](t, w)
	if len(list) != 1 || list[0].WebUserID != other.ID {
		t.Fatalf("assignments = %+v", list)
	}
}

func TestAssign_NotifyFailureIsPartialSuccess(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/tasks/"+itoa(f.task.ID)+"/assign", tok, AssignRequest{AS400UserID: f.as400.ID, WebUserID: f.web.ID})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode[map[string]any](t, w)
	if body["outcome"] != "assigned_notify_failed" || body["error"] == nil {
		t.Fatalf("body = %v", body)
	}

	list, err := f.store.ListAssignments(context.Background(), f.task.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("assignment rolled back: %+v", list)
	}
}

func TestAssign_UserTypeMismatch(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/tasks/"+itoa(f.task.ID)+"/assign", tok, AssignRequest{AS400UserID: f.web.ID, WebUserID: f.as400.ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode[validationBody](t, w)
	if !body.has("as400_user_id") || !body.has("web_user_id") {
		t.Fatalf("fields = %+v", body.Fields)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("notified on rejected assignment")
	}
}

func TestAssign_ValidationAndLookupErrors(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/tasks/"+itoa(f.task.ID)+"/assign", tok, map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty body: status = %d", w.Code)
	}
	body := decode[validationBody](t, w)
	if body.Error != "validation failed" || !body.has("as400_user_id") {
		t.Fatalf("empty body: %+v", body)
	}

	w = f.do(t, http.MethodPost, "/tasks/9999/assign", tok, AssignRequest{AS400UserID: f.as400.ID, WebUserID: f.web.ID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown task: status = %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/tasks/"+itoa(f.task.ID)+"/assign", tok, AssignRequest{AS400UserID: 9999, WebUserID: f.web.ID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: status = %d", w.Code)
	}
}

func TestAssign_CollaboratorForbidden(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.web.Email, authmw.RoleCollaborator)

	w := f.do(t, http.MethodPost, "/tasks/"+itoa(f.task.ID)+"/assign", tok, AssignRequest{AS400UserID: f.as400.ID, WebUserID: f.web.ID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTrackStatus_RecomputesProject(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.web.Email, authmw.RoleCollaborator)
	path := "/tasks/" + itoa(f.task.ID)

	w := f.do(t, http.MethodPut, path+"/status", tok, StatusRequest{Status: "in_progress"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode[struct {
		Task          store.Task    `json:"task"`
		ProjectStatus status.Status `json:"project_status"`
	}](t, w)
	if body.Task.Status != status.InProgress || body.ProjectStatus != status.InProgress {
		t.Fatalf("body = %+v", body)
	}

	w = f.do(t, http.MethodPut, path+"/as400_status", tok, StatusRequest{Status: "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("as400 status = %d", w.Code)
	}
	p, err := f.store.GetProject(context.Background(), f.project.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if p.Status != status.InProgress || p.AS400Status != status.Completed {
		t.Fatalf("project = web %s / as400 %s", p.Status, p.AS400Status)
	}

	w = f.do(t, http.MethodPut, path+"/status", tok, StatusRequest{Status: "done"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status accepted: %d", w.Code)
	}
	if body := decode[validationBody](t, w); !body.has("status") {
		t.Fatalf("fields = %+v", body.Fields)
	}
}

func TestProgress_MergesPeriods(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.web.Email, authmw.RoleCollaborator)
	path := "/tasks/" + itoa(f.task.ID) + "/progress"

	if w := f.do(t, http.MethodPut, path, tok, map[string]any{"weekIndex": 2, "value": 50}); w.Code != http.StatusOK {
		t.Fatalf("first: status = %d, body %s", w.Code, w.Body.String())
	}
	w := f.do(t, http.MethodPut, path, tok, map[string]any{"weekIndex": 0, "value": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("second: status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"progress":{"0":10,"2":50}`)) {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = f.do(t, http.MethodPut, path, tok, map[string]any{"weekIndex": 1, "value": 150})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out of range value accepted: %d", w.Code)
	}
	w = f.do(t, http.MethodPut, path, tok, map[string]any{"value": 5})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing index accepted: %d", w.Code)
	}
	if w := f.do(t, http.MethodPut, "/tasks/9999/progress", tok, map[string]any{"weekIndex": 0, "value": 1}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown task: %d", w.Code)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/projects", tok, CreateProjectRequest{
		Name: "Beta", Techno: "web", StartDate: "2026-05-01", EndDate: "2026-04-01",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode[validationBody](t, w); !body.has("end_date") {
		t.Fatalf("fields = %+v", body.Fields)
	}

	w = f.do(t, http.MethodPost, "/projects", tok, CreateProjectRequest{Name: "Beta", Techno: "desktop"})
	if body := decode[validationBody](t, w); w.Code != http.StatusBadRequest || !body.has("techno") {
		t.Fatalf("techno: %d %+v", w.Code, body)
	}

	w = f.do(t, http.MethodPost, "/projects", tok, CreateProjectRequest{Name: "Beta", Techno: "mobile", StartDate: "2026-01-01", EndDate: "2026-02-01"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	p := decode[store.Project](t, w)
	if p.UserID != f.manager.ID || p.Status != status.Pending || p.AS400Status != status.Pending {
		t.Fatalf("project = %+v", p)
	}
}

func TestTaskLifecycle_ThroughAPI(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/tasks", tok, CreateTaskRequest{ProjectID: f.project.ID, Name: "Views", Status: "completed"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[store.Task](t, w)

	// Schema is pending, Views completed: no task in progress, so pending
	p, _ := f.store.GetProject(context.Background(), f.project.ID)
	if p.Status != status.Pending {
		t.Fatalf("project status = %s, want pending", p.Status)
	}

	if w := f.do(t, http.MethodDelete, "/tasks/"+itoa(f.task.ID), tok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	p, _ = f.store.GetProject(context.Background(), f.project.ID)
	if p.Status != status.Completed {
		t.Fatalf("project status after delete = %s, want completed", p.Status)
	}

	w = f.do(t, http.MethodGet, "/projects/"+itoa(f.project.ID)+"/tasks", tok, nil)
	tasks := decode[[]store.Task](t, w)
	if len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("tasks = %+v", tasks)
	}

	if w := f.do(t, http.MethodPost, "/tasks", tok, CreateTaskRequest{ProjectID: 9999, Name: "Lost"}); w.Code != http.StatusNotFound {
		t.Fatalf("missing project: %d", w.Code)
	}
}

func TestCommunity_OnlyAuthorMayEdit(t *testing.T) {
	f := newFixture(t)
	author := token(t, f.web.Email, authmw.RoleCollaborator)
	other := token(t, f.as400.Email, authmw.RoleCollaborator)

	w := f.do(t, http.MethodPost, "/community/questions", author, QuestionRequest{ProjectID: f.project.ID, Question: "Which schema?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	q := decode[store.Question](t, w)
	path := "/community/questions/" + itoa(q.ID)

	if w := f.do(t, http.MethodPut, path, other, UpdateQuestionRequest{Question: "hijack"}); w.Code != http.StatusForbidden {
		t.Fatalf("other user edit: %d", w.Code)
	}
	if w := f.do(t, http.MethodDelete, path, other, nil); w.Code != http.StatusForbidden {
		t.Fatalf("other user delete: %d", w.Code)
	}
	if w := f.do(t, http.MethodPut, path, author, UpdateQuestionRequest{Question: "Which schema version?"}); w.Code != http.StatusOK {
		t.Fatalf("author edit: %d", w.Code)
	}

	w = f.do(t, http.MethodPost, path+"/responses", other, ResponseRequest{Response: "v2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("respond: %d %s", w.Code, w.Body.String())
	}
	r := decode[store.Response](t, w)
	if w := f.do(t, http.MethodPut, "/community/responses/"+itoa(r.ID), author, ResponseRequest{Response: "no"}); w.Code != http.StatusForbidden {
		t.Fatalf("non-author response edit: %d", w.Code)
	}
	if w := f.do(t, http.MethodDelete, "/community/responses/"+itoa(r.ID), other, nil); w.Code != http.StatusNoContent {
		t.Fatalf("author response delete: %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/projects/"+itoa(f.project.ID)+"/questions", other, nil)
	if list := decode[[]store.Question](t, w); len(list) != 1 {
		t.Fatalf("project questions = %+v", list)
	}
}

func TestStats_Endpoints(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)
	if _, err := f.store.UpsertAssignment(context.Background(), f.task.ID, f.as400.ID, f.web.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	w := f.do(t, http.MethodGet, "/user-tasks", tok, nil)
	breakdown := decode[map[string][]store.UserTrackTasks](t, w)
	if len(breakdown["web"]) != 1 || breakdown["web"][0].UserID != f.web.ID {
		t.Fatalf("web breakdown = %+v", breakdown["web"])
	}
	if len(breakdown["as400"]) != 1 || breakdown["as400"][0].UserID != f.as400.ID {
		t.Fatalf("as400 breakdown = %+v", breakdown["as400"])
	}

	w = f.do(t, http.MethodGet, "/users/"+itoa(f.web.ID)+"/tasks", tok, nil)
	if tasks := decode[[]store.Task](t, w); len(tasks) != 1 {
		t.Fatalf("user tasks = %+v", tasks)
	}
	if w := f.do(t, http.MethodGet, "/users/9999/tasks", tok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown user tasks: %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/project-stats", tok, nil)
	ps := decode[store.ProjectStats](t, w)
	want := store.ProjectStats{TotalProjects: 1, TotalTasks: 1, TotalUsers: 1, TotalWeb: 1}
	if ps != want {
		t.Fatalf("project stats = %+v, want %+v", ps, want)
	}

	w = f.do(t, http.MethodGet, "/collaborator-stats?type=AS400", tok, nil)
	cs := decode[[]store.CollaboratorStat](t, w)
	if len(cs) != 1 || cs[0].UserID != f.as400.ID || cs[0].TaskCount != 1 {
		t.Fatalf("collaborator stats = %+v", cs)
	}

	w = f.do(t, http.MethodGet, "/collaborators/tasks", tok, nil)
	ct := decode[struct {
		Assignments int `json:"assignments"`
	}](t, w)
	if ct.Assignments != 2 {
		t.Fatalf("collaborator task total = %d, want 2", ct.Assignments)
	}

	w = f.do(t, http.MethodGet, "/user-stats", token(t, f.web.Email, authmw.RoleCollaborator), nil)
	us := decode[store.UserStats](t, w)
	if us.UserID != f.web.ID || us.TotalTasks != 1 {
		t.Fatalf("user stats = %+v", us)
	}
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/user", token(t, f.web.Email, authmw.RoleCollaborator), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode[struct {
		User store.User `json:"user"`
	}](t, w)
	if body.User.ID != f.web.ID {
		t.Fatalf("user = %+v", body.User)
	}

	w = f.do(t, http.MethodGet, "/user", token(t, "ghost@example.com", authmw.RoleCollaborator), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("unknown identity: %d", w.Code)
	}
}

func TestUsers_ManageAndFilter(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/users", tok, CreateUserRequest{Name: "Nia", Email: "nia@example.com", UserType: "AS400"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodPost, "/users", tok, CreateUserRequest{Name: "Nia", Email: "nia@example.com", UserType: "AS400"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/users", tok, CreateUserRequest{Name: "X", Email: "bad", UserType: "MAINFRAME"}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid: %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/users/type/as400", tok, nil)
	if users := decode[[]store.User](t, w); len(users) != 2 {
		t.Fatalf("as400 users = %+v", users)
	}
	w = f.do(t, http.MethodGet, "/users?type=WEB&role=collaborator", tok, nil)
	if users := decode[[]store.User](t, w); len(users) != 1 || users[0].ID != f.web.ID {
		t.Fatalf("web collaborators = %+v", users)
	}
	if w := f.do(t, http.MethodGet, "/users?type=mainframe", tok, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad type filter: %d", w.Code)
	}
}

func TestUpdates_UnknownOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)
	missing := map[string]any{"user_id": 9999}

	for _, path := range []string{"/tasks/" + itoa(f.task.ID), "/projects/" + itoa(f.project.ID)} {
		w := f.do(t, http.MethodPut, path, tok, missing)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d, body %s", path, w.Code, w.Body.String())
		}
		if body := decode[map[string]any](t, w); body["error"] != "user not found" {
			t.Fatalf("%s: body = %v", path, body)
		}
	}

	task, err := f.store.GetTask(context.Background(), f.task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.UserID != nil {
		t.Fatalf("task owner changed to %d", *task.UserID)
	}

	w := f.do(t, http.MethodPut, "/tasks/"+itoa(f.task.ID), tok, map[string]any{"user_id": f.web.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("known owner: status = %d, body %s", w.Code, w.Body.String())
	}
	if got := decode[store.Task](t, w); got.UserID == nil || *got.UserID != f.web.ID {
		t.Fatalf("task owner = %v", got.UserID)
	}
}

func TestConflict_DoesNotExposeDriverText(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.manager.Email, authmw.RoleManager)

	w := f.do(t, http.MethodPost, "/users", tok, CreateUserRequest{Name: "Ada", Email: f.as400.Email, UserType: "AS400"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if bytes.Contains(bytes.ToLower(w.Body.Bytes()), []byte("constraint")) {
		t.Fatalf("driver error leaked: %s", w.Body.String())
	}
}

func TestUserStats_OtherUserRequiresManager(t *testing.T) {
	f := newFixture(t)
	path := "/user-stats?user_id=" + itoa(f.as400.ID)

	w := f.do(t, http.MethodGet, path, token(t, f.web.Email, authmw.RoleCollaborator), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("collaborator: status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, path, token(t, f.manager.Email, authmw.RoleManager), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("manager: status = %d", w.Code)
	}
	if us := decode[store.UserStats](t, w); us.UserID != f.as400.ID {
		t.Fatalf("user stats = %+v", us)
	}
}

func TestProgress_NegativeIndexNamesWeekIndex(t *testing.T) {
	f := newFixture(t)
	tok := token(t, f.web.Email, authmw.RoleCollaborator)

	w := f.do(t, http.MethodPut, "/tasks/"+itoa(f.task.ID)+"/progress", tok, map[string]any{"weekIndex": -1, "value": 10})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode[validationBody](t, w)
	if !body.has("weekIndex") || body.has("value") {
		t.Fatalf("fields = %+v", body.Fields)
	}
}

func TestProgressFieldError(t *testing.T) {
	ve := progressFieldError(progress.Validate(-1, 10))
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "weekIndex" {
		t.Fatalf("negative index fields = %+v", ve.Fields)
	}

	ve = progressFieldError(progress.Validate(0, 101))
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "value" || ve.Fields[0].Param != "0..100" {
		t.Fatalf("out of range fields = %+v", ve.Fields)
	}
}
