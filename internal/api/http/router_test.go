package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/question"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

type recordedEvents struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recordedEvents) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

type fixture struct {
	router chi.Router
	store  question.Store
	events *recordedEvents
	auth   *auth.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := question.NewInMemoryStore()
	require.NoError(t, store.PutExercise(ctx, question.Exercise{
		ID:    "q1",
		Title: "Living things",
		Items: []question.Item{
			{ID: "1", Name: "Cat", Category: "Animal"},
			{ID: "2", Name: "Oak", Category: "Plant"},
		},
		Categories: []question.Category{{Name: "Animal"}, {Name: "Plant"}},
	}))
	require.NoError(t, store.PutCloze(ctx, question.Cloze{
		ID:   "c1",
		Text: "The capital of France is {{capital}}.",
		Blanks: []question.Blank{
			{Name: "capital", Hint: "a city", Answers: []string{"Paris"}},
		},
	}))
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	rec := &recordedEvents{}
	a := auth.NewAuthService("test-secret")
	r := NewRouter(RouterConfig{
		Deps: Deps{
			Store:           store,
			Grader:          grading.NewDefaultGrader(),
			Blobs:           blobs,
			Events:          rec,
			DefaultQuestion: "q1",
		},
		Auth:     a,
		Operator: auth.Operator{User: "admin", PassHash: string(hash)},
	})
	return &fixture{router: r, store: store, events: rec, auth: a}
}

func (f *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := f.auth.IssueJWT("tester", role)
	require.NoError(t, err)
	return tok
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestGetQuestion_DefaultsToConfiguredQuestion(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/question", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ex := decode[question.Exercise](t, rec)
	require.Equal(t, "q1", ex.ID)
	require.Equal(t, question.KindCategorize, ex.Kind)
	require.Len(t, ex.Items, 2)
}

func TestGetQuestion_ClozeHidesAnswerKeys(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/question?id=c1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "Paris")
	cz := decode[question.Cloze](t, rec)
	require.Equal(t, question.KindCloze, cz.Kind)
	require.Equal(t, "a city", cz.Blanks[0].Hint)
}

func TestGetQuestion_NotFound(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/question?id=nope", "", "").Code)
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/api/question", `{"itemId":"1","categoryName":"Plant"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	ex := decode[question.Exercise](t, rec)
	require.Equal(t, "Plant", ex.Items[0].Category)
	require.Equal(t, "Plant", ex.Items[1].Category)

	require.Len(t, f.events.got, 1)
	require.Equal(t, events.TypeItemMoved, f.events.got[0].Type)
	require.Equal(t, "q1", f.events.got[0].Key)
}

func TestMove_Rejections(t *testing.T) {
	cases := []struct {
		name, target, body string
		want               int
	}{
		{"unknown category", "/api/question", `{"itemId":"1","categoryName":"Mineral"}`, http.StatusUnprocessableEntity},
		{"unknown item", "/api/question", `{"itemId":"9","categoryName":"Plant"}`, http.StatusNotFound},
		{"unknown question", "/api/question?id=zz", `{"itemId":"1","categoryName":"Plant"}`, http.StatusNotFound},
		{"cloze question", "/api/question?id=c1", `{"itemId":"1","categoryName":"Plant"}`, http.StatusConflict},
		{"missing fields", "/api/question", `{"itemId":"1"}`, http.StatusBadRequest},
		{"bad json", "/api/question", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPut, tc.target, tc.body, "")
			require.Equal(t, tc.want, rec.Code, rec.Body.String())
			require.Empty(t, f.events.got)

			ex, err := f.store.GetExercise(context.Background(), "q1")
			require.NoError(t, err)
			require.Equal(t, "Animal", ex.Items[0].Category, "rejected move must not change state")
		})
	}
}

func TestSubmit_GradesArchivesAndRecords(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/question?id=c1", `{"capital":" paris "}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	fb := decode[question.Feedback](t, rec)
	require.Equal(t, 1, fb.Correct)
	require.Equal(t, "All 1 blanks correct!", fb.Message)

	subs, err := f.store.ListSubmissions(context.Background(), question.SubmissionListOpts{QuestionID: "c1"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NotEmpty(t, subs[0].BlobKey)
	require.Len(t, f.events.got, 1)
	require.Equal(t, events.TypeAnswersSubmitted, f.events.got[0].Type)

	op := f.token(t, rbac.RoleOperator)
	arch := f.do(t, http.MethodGet, "/api/admin/archive/"+subs[0].BlobKey, "", op)
	require.Equal(t, http.StatusOK, arch.Code)
	archived := decode[question.Submission](t, arch)
	require.Equal(t, subs[0].ID, archived.ID)
	require.Equal(t, " paris ", archived.Answers["capital"])
}

func TestSubmit_OnCategorizeQuestionConflicts(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/question", `{"capital":"Paris"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdmin_RequiresOperator(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/admin/questions", "", "").Code)
	learner := f.token(t, rbac.RoleLearner)
	require.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/admin/questions", "", learner).Code)
}

func TestAdmin_LoginThenUpsertAndList(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode[map[string]string](t, rec)["access_token"]
	require.NotEmpty(t, tok)

	body := `{"kind":"categorize","title":"Shapes","categories":[{"name":"Round"},{"name":"Square"}],
		"items":[{"name":"Ball","category":"Round"},{"name":"Box","category":"Cube"}]}`
	rec = f.do(t, http.MethodPost, "/api/admin/questions", body, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)

	rec = f.do(t, http.MethodGet, "/api/admin/questions", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]question.Summary](t, rec)
	require.Len(t, list, 3)

	rec = f.do(t, http.MethodGet, "/api/admin/questions/"+id+"/integrity", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[integrityReport](t, rec)
	require.False(t, rep.OK)
	require.Len(t, rep.Unknown, 1)
	require.Equal(t, "Box", rep.Unknown[0].Name)

	// the learner endpoint still serves it
	rec = f.do(t, http.MethodGet, "/api/question?id="+id, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_UpsertValidation(t *testing.T) {
	f := newFixture(t)
	op := f.token(t, rbac.RoleOperator)
	cases := map[string]struct {
		body string
		want int
	}{
		"unknown kind":       {`{"kind":"essay"}`, http.StatusBadRequest},
		"duplicate category": {`{"categories":[{"name":"A"},{"name":"A"}]}`, http.StatusBadRequest},
		"undeclared blank":   {`{"kind":"cloze","text":"{{x}}"}`, http.StatusBadRequest},
		"kind clash":         {`{"kind":"cloze","id":"q1","text":"none"}`, http.StatusConflict},
		"not json":           {`nope`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/admin/questions", tc.body, op)
			require.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAdmin_Submissions(t *testing.T) {
	f := newFixture(t)
	for _, ans := range []string{"Paris", "Lyon"} {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/question?id=c1", `{"capital":"`+ans+`"}`, "").Code)
	}
	op := f.token(t, rbac.RoleOperator)

	rec := f.do(t, http.MethodGet, "/api/admin/submissions?question_id=c1&limit=1", "", op)
	require.Equal(t, http.StatusOK, rec.Code)
	subs := decode[[]question.Submission](t, rec)
	require.Len(t, subs, 1)
	require.Equal(t, "Lyon", subs[0].Answers["capital"], "newest first")

	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/admin/submissions?limit=x", "", op).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/admin/archive/nope.json", "", op).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/admin/events", "", op).Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", "", "").Code)
}
