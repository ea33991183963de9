package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/courseflow/internal/api/http"
	auth "github.com/mind-engage/courseflow/internal/auth/middleware"
	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/learning"
)

type failingWrites struct {
	*course.MemoryStore
}

func (failingWrites) UpsertCompletion(context.Context, course.CompletionRecord) error {
	return fmt.Errorf("connection refused")
}

type failingVideos struct {
	*course.MemoryStore
}

func (failingVideos) ListVideos(context.Context, string) ([]course.Video, error) {
	return nil, fmt.Errorf("connection reset")
}

type fixture struct {
	srv   *httptest.Server
	store *course.MemoryStore
	auth  *auth.AuthService
}

func seed(t *testing.T, st *course.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.PutCourse(ctx, course.Course{ID: "c1", Name: "Intro", Order: 1}))
	require.NoError(t, st.PutCourse(ctx, course.Course{ID: "c0", Name: "Warmup", Order: 0}))
	for i := 1; i <= 3; i++ {
		require.NoError(t, st.PutVideo(ctx, course.Video{ID: fmt.Sprintf("v%d", i), CourseID: "c1", Order: i}))
	}
	for i := 1; i <= 4; i++ {
		require.NoError(t, st.PutQuestion(ctx, course.Question{
			ID: fmt.Sprintf("q%d", i), VideoID: "v1", Text: "pick b",
			Options: []string{"a", "b"}, CorrectOptionIndex: 1,
		}))
	}
}

func newFixture(t *testing.T, wrap func(*course.MemoryStore) course.Remote) *fixture {
	t.Helper()
	st := course.NewMemoryStore()
	seed(t, st)
	var remote course.Remote = st
	if wrap != nil {
		remote = wrap(st)
	}
	a := auth.NewAuthService("test-secret")
	h := api.NewRouter(api.RouterConfig{
		Service: learning.NewService(remote, nil),
		Auth:    a,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: st, auth: a}
}

func (f *fixture) token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := f.auth.IssueJWT(sub, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path, tok string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func answers(correct int) map[string]string {
	a := map[string]string{}
	for i := 1; i <= 4; i++ {
		if i <= correct {
			a[fmt.Sprintf("q%d", i)] = "b"
		} else {
			a[fmt.Sprintf("q%d", i)] = "a"
		}
	}
	return a
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	res, _ := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestListCourses_OrderedAndAnonymous(t *testing.T) {
	f := newFixture(t, nil)
	res, err := http.Get(f.srv.URL + "/courses")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var cs []course.Course
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cs))
	require.Len(t, cs, 2)
	assert.Equal(t, "c0", cs[0].ID)
	assert.Equal(t, "c1", cs[1].ID)
}

func TestQuestions_HideAnswerKey(t *testing.T) {
	f := newFixture(t, nil)
	res, err := http.Get(f.srv.URL + "/videos/v1/questions")
	require.NoError(t, err)
	defer res.Body.Close()

	var qs []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&qs))
	require.Len(t, qs, 4)
	_, leaked := qs[0]["correct_option_index"]
	assert.False(t, leaked)
}

func TestProgress_AnonymousGetsFirstVideo(t *testing.T) {
	f := newFixture(t, nil)
	res, body := f.do(t, http.MethodGet, "/courses/c1/progress", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "v1", body["current_video_id"])
}

func TestProgress_UnknownCourse(t *testing.T) {
	f := newFixture(t, nil)
	res, _ := f.do(t, http.MethodGet, "/courses/nope/progress", f.token(t, "u1", "student"), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSubmit_PassAdvancesProgress(t *testing.T) {
	f := newFixture(t, nil)
	tok := f.token(t, "u1", "student")

	res, body := f.do(t, http.MethodPost, "/videos/v1/submissions", tok,
		map[string]any{"course_id": "c1", "answers": answers(3)})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(75), body["score"])

	prog := body["progress"].(map[string]any)
	assert.Equal(t, "v2", prog["current_video_id"])
	assert.Equal(t, map[string]any{"current": float64(2), "total": float64(3), "percent": float64(67)}, prog["progress"])

	res, body = f.do(t, http.MethodGet, "/courses/c1/progress", tok, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "v2", body["current_video_id"])
}

func TestSubmit_EmptyQuestionBank(t *testing.T) {
	f := newFixture(t, nil)
	res, body := f.do(t, http.MethodPost, "/videos/v2/submissions", f.token(t, "u1", "student"),
		map[string]any{"course_id": "c1", "answers": map[string]string{"x": "y"}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(0), body["score"])
}

func TestSubmit_WriteFailure(t *testing.T) {
	f := newFixture(t, func(st *course.MemoryStore) course.Remote { return failingWrites{st} })
	res, body := f.do(t, http.MethodPost, "/videos/v1/submissions", f.token(t, "u1", "student"),
		map[string]any{"course_id": "c1", "answers": answers(4)})
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(100), body["score"])

	recs, err := f.store.ListCompletions(context.Background(), "u1", []string{"v1"})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t, nil)
	tok := f.token(t, "u1", "student")

	res, _ := f.do(t, http.MethodPost, "/videos/v1/submissions", tok, map[string]any{"answers": answers(4)})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "course_id required")

	res, _ = f.do(t, http.MethodPost, "/videos/v1/submissions", tok,
		map[string]any{"course_id": "c1", "answers": map[string]string{"": "b"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "blank question id")
}

func TestSubmit_EmptyAnswersGradedAsZero(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.do(t, http.MethodPost, "/videos/v1/submissions", f.token(t, "u1", "student"),
		map[string]any{"course_id": "c1", "answers": map[string]string{}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(0), body["score"])

	recs, err := f.store.ListCompletions(context.Background(), "u1", []string{"v1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 0, recs[0].ScorePercent)
	assert.False(t, recs[0].Passed)
}

func TestSubmit_VideoListReadFailure(t *testing.T) {
	f := newFixture(t, func(st *course.MemoryStore) course.Remote { return failingVideos{st} })

	res, body := f.do(t, http.MethodPost, "/videos/v1/submissions", f.token(t, "u1", "student"),
		map[string]any{"course_id": "c1", "answers": answers(4)})
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Contains(t, body["error"], "remote read failed")

	recs, err := f.store.ListCompletions(context.Background(), "u1", []string{"v1"})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSubmit_Authorization(t *testing.T) {
	f := newFixture(t, nil)
	body := map[string]any{"course_id": "c1", "answers": answers(4)}

	res, _ := f.do(t, http.MethodPost, "/videos/v1/submissions", "", body)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = f.do(t, http.MethodPost, "/videos/v1/submissions", f.token(t, "t1", "teacher"), body)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestSubmit_VideoOutsideCourse(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.PutCourse(context.Background(), course.Course{ID: "c2"}))
	require.NoError(t, f.store.PutVideo(context.Background(), course.Video{ID: "w1", CourseID: "c2", Order: 1}))

	res, _ := f.do(t, http.MethodPost, "/videos/v1/submissions", f.token(t, "u1", "student"),
		map[string]any{"course_id": "c2", "answers": answers(4)})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
