package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mbolis/quick-survey/app"
	"github.com/mbolis/quick-survey/config"
	"github.com/mbolis/quick-survey/database/dbtest"
	"github.com/mbolis/quick-survey/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	t       *testing.T
	handler http.Handler
}

func newServer(t *testing.T) *server {
	cfg := config.Config{
		TokenSecret:      "test-secret",
		TokenTTL:         time.Hour,
		RefreshTTL:       24 * time.Hour,
		AllowAdminSignup: true,
	}
	return &server{t: t, handler: Wire(app.New(dbtest.Open(t), cfg))}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// signup registers and logs in, returning the access token.
func (s *server) signup(username string, role model.Role) string {
	s.t.Helper()

	rec := s.do("POST", "/api/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
		"role":     role,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do("POST", "/api/auth/login", "", map[string]any{
		"username": username,
		"password": "secret123",
	})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	login := decode[struct {
		Token string `json:"token"`
	}](s.t, rec)
	require.NotEmpty(s.t, login.Token)
	return login.Token
}

func (s *server) createSurvey(adminToken string) model.Survey {
	s.t.Helper()

	rec := s.do("POST", "/api/surveys", adminToken, map[string]any{
		"title":       "Lunch",
		"description": "What do you eat?",
		"questions": []map[string]any{
			{"text": "Name", "type": "text", "required": true},
			{"text": "Dish", "question_type": "radio", "options": []string{"Pasta", "Soup"}},
		},
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Survey](s.t, rec)
}

type submitted struct {
	Message      string `json:"message"`
	SessionID    string `json:"sessionId"`
	SubmissionID int64  `json:"submissionId"`
}

func answers(survey model.Survey, values ...string) []map[string]any {
	out := []map[string]any{}
	for i, v := range values {
		out = append(out, map[string]any{"questionId": survey.Questions[i].ID, "answer": v})
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	rec := s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)
}

func TestSurveyLifecycle(t *testing.T) {
	s := newServer(t)
	admin := s.signup("boss", model.RoleAdmin)

	survey := s.createSurvey(admin)
	require.Len(t, survey.Questions, 2)
	assert.Equal(t, model.TypeRadio, survey.Questions[1].Type)
	assert.Equal(t, model.Options{"Pasta", "Soup"}, survey.Questions[1].Options)

	rec := s.do("POST", fmt.Sprintf("/api/surveys/%d/questions", survey.ID), admin, map[string]any{
		"title":        "Allergies",
		"questionType": "textarea",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[model.Question](t, rec)
	assert.Equal(t, 2, added.OrderIndex)

	rec = s.do("GET", "/api/surveys", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Survey](t, rec), 1)

	rec = s.do("GET", fmt.Sprintf("/api/surveys/%d", survey.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[model.Survey](t, rec).Questions, 3)

	rec = s.do("GET", "/api/surveys/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSurveyAdministrationRequiresAdmin(t *testing.T) {
	s := newServer(t)
	user := s.signup("alice", model.RoleUser)

	rec := s.do("POST", "/api/surveys", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("POST", "/api/surveys", user, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("GET", "/api/admin/all-submissions", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("GET", "/api/surveys", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnonymousSubmission(t *testing.T) {
	s := newServer(t)
	admin := s.signup("boss", model.RoleAdmin)
	survey := s.createSurvey(admin)

	rec := s.do("POST", fmt.Sprintf("/api/surveys/%d/submit", survey.ID), "", map[string]any{
		"responses": answers(survey, "Ann", "Soup"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[submitted](t, rec)
	assert.Equal(t, "Survey response submitted successfully", res.Message)
	assert.Len(t, res.SessionID, 36)
	assert.Positive(t, res.SubmissionID)

	rec = s.do("GET", "/api/submissions/"+res.SessionID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decode[model.Submission](t, rec)
	assert.Equal(t, res.SubmissionID, sub.ID)
	assert.Nil(t, sub.UserID)
	assert.Equal(t, "Lunch", sub.SurveyTitle)
	assert.Len(t, sub.Responses, 2)

	rec = s.do("GET", "/api/submissions/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// anonymous submissions are visible to admins only
	rec = s.do("GET", fmt.Sprintf("/api/surveys/submissions/%d", res.SubmissionID), admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	other := s.signup("alice", model.RoleUser)
	rec = s.do("GET", fmt.Sprintf("/api/surveys/submissions/%d", res.SubmissionID), other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmissionValidation(t *testing.T) {
	s := newServer(t)
	admin := s.signup("boss", model.RoleAdmin)
	survey := s.createSurvey(admin)
	path := fmt.Sprintf("/api/surveys/%d/submit", survey.ID)

	rec := s.do("POST", path, "", map[string]any{"responses": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("POST", path, "", map[string]any{
		"responses": []map[string]any{{"questionId": survey.Questions[0].ID}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("POST", "/api/surveys/999/submit", "", map[string]any{
		"responses": answers(survey, "Ann"),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := map[string]any{"responses": answers(survey, "Ann"), "sessionId": "retry-1"}
	rec = s.do("POST", path, "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do("POST", path, "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUserSubmissions(t *testing.T) {
	s := newServer(t)
	admin := s.signup("boss", model.RoleAdmin)
	survey := s.createSurvey(admin)
	alice := s.signup("alice", model.RoleUser)
	bob := s.signup("bob", model.RoleUser)
	path := fmt.Sprintf("/api/surveys/%d/submit", survey.ID)

	var ids []int64
	for _, name := range []string{"first", "second"} {
		rec := s.do("POST", path, alice, map[string]any{"responses": answers(survey, name)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decode[submitted](t, rec).SubmissionID)
	}

	type listing struct {
		Submissions []model.Submission `json:"submissions"`
	}

	rec := s.do("GET", "/api/my-submissions", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[listing](t, rec).Submissions
	require.Len(t, mine, 2)
	assert.Equal(t, ids[1], mine[0].ID)

	rec = s.do("GET", "/api/my-submissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("GET", "/api/user-submissions/alice@example.com", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[listing](t, rec).Submissions, 2)

	rec = s.do("GET", fmt.Sprintf("/api/surveys/submissions/%d", ids[0]), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do("DELETE", fmt.Sprintf("/api/my-submissions/%d", ids[0]), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("DELETE", fmt.Sprintf("/api/my-submissions/%d", ids[0]), alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do("DELETE", fmt.Sprintf("/api/my-submissions/%d", ids[0]), alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do("GET", "/api/admin/all-submissions", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Submission](t, rec), 1)

	rec = s.do("DELETE", "/api/auth/delete", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do("GET", "/api/admin/all-submissions", admin, nil)
	assert.Empty(t, decode[[]model.Submission](t, rec))
}

func TestLoginFailures(t *testing.T) {
	s := newServer(t)
	s.signup("alice", model.RoleUser)

	rec := s.do("POST", "/api/auth/login", "", map[string]any{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("POST", "/api/auth/login", "", map[string]any{"username": "nobody", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("POST", "/api/auth/register", "", map[string]any{"username": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	s := newServer(t)
	s.signup("alice", model.RoleUser)

	rec := s.do("POST", "/api/auth/login", "", map[string]any{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	refresh := decode[struct {
		RefreshToken string `json:"refresh_token"`
	}](t, rec).RefreshToken

	call := func() int {
		req := httptest.NewRequest("POST", "/api/auth/refresh", nil)
		req.Header.Set("Authorization", "Refresh "+refresh)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusUnauthorized, call())
}

func TestRoleLookup(t *testing.T) {
	s := newServer(t)
	s.signup("boss", model.RoleAdmin)
	s.signup("alice", model.RoleUser)

	rec := s.do("POST", "/api/auth/role", "", map[string]any{"username": "boss", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"role":"admin"}`, rec.Body.String())

	rec = s.do("POST", "/api/auth/role", "", map[string]any{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"role":"user"}`, rec.Body.String())

	rec = s.do("POST", "/api/auth/role", "", map[string]any{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("POST", "/api/auth/role", "", map[string]any{"username": "nobody", "password": "secret123"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutClearsUnparseableCookie(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	s := newServer(t)
	s.signup("alice", model.RoleUser)

	rec := s.do("POST", "/api/auth/login", "", map[string]any{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}](t, rec)

	rec = s.do("POST", "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest("POST", "/api/auth/refresh", nil)
	req.Header.Set("Authorization", "Refresh "+login.RefreshToken)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
