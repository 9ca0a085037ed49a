package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/stepwise-learn/stepwise/internal/api/http"
	auth "github.com/stepwise-learn/stepwise/internal/auth/middleware"
	"github.com/stepwise-learn/stepwise/internal/grading"
	"github.com/stepwise-learn/stepwise/internal/rbac"
	"github.com/stepwise-learn/stepwise/internal/worksheet"
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.AuthService) {
	t.Helper()
	store := worksheet.NewInMemoryStore(grading.NewEvaluator())
	authSvc := auth.NewAuthService("test-secret")

	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.With(rbac.Require("worksheet:create")).
			Post("/worksheets", api.UploadWorksheetHandler(store))
		pr.With(rbac.Require("worksheet:view")).
			Get("/worksheets/{worksheetID}", api.GetWorksheetHandler(store))
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(store))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", api.SaveAnswersHandler(store))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(store))
		pr.With(rbac.RequireOwnerOr("attempt:view-all", api.AttemptOwner(store))).
			Get("/attempts/{attemptID}/score", api.GetAttemptScoreHandler(store))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, authSvc
}

func do(t *testing.T, method, url, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func TestAttemptFlow(t *testing.T) {
	srv, authSvc := newTestServer(t)
	teacherTok, _ := authSvc.IssueJWT("teacher-1", "teacher")
	studentTok, _ := authSvc.IssueJWT("student-1", "student")

	ws := worksheet.Worksheet{
		ID:    "ws1",
		Title: "Units drill",
		Questions: []worksheet.Question{{
			ID:           "q1",
			GradingMode:  grading.GradeBySystem,
			CurrencyType: "coin",
			Steps: []worksheet.Step{{
				ID: "s1",
				SubQuestions: []grading.SubQuestionSpec{{
					ID:         "sq1",
					AnswerType: grading.AnswerNumerical,
					Marks:      4,
					Numerical:  &grading.NumericalAnswer{CorrectValue: 100, ToleranceValue: 5, BaseUnit: "N"},
				}},
			}},
		}},
	}

	if resp := do(t, "POST", srv.URL+"/worksheets", teacherTok, ws, nil); resp.StatusCode != 200 {
		t.Fatalf("upload worksheet: status %d", resp.StatusCode)
	}

	// Students cannot author worksheets.
	if resp := do(t, "POST", srv.URL+"/worksheets", studentTok, ws, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student upload: status %d, want 403", resp.StatusCode)
	}
	// No token at all is unauthorized.
	if resp := do(t, "GET", srv.URL+"/worksheets/ws1", "", nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous get: status %d, want 401", resp.StatusCode)
	}

	// The student view must not leak the numeric answer.
	var view worksheet.Worksheet
	if resp := do(t, "GET", srv.URL+"/worksheets/ws1", studentTok, nil, &view); resp.StatusCode != 200 {
		t.Fatalf("get worksheet: status %d", resp.StatusCode)
	}
	if got := view.Questions[0].Steps[0].SubQuestions[0].Numerical.CorrectValue; got != 0 {
		t.Errorf("correct value leaked to student: %v", got)
	}

	var attempt worksheet.Attempt
	if resp := do(t, "POST", srv.URL+"/attempts", studentTok,
		map[string]string{"worksheet_id": "ws1"}, &attempt); resp.StatusCode != 200 {
		t.Fatalf("create attempt: status %d", resp.StatusCode)
	}
	if attempt.UserID != "student-1" {
		t.Errorf("attempt user = %q, want token subject", attempt.UserID)
	}

	if resp := do(t, "POST", srv.URL+"/attempts/"+attempt.ID+"/answers", studentTok,
		map[string]interface{}{"sq1": "0.1 kN"}, nil); resp.StatusCode != 200 {
		t.Fatalf("save answers: status %d", resp.StatusCode)
	}
	var submitted worksheet.Attempt
	if resp := do(t, "POST", srv.URL+"/attempts/"+attempt.ID+"/submit", studentTok, nil, &submitted); resp.StatusCode != 200 {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}
	if submitted.TotalMarks != 4 || submitted.MaxMarks != 4 {
		t.Errorf("marks = %v/%v, want 4/4", submitted.TotalMarks, submitted.MaxMarks)
	}

	var score grading.AttemptScore
	if resp := do(t, "GET", srv.URL+"/attempts/"+attempt.ID+"/score", studentTok, nil, &score); resp.StatusCode != 200 {
		t.Fatalf("score: status %d", resp.StatusCode)
	}
	if score.TotalMarks != 4 || score.Rewards["coin"] != 4 {
		t.Errorf("score = %+v, want 4 marks and 4 coin", score)
	}

	// Another student cannot read someone else's score.
	otherTok, _ := authSvc.IssueJWT("student-2", "student")
	if resp := do(t, "GET", srv.URL+"/attempts/"+attempt.ID+"/score", otherTok, nil, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("other student score: status %d, want 403", resp.StatusCode)
	}
}
