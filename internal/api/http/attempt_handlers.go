package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/stepwise-learn/stepwise/internal/auth/middleware"
	"github.com/stepwise-learn/stepwise/internal/worksheet"
)

// POST /attempts  { "worksheet_id": "..." }
// The user comes from the token, not the body.
func CreateAttemptHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			WorksheetID string `json:"worksheet_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		if req.WorksheetID == "" || userID == "" {
			http.Error(w, "worksheet_id required", http.StatusBadRequest)
			return
		}
		a, err := store.NewAttempt(r.Context(), req.WorksheetID, userID)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// POST /attempts/{attemptID}/answers  { subQuestionID: answer, ... }
func SaveAnswersHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var answers map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.SaveAnswers(r.Context(), id, answers)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.Submit(r.Context(), id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /attempts/{attemptID}/score — recomputed from stored answers and
// reviews on every call; nothing derived is trusted from the row.
func GetAttemptScoreHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		score, err := store.Score(r.Context(), id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(score)
	}
}

// GET /attempts?worksheet_id=&user_id=&status=
func ListAttemptsHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := worksheet.ListOpts{
			WorksheetID: q.Get("worksheet_id"),
			UserID:      q.Get("user_id"),
			Status:      q.Get("status"),
		}
		items, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(items)
	}
}

// AttemptOwner reports whether the requester owns the attempt in the URL;
// used with rbac.RequireOwnerOr so students only see their own attempts.
func AttemptOwner(store worksheet.Store) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		id := chi.URLParam(r, "attemptID")
		sub := authmw.SubjectFromContext(r.Context())
		if id == "" || sub == "" {
			return false
		}
		a, err := store.GetAttempt(r.Context(), id)
		return err == nil && a.UserID == sub
	}
}
