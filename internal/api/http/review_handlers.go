package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stepwise-learn/stepwise/internal/grading"
	"github.com/stepwise-learn/stepwise/internal/worksheet"
)

// POST /attempts/{attemptID}/questions/{questionID}/review
// Attaches an already-materialized external review and re-scores.
func AttachReviewHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		questionID := chi.URLParam(r, "questionID")
		var review grading.AIReview
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.AttachReview(r.Context(), attemptID, questionID, review)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// POST /attempts/{attemptID}/questions/{questionID}/grade
// Runs the configured external grader over the student's typed work for
// that question, attaches the review, and re-scores. A grader failure is a
// 502, never a zero score.
func GradeWithAIHandler(store worksheet.Store, grader grading.RubricGrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if grader == nil {
			http.Error(w, "ai grading not configured", http.StatusServiceUnavailable)
			return
		}
		attemptID := chi.URLParam(r, "attemptID")
		questionID := chi.URLParam(r, "questionID")

		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		ws, err := store.GetWorksheetFull(r.Context(), a.WorksheetID)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		var q *worksheet.Question
		for i := range ws.Questions {
			if ws.Questions[i].ID == questionID {
				q = &ws.Questions[i]
				break
			}
		}
		if q == nil {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		if q.GradingMode != grading.GradeByAI {
			http.Error(w, "question is not ai-graded", http.StatusBadRequest)
			return
		}

		review, err := grader.GradeSubmission(r.Context(), buildSubmission(*q, a), q.Rubric)
		if err != nil {
			http.Error(w, "grading service: "+err.Error(), http.StatusBadGateway)
			return
		}
		a, err = store.AttachReview(r.Context(), attemptID, questionID, review)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// buildSubmission collects the student's answers for every sub-question of
// the question into one response blob for the external grader.
func buildSubmission(q worksheet.Question, a worksheet.Attempt) grading.Submission {
	body, _ := json.MarshalIndent(answersFor(q, a), "", "  ")
	return grading.Submission{
		QuestionText: q.PromptHTML,
		Response:     string(body),
	}
}

func answersFor(q worksheet.Question, a worksheet.Attempt) map[string]interface{} {
	out := map[string]interface{}{}
	for _, spec := range q.SubQuestions() {
		if ans, ok := a.Answers[spec.ID]; ok {
			out[spec.ID] = ans
		}
	}
	return out
}
