package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stepwise-learn/stepwise/internal/worksheet"
)

func writeStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, worksheet.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, worksheet.ErrFinalized):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// POST /worksheets
func UploadWorksheetHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ws worksheet.Worksheet
		if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if ws.ID == "" {
			ws.ID = uuid.NewString()
		}
		if strings.TrimSpace(ws.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		if err := store.PutWorksheet(r.Context(), ws); err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": ws.ID})
	}
}

// GET /worksheets/{worksheetID} — student-safe: no answer keys, options
// shuffled where the author asked for it.
func GetWorksheetHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "worksheetID")
		ws, err := store.GetWorksheet(r.Context(), id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(ws)
	}
}

// GET /worksheets/{worksheetID}/full — answer keys included, teacher only.
func GetWorksheetFullHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "worksheetID")
		ws, err := store.GetWorksheetFull(r.Context(), id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(ws)
	}
}
