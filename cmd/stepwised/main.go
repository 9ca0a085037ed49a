package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/stepwise-learn/stepwise/internal/api/http"
	auth "github.com/stepwise-learn/stepwise/internal/auth/middleware"
	"github.com/stepwise-learn/stepwise/internal/config"
	"github.com/stepwise-learn/stepwise/internal/db"
	"github.com/stepwise-learn/stepwise/internal/grading"
	"github.com/stepwise-learn/stepwise/internal/grading/gemini"
	"github.com/stepwise-learn/stepwise/internal/rbac"
	"github.com/stepwise-learn/stepwise/internal/worksheet"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Grading engine ---
	var evalOpts []grading.EvalOption
	if cfg.LegacyTextMatch {
		evalOpts = append(evalOpts, grading.WithLegacyAnyTextMatch(true))
	}
	eval := grading.NewEvaluator(evalOpts...)
	store := worksheet.NewSQLStore(dbh, cfg.DBDriver, eval)

	// --- External AI grader (optional) ---
	var grader grading.RubricGrader
	if cfg.GeminiAPIKey != "" {
		g, err := gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
		if err != nil {
			log.Fatalf("gemini grader: %v", err)
		}
		grader = g
	} else {
		log.Printf("GEMINI_API_KEY not set; ai grading endpoint disabled")
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, cfg.AdminUser, cfg.AdminPassHash))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("worksheet:create")).
			Post("/worksheets", api.UploadWorksheetHandler(store))
		pr.With(rbac.Require("worksheet:view")).
			Get("/worksheets/{worksheetID}", api.GetWorksheetHandler(store))
		pr.With(rbac.Require("worksheet:view-full")).
			Get("/worksheets/{worksheetID}/full", api.GetWorksheetFullHandler(store))

		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(store))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", api.SaveAnswersHandler(store))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(store))
		pr.With(rbac.RequireOwnerOr("attempt:view-all", api.AttemptOwner(store))).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store))
		pr.With(rbac.RequireOwnerOr("attempt:view-all", api.AttemptOwner(store))).
			Get("/attempts/{attemptID}/score", api.GetAttemptScoreHandler(store))
		pr.With(rbac.Require("attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(store))

		pr.With(rbac.Require("attempt:review")).
			Post("/attempts/{attemptID}/questions/{questionID}/review", api.AttachReviewHandler(store))
		pr.With(rbac.Require("attempt:review")).
			Post("/attempts/{attemptID}/questions/{questionID}/grade", api.GradeWithAIHandler(store, grader))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("stepwised listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
