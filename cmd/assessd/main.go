package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/classforge/assessment-core/internal/api/http"
	"github.com/classforge/assessment-core/internal/auth"
	"github.com/classforge/assessment-core/internal/config"
	"github.com/classforge/assessment-core/internal/db"
	"github.com/classforge/assessment-core/internal/delivery"
	"github.com/classforge/assessment-core/internal/grading"
	"github.com/classforge/assessment-core/internal/rbac"
	"github.com/classforge/assessment-core/internal/store"
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
	var st store.Store = store.NewSQLStore(dbh)

	// --- Engines ---
	deliveryEng := delivery.NewEngine(st, nil)
	grader := grading.NewEngine()

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)
	creds := auth.Credentials{
		cfg.AdminUser: {PassHash: cfg.AdminPassHash, Role: "admin"},
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, creds))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Authoring
		pr.With(rbac.Require("test:create")).
			Post("/tests", api.CreateTestHandler(st))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}", api.GetTestHandler(st))
		pr.With(rbac.Require("test:publish")).
			Post("/tests/{testID}/validate", api.ValidateTestHandler(st))
		pr.With(rbac.Require("test:publish")).
			Post("/tests/{testID}/publish", api.PublishTestHandler(st))
		pr.With(rbac.Require("test:archive")).
			Post("/tests/{testID}/archive", api.ArchiveTestHandler(st))
		pr.With(rbac.Require("test:create")).
			Post("/tests/{testID}/revisions", api.NewRevisionHandler(st))

		// Learner flow
		pr.With(rbac.Require("attempt:create")).
			Post("/tests/{testID}/attempts", api.CreateAttemptHandler(st, deliveryEng))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(st, deliveryEng))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/responses", api.SaveResponsesHandler(st, deliveryEng))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(st, deliveryEng, grader))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(st))

		// Results
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/attempts/{attemptID}/result", api.GetResultHandler(st))
		pr.With(rbac.Require("attempt:grade")).
			Post("/attempts/{attemptID}/grades", api.ApplyGradesHandler(st))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("assessd listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
