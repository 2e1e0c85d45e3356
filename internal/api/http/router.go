// Package http serves the learner question endpoint and the operator API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type RouterConfig struct {
	Deps        Deps
	Auth        *auth.AuthService
	Operator    auth.Operator
	CORSOrigins []string
	// Ready reports whether backing services answer; nil means always ready.
	Ready func(r *http.Request) error
}

func NewRouter(rc RouterConfig) chi.Router {
	d := rc.Deps
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, AccessLog(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rc.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// learner surface
	r.Get("/api/question", GetQuestionHandler(d))
	r.Put("/api/question", MoveHandler(d))
	r.Post("/api/question", SubmitHandler(d))

	r.Post("/auth/login", auth.LoginHandler(rc.Auth, rc.Operator, d.Log))

	// operator surface (JWT -> role in context -> RBAC)
	r.Route("/api/admin", func(ar chi.Router) {
		ar.Use(auth.JWTMiddleware(rc.Auth))

		ar.With(rbac.Require(rbac.PermQuestionAuthor)).
			Post("/questions", UpsertQuestionHandler(d))
		ar.With(rbac.Require(rbac.PermQuestionList)).
			Get("/questions", ListQuestionsHandler(d))
		ar.With(rbac.Require(rbac.PermQuestionList)).
			Get("/questions/{id}/integrity", IntegrityHandler(d))
		ar.With(rbac.Require(rbac.PermSubmissionView)).
			Get("/submissions", ListSubmissionsHandler(d))
		ar.With(rbac.Require(rbac.PermSubmissionView)).
			Get("/events", EventsHandler(d))
		ar.With(rbac.Require(rbac.PermArchiveRead)).
			Get("/archive/*", ArchiveHandler(d))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if rc.Ready != nil {
			if err := rc.Ready(r); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	return r
}
