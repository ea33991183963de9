package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/courseflow/internal/auth/middleware"
	"github.com/mind-engage/courseflow/internal/learning"
	"github.com/mind-engage/courseflow/internal/rbac"
)

type RouterConfig struct {
	Service     *learning.Service
	Auth        *auth.AuthService
	Log         *zap.Logger
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	// Browsing works without a token.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.OptionalJWTMiddleware(cfg.Auth))

		pr.With(rbac.Require(rbac.PermCourseView)).
			Get("/courses", ListCoursesHandler(cfg.Service, log))
		pr.With(rbac.Require(rbac.PermProgressView)).
			Get("/courses/{courseID}/progress", CourseProgressHandler(cfg.Service, log))
		pr.With(rbac.Require(rbac.PermCourseView)).
			Get("/videos/{videoID}/questions", ListQuestionsHandler(cfg.Service, log))
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(cfg.Auth))

		pr.With(rbac.Require(rbac.PermSubmissionCreate)).
			Post("/videos/{videoID}/submissions", SubmitHandler(cfg.Service, log))
	})

	return r
}
