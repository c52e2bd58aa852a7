// Package api exposes the course, quiz, progress and comprehension services
// over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/p-n-ai/pai-course/internal/auth"
	"github.com/p-n-ai/pai-course/internal/comprehension"
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

// DefaultMaxUploadBytes caps multipart uploads.
const DefaultMaxUploadBytes = 10 << 20

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Deps are the services behind the routes.
type Deps struct {
	Auth          *auth.Service
	Tokens        *auth.Tokens
	Courses       course.Store
	Assembler     *course.Assembler
	Quizzes       *quiz.Generator
	Progress      *progress.Service
	Comprehension *comprehension.Service
	// Checks run on /readyz, keyed by dependency name.
	Checks map[string]Check

	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server holds the HTTP handlers.
type Server struct {
	Deps
}

// New creates a Server.
func New(d Deps) *Server {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	return &Server{Deps: d}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.Tokens), withAIUser)

			r.Get("/auth/me", s.handleMe)

			r.Post("/fullcourse/create", s.handleCreateCourse(course.Full))
			r.Post("/oneshot/create", s.handleCreateCourse(course.OneShot))
			r.Get("/fullcourse", s.handleListCourses(course.Full))
			r.Get("/oneshot", s.handleListCourses(course.OneShot))
			r.Get("/fullcourse/{course_id}", s.handleGetCourse)
			r.Get("/oneshot/{course_id}", s.handleGetCourse)

			r.Route("/quiz", func(r chi.Router) {
				r.Get("/chapter/{topic_id}", s.handleChapterQuiz)
				r.Post("/submit", s.handleSubmit)
				r.Get("/full-test/{topic_id}", s.handleFullTest)
				r.Get("/notebook/{topic_id}", s.handleNotebook)
				r.Get("/progress/{course_id}", s.handleProgress)
				r.Get("/progress/{course_id}/export", s.handleExport)
			})

			r.Post("/doc-comprehension/upload", s.handleDocUpload)
			r.Post("/doc-comprehension/ask", s.handleAsk(comprehension.Document))
			r.Post("/video-comprehension/extract", s.handleVideoExtract)
			r.Post("/video-comprehension/ask", s.handleAsk(comprehension.Video))
			r.Get("/comprehension/ws", s.handleAskSocket)
		})
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range s.Checks {
		if err := check(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"failed": name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
