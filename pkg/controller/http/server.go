package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	router *chi.Mux
}

type Options func(*Server)

func New(uc UseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/repositories", func(r chi.Router) {
			r.Get("/", listDefaultHandler(uc))
			r.Get("/search", searchHandler(uc))
			r.Post("/ai-search", aiSearchHandler(uc))
			r.Get("/total", totalHandler(uc))
		})
		r.Get("/languages", languagesHandler(uc))
		r.Get("/schema", schemaHandler(uc))

		r.Get("/starred", starredHandler(uc))
		r.Get("/readme/{owner}/{repo}", readmeHandler(uc))

		r.Route("/users/{user_id}/categories", func(r chi.Router) {
			r.Get("/", listCategoriesHandler(uc))
			r.Post("/", createCategoryHandler(uc))
			r.Route("/{category_id}", func(r chi.Router) {
				r.Get("/", getCategoryHandler(uc))
				r.Delete("/", deleteCategoryHandler(uc))
				r.Post("/repositories", addRepositoryHandler(uc))
				r.Delete("/repositories/*", removeRepositoryHandler(uc))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "not found"})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
