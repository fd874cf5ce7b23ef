package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const defaultStarredPerPage = 30

type readmeResponse struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Content string `json:"content"`
}

func starredHandler(uc GitHubUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := intParam(r, "page")
		if err != nil {
			handleError(w, r, err)
			return
		}
		perPage, err := intParam(r, "per_page")
		if err != nil {
			handleError(w, r, err)
			return
		}
		if page < 1 {
			page = 1
		}
		if perPage < 1 {
			perPage = defaultStarredPerPage
		}

		result, err := uc.Starred(r.Context(), r.URL.Query().Get("user"), page, perPage)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}

func readmeHandler(uc GitHubUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		repo := chi.URLParam(r, "repo")

		content, err := uc.Readme(r.Context(), owner, repo)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, readmeResponse{Owner: owner, Repo: repo, Content: content})
	}
}
