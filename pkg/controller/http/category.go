package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/usecase"
)

func pathUser(r *http.Request) types.UserID {
	return types.UserID(chi.URLParam(r, "user_id"))
}

func pathCategory(r *http.Request) types.CategoryID {
	return types.CategoryID(chi.URLParam(r, "category_id"))
}

func listCategoriesHandler(uc CategoryUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := uc.ListCategories(r.Context(), pathUser(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string][]*category.Category{"categories": categories})
	}
}

func createCategoryHandler(uc CategoryUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input usecase.CategoryInput
		if err := decodeJSON(r, &input); err != nil {
			handleError(w, r, err)
			return
		}

		c, err := uc.CreateCategory(r.Context(), pathUser(r), input)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, c)
	}
}

func getCategoryHandler(uc CategoryUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := uc.GetCategory(r.Context(), pathUser(r), pathCategory(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, c)
	}
}

func deleteCategoryHandler(uc CategoryUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.DeleteCategory(r.Context(), pathUser(r), pathCategory(r)); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addRepositoryHandler(uc CategoryUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref category.RepoRef
		if err := decodeJSON(r, &ref); err != nil {
			handleError(w, r, err)
			return
		}

		c, err := uc.AddRepository(r.Context(), pathUser(r), pathCategory(r), ref)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, c)
	}
}

// removeRepositoryHandler takes the repository full name from the trailing path, so
// owner/name needs no escaping.
func removeRepositoryHandler(uc CategoryUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fullName := chi.URLParam(r, "*")

		c, err := uc.RemoveRepository(r.Context(), pathUser(r), pathCategory(r), fullName)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, c)
	}
}
