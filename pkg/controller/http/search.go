package http

import (
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
)

// intParam reads an optional integer query parameter. A missing parameter yields 0.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, goerr.Wrap(err, "query parameter must be an integer",
			goerr.V("param", name), goerr.V("value", raw), goerr.T(errs.TagValidationFailure))
	}
	return v, nil
}

func windowParams(r *http.Request) (search.Window, error) {
	offset, err := intParam(r, "offset")
	if err != nil {
		return search.Window{}, err
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		return search.Window{}, err
	}
	return search.Window{Offset: offset, Limit: limit}, nil
}

func searchRequest(r *http.Request) (search.Request, error) {
	w, err := windowParams(r)
	if err != nil {
		return search.Request{}, err
	}
	q := r.URL.Query()
	return search.Request{
		Term:     q.Get("search"),
		Language: q.Get("language"),
		Window:   w,
	}, nil
}

func listDefaultHandler(uc SearchUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, err := windowParams(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		page, err := uc.ListDefault(r.Context(), window)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, page)
	}
}

func searchHandler(uc SearchUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := searchRequest(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		page, err := uc.Search(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, page)
	}
}

func aiSearchHandler(uc SearchUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req search.AIRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}

		page, err := uc.AISearch(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, page)
	}
}

func totalHandler(uc SearchUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := searchRequest(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		total, err := uc.Total(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]int64{"total": total})
	}
}

func languagesHandler(uc SearchUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string][]string{"languages": uc.Languages()})
	}
}

func schemaHandler(uc SearchUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schema, err := uc.Schema(r.Context())
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, schema)
	}
}
