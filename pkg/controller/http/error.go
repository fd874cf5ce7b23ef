package http

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())
	status := http.StatusInternalServerError

	switch {
	case goerr.HasTag(err, errs.TagNotFound):
		logger.Warn("Not Found", logging.ErrAttr(err))
		status = http.StatusNotFound

	case goerr.HasTag(err, errs.TagValidationFailure), goerr.HasTag(err, errs.TagInvalidRequest):
		logger.Warn("Bad Request", logging.ErrAttr(err))
		status = http.StatusBadRequest

	case goerr.HasTag(err, errs.TagForbidden):
		logger.Warn("Forbidden", logging.ErrAttr(err))
		status = http.StatusForbidden

	case goerr.HasTag(err, errs.TagUnavailable):
		logger.Warn("Service Unavailable", logging.ErrAttr(err))
		status = http.StatusServiceUnavailable

	case goerr.HasTag(err, errs.TagTimeout):
		logger.Error("Gateway Timeout", logging.ErrAttr(err))
		status = http.StatusGatewayTimeout

	case goerr.HasTag(err, errs.TagExecutionFailure),
		goerr.HasTag(err, errs.TagExternal),
		goerr.HasTag(err, errs.TagGitHubError):
		errs.Handle(r.Context(), err)
		status = http.StatusBadGateway

	default:
		errs.Handle(r.Context(), err)
	}

	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigStd.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Warn("failed to write response", logging.ErrAttr(err))
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode request body", goerr.T(errs.TagInvalidRequest))
	}
	return nil
}
