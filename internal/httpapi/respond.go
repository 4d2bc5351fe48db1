package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// errorBody is spec §6's {error, message} envelope for every non-2xx
// response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError renders err as spec §6's error envelope, mapping its
// AppError type to a status code and a caller-safe message via
// internal/errors.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.GetStatusCode(err)
	writeJSON(w, status, errorBody{
		Error:   string(apperrors.GetType(err)),
		Message: apperrors.SafeErrorMessage(err),
	})
}

// logAndWriteError logs the underlying error at the appropriate level
// before returning the redacted envelope, since SafeErrorMessage
// deliberately hides database/network/internal detail from the caller.
func logAndWriteError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	logger.Error("http api request failed",
		logging.NewFields().Component("httpapi").Operation(op).Error(err).ToZapFields()...)
	writeError(w, err)
}
