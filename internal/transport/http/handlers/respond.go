package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/stoiyeet/TravelShare/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

func writeInternal(w http.ResponseWriter, op string, err error) {
	slog.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeBadGateway(w http.ResponseWriter, op string, err error) {
	slog.Warn("upstream failed", "op", op, "error", err)
	writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "An upstream service failed, try again later")
}
