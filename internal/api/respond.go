package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
)

type errorBody struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps a domain error to the wire shape. Errors outside the
// taxonomy become an opaque 500; their detail stays in the logs.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	body := errorBody{ErrorCode: "INTERNAL_001", ErrorMessage: "internal error"}
	if e := apperr.From(err); e != nil {
		body.ErrorCode = e.Code
		body.ErrorMessage = e.Message
	}

	status := apperr.StatusOf(err)
	log.Error("request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err)
	writeJSON(w, status, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, log, apperr.ErrBadRequest.WithCause(err))
		return false
	}
	return true
}
