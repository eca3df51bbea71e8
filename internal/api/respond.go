package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

const maxBodyBytes = 1 << 20

// errorBody is the envelope every failed request returns.
type errorBody struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", slog.Any("error", err))
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeFailure(w http.ResponseWriter, status int, msg string, fields map[string][]string) {
	writeJSON(w, status, errorBody{Status: "error", Message: msg, Errors: fields})
}

// writeError maps service errors onto the envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFailure(w, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, domain.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Not found", nil)
	default:
		slog.Error("Request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
		writeFailure(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// decodeJSON reads a JSON body into dst, reporting problems as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domain.Invalid("body", "request body is required")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return domain.Invalid(typeErr.Field, fmt.Sprintf("must be of %s type", jsonKind(typeErr.Type.Kind().String())))
		case errors.As(err, &maxErr):
			return domain.Invalid("body", "request body too large")
		case errors.Is(err, money.ErrInvalidAmount):
			return domain.Invalid("body", err.Error())
		default:
			return domain.Invalid("body", "malformed JSON")
		}
	}
	return nil
}

func jsonKind(goKind string) string {
	switch {
	case strings.HasPrefix(goKind, "int"), strings.HasPrefix(goKind, "float"):
		return "number"
	case goKind == "slice":
		return "list"
	case goKind == "struct", goKind == "map":
		return "dict"
	}
	return goKind
}

func urlParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func idParam(r *http.Request) (int64, error) {
	raw := urlParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

func intQuery(r *http.Request, key string, verr *domain.ValidationError) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(key, "must be an integer")
		return 0
	}
	return n
}
