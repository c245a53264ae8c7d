package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guesthouse/roomsync/internal/auth"
	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/models/dtos/responses"
	"guesthouse/roomsync/internal/services"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func respondWithSuccess[T any](w http.ResponseWriter, statusCode int, data *T) {
	resp := responses.APIResponse[T]{
		Status:    "success",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	resp := responses.APIResponse[any]{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// respondWithServiceError maps service sentinels to HTTP statuses. Anything
// unrecognised is logged and reported as a 500 without internal detail.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, services.ErrInvalidWindow),
		errors.Is(err, services.ErrInvalidTrigger):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRoomTypeNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrChannelNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEntryNotPending),
		errors.Is(err, services.ErrEntryNotDue):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		logging.Error("Request failed",
			"request_id", auth.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
// An empty body is allowed when optional is set.
func decodeJSON(r *http.Request, dst interface{}, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func parseDayParam(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", errBadRequest, name)
	}
	d, err := inventory.ParseDay(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, name)
	}
	return d, nil
}

func parseOptionalDay(name string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	d, err := parseDayParam(name, *value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func callerID(r *http.Request) string {
	if claims := auth.GetClaims(r.Context()); claims != nil {
		return claims.CallerID()
	}
	return ""
}
