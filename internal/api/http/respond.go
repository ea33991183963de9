package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mind-engage/courseflow/internal/course"
)

var validate = validator.New()

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, course.ErrEmptyQuestionBank):
		return http.StatusUnprocessableEntity
	case errors.Is(err, course.ErrInvalidCourseState), errors.Is(err, course.ErrCourseNotFound):
		return http.StatusNotFound
	case errors.Is(err, course.ErrRemoteRead), errors.Is(err, course.ErrRemoteWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := statusFor(err)
	if status >= 500 {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
