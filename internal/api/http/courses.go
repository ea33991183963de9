package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auth "github.com/mind-engage/courseflow/internal/auth/middleware"
	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/learning"
)

// GET /courses
func ListCoursesHandler(svc *learning.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := svc.ListCourses(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		if cs == nil {
			cs = []course.Course{}
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

type progressResponse struct {
	learning.View
	// Degraded is set when completions could not be read and the view fell
	// back to the first video.
	Degraded bool `json:"degraded,omitempty"`
}

// GET /courses/{courseID}/progress
//
// Anonymous callers get the course with the first video unlocked.
func CourseProgressHandler(svc *learning.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		ss := svc.NewSession(auth.SubjectFromContext(r.Context()))

		view, err := ss.SelectCourse(r.Context(), courseID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, progressResponse{View: view})
		case errors.Is(err, course.ErrRemoteRead) && view.CurrentVideoID != "":
			log.Warn("serving fallback progress", zap.String("course_id", courseID), zap.Error(err))
			writeJSON(w, http.StatusOK, progressResponse{View: view, Degraded: true})
		default:
			writeError(w, log, err)
		}
	}
}
