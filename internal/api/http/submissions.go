package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auth "github.com/mind-engage/courseflow/internal/auth/middleware"
	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/grading"
	"github.com/mind-engage/courseflow/internal/learning"
)

type submitRequest struct {
	CourseID string            `json:"course_id" validate:"required"`
	Answers  map[string]string `json:"answers" validate:"dive,keys,required,endkeys"`
}

type submitResponse struct {
	Success  bool           `json:"success"`
	Score    int            `json:"score"`
	Error    string         `json:"error,omitempty"`
	Progress *learning.View `json:"progress,omitempty"`
}

// POST /videos/{videoID}/submissions  {"course_id": "...", "answers": {"<question id>": "<option text>"}}
//
// Unanswered questions, including an empty answers object, are graded wrong.
//
// The response carries the outcome and the progression re-read from the
// remote store after the write.
func SubmitHandler(svc *learning.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "missing subject", http.StatusUnauthorized)
			return
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, log, err)
			return
		}

		videoID := chi.URLParam(r, "videoID")
		ss := svc.NewSession(userID)
		// Only a failed completions read may proceed; without videos the
		// submission cannot be checked against the course.
		if view, err := ss.SelectCourse(r.Context(), req.CourseID); err != nil &&
			!(errors.Is(err, course.ErrRemoteRead) && len(view.Videos) > 0) {
			writeError(w, log, err)
			return
		}

		out, view, err := ss.Submit(r.Context(), videoID, grading.Answers(req.Answers))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, submitResponse{Success: out.Success, Score: out.Score, Progress: &view})
		case errors.Is(err, course.ErrRemoteRead) && out.Record.VideoID != "":
			// Graded and stored; only the re-read failed.
			writeJSON(w, http.StatusOK, submitResponse{Success: out.Success, Score: out.Score, Error: err.Error()})
		default:
			status := statusFor(err)
			if status >= 500 {
				log.Error("submission failed", zap.String("video_id", videoID), zap.Error(err))
			}
			writeJSON(w, status, submitResponse{Success: false, Score: out.Score, Error: err.Error()})
		}
	}
}
