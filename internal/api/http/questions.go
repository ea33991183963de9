package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/courseflow/internal/learning"
)

// publicQuestion is a question as shown to learners: no answer key.
type publicQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// GET /videos/{videoID}/questions
func ListQuestionsHandler(svc *learning.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.Questions(r.Context(), chi.URLParam(r, "videoID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		out := make([]publicQuestion, 0, len(qs))
		for _, q := range qs {
			out = append(out, publicQuestion{ID: q.ID, Text: q.Text, Options: q.Options})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
