package course

import "time"

// PassThreshold is the minimum score percent that unlocks the next video.
const PassThreshold = 70

type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Order       int    `json:"order"`
	CoverImage  string `json:"cover_image,omitempty"`
	Description string `json:"description,omitempty"`
}

type Video struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	Order     int    `json:"order"` // unique within a course, assigned at authoring time
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
}

type Question struct {
	ID                 string   `json:"id"`
	VideoID            string   `json:"video_id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
}

// CorrectOption returns the canonical correct option text, or false when the
// index does not point into Options or the option is blank. A blank correct
// option can never be matched.
func (q Question) CorrectOption() (string, bool) {
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return "", false
	}
	opt := q.Options[q.CorrectOptionIndex]
	return opt, opt != ""
}

// CompletionRecord is the outcome of the latest graded quiz attempt for a
// user/video pair. There is at most one per (UserID, VideoID).
type CompletionRecord struct {
	UserID       string    `json:"user_id"`
	VideoID      string    `json:"video_id"`
	ScorePercent int       `json:"score_percent"`
	Passed       bool      `json:"passed"`
	CompletedAt  time.Time `json:"completed_at"`
}

func NewCompletionRecord(userID, videoID string, scorePercent int, at time.Time) CompletionRecord {
	return CompletionRecord{
		UserID:       userID,
		VideoID:      videoID,
		ScorePercent: scorePercent,
		Passed:       IsPassing(scorePercent),
		CompletedAt:  at,
	}
}

func IsPassing(scorePercent int) bool { return scorePercent >= PassThreshold }

// CourseProgressSnapshot is derived per render and never stored.
// Current counts completed steps; it is not the index of the unlocked video.
type CourseProgressSnapshot struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}
