package progress

import (
	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/grading"
)

// CourseProgress counts completed steps: one past the highest passed order,
// capped at the number of videos.
func CourseProgress(videos []course.Video, completions []course.CompletionRecord) course.CourseProgressSnapshot {
	total := len(videos)
	if total == 0 {
		return course.CourseProgressSnapshot{}
	}

	passed := passedSet(completions)
	maxPassed := 0
	for _, v := range videos {
		if passed[v.ID] && v.Order > maxPassed {
			maxPassed = v.Order
		}
	}

	current := min(maxPassed+1, total)
	return course.CourseProgressSnapshot{
		Current: current,
		Total:   total,
		Percent: grading.Percent(current, total),
	}
}

// TestProgress is the last graded score for videoID, or 0 without a record.
func TestProgress(completions []course.CompletionRecord, videoID string) int {
	for _, c := range completions {
		if c.VideoID == videoID {
			return c.ScorePercent
		}
	}
	return 0
}
