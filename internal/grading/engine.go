package grading

import (
	"github.com/mind-engage/courseflow/internal/course"
)

// Answers maps question ID to the submitted option text.
type Answers map[string]string

// Result is the outcome of grading one quiz submission.
type Result struct {
	ScorePercent int             // round(100 * Correct / Total)
	Passed       bool            // ScorePercent >= course.PassThreshold
	Correct      int             // questions answered with the canonical option
	Total        int             // questions in the bank
	Answered     int             // questions with any submitted value
	PerQuestion  map[string]bool // questionID -> correct
}

// Grade scores answers against the question bank. A submission is correct
// when its text equals the option at CorrectOptionIndex; the index itself is
// never compared, so two options with identical text are both accepted.
// Unanswered questions count as wrong.
func Grade(questions []course.Question, answers Answers) (Result, error) {
	if len(questions) == 0 {
		return Result{}, course.ErrEmptyQuestionBank
	}

	res := Result{
		Total:       len(questions),
		PerQuestion: make(map[string]bool, len(questions)),
	}
	for _, q := range questions {
		submitted, answered := answers[q.ID]
		if answered {
			res.Answered++
		}
		want, ok := q.CorrectOption()
		correct := answered && ok && submitted == want
		if correct {
			res.Correct++
		}
		res.PerQuestion[q.ID] = correct
	}

	res.ScorePercent = Percent(res.Correct, res.Total)
	res.Passed = course.IsPassing(res.ScorePercent)
	return res, nil
}

// Percent returns round(100 * part / whole) with halves rounded up, and 0
// when whole is not positive.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}
