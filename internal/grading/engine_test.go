package grading_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/grading"
)

func bank() []course.Question {
	return []course.Question{
		{ID: "q1", VideoID: "v1", Options: []string{"a", "b", "c"}, CorrectOptionIndex: 0},
		{ID: "q2", VideoID: "v1", Options: []string{"a", "b", "c"}, CorrectOptionIndex: 1},
		{ID: "q3", VideoID: "v1", Options: []string{"a", "b", "c"}, CorrectOptionIndex: 2},
		{ID: "q4", VideoID: "v1", Options: []string{"yes", "no"}, CorrectOptionIndex: 0},
	}
}

func TestGrade_ThreeOfFourPasses(t *testing.T) {
	res, err := grading.Grade(bank(), grading.Answers{"q1": "a", "q2": "b", "q3": "c", "q4": "no"})
	require.NoError(t, err)

	assert.Equal(t, 75, res.ScorePercent)
	assert.True(t, res.Passed)
	assert.Equal(t, 3, res.Correct)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 4, res.Answered)
	assert.False(t, res.PerQuestion["q4"])
}

func TestGrade_EmptyBank(t *testing.T) {
	_, err := grading.Grade(nil, grading.Answers{"q1": "a"})
	require.ErrorIs(t, err, course.ErrEmptyQuestionBank)
}

func TestGrade_MissingAnswersAreWrong(t *testing.T) {
	res, err := grading.Grade(bank(), grading.Answers{"q1": "a"})
	require.NoError(t, err)

	assert.Equal(t, 25, res.ScorePercent)
	assert.False(t, res.Passed)
	assert.Equal(t, 1, res.Answered)
}

func TestGrade_ComparesOptionTextNotIndex(t *testing.T) {
	qs := []course.Question{
		{ID: "q1", Options: []string{"same", "same", "other"}, CorrectOptionIndex: 0},
	}
	// Picking the second "same" is accepted because only the text is compared.
	res, err := grading.Grade(qs, grading.Answers{"q1": "same"})
	require.NoError(t, err)
	assert.Equal(t, 100, res.ScorePercent)

	// Submitting the index as text is not accepted.
	res, err = grading.Grade(qs, grading.Answers{"q1": "0"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ScorePercent)
}

func TestGrade_OutOfRangeCorrectIndex(t *testing.T) {
	qs := []course.Question{{ID: "q1", Options: []string{"a"}, CorrectOptionIndex: 3}}
	res, err := grading.Grade(qs, grading.Answers{"q1": ""})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Correct)
}

func TestGrade_BlankCorrectOptionNeverMatches(t *testing.T) {
	qs := []course.Question{{ID: "q1", Options: []string{"", "b"}, CorrectOptionIndex: 0}}

	res, err := grading.Grade(qs, grading.Answers{"q1": ""})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, 0, res.ScorePercent)
	assert.False(t, res.PerQuestion["q1"])
}

func TestGrade_Deterministic(t *testing.T) {
	answers := grading.Answers{"q1": "a", "q2": "c", "q3": "c"}
	first, err := grading.Grade(bank(), answers)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := grading.Grade(bank(), answers)
		require.NoError(t, err)
		assert.Equal(t, first.ScorePercent, again.ScorePercent)
	}
}

func TestGrade_PassedMatchesThreshold(t *testing.T) {
	// 10 questions lets every multiple of ten be hit exactly.
	qs := make([]course.Question, 10)
	for i := range qs {
		qs[i] = course.Question{ID: string(rune('a' + i)), Options: []string{"x", "y"}, CorrectOptionIndex: 0}
	}
	for correct := 0; correct <= len(qs); correct++ {
		answers := grading.Answers{}
		for i := 0; i < correct; i++ {
			answers[qs[i].ID] = "x"
		}
		res, err := grading.Grade(qs, answers)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.ScorePercent, 0)
		assert.LessOrEqual(t, res.ScorePercent, 100)
		assert.Equal(t, res.ScorePercent >= 70, res.Passed, "score %d", res.ScorePercent)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct{ part, whole, want int }{
		{0, 0, 0},
		{2, 3, 67},
		{1, 3, 33},
		{1, 8, 13}, // 12.5 rounds up
		{3, 4, 75},
		{5, 5, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, grading.Percent(c.part, c.whole), "%d/%d", c.part, c.whole)
	}
}
