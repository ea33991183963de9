package course

import "errors"

var (
	// ErrEmptyQuestionBank means a video has no questions, so nothing can be graded.
	ErrEmptyQuestionBank = errors.New("no questions available for this video")
	// ErrRemoteRead wraps failures fetching courses, videos, questions or completions.
	ErrRemoteRead = errors.New("remote read failed")
	// ErrRemoteWrite wraps a failed completion upsert. Safe to retry.
	ErrRemoteWrite = errors.New("remote write failed")
	// ErrInvalidCourseState means the course is missing or has no videos.
	ErrInvalidCourseState = errors.New("invalid course state")

	ErrCourseNotFound = errors.New("course not found")
)
