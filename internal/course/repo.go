package course

import "context"

// Remote is the content and persistence collaborator the engine reads from
// and writes completions to.
type Remote interface {
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, courseID string) (Course, error)
	ListVideos(ctx context.Context, courseID string) ([]Video, error)
	ListQuestions(ctx context.Context, videoID string) ([]Question, error)
	// ListCompletions returns the user's records restricted to videoIDs. It may
	// contain several rows per video when the backing store keeps history.
	ListCompletions(ctx context.Context, userID string, videoIDs []string) ([]CompletionRecord, error)
	// UpsertCompletion overwrites on conflict of (UserID, VideoID).
	UpsertCompletion(ctx context.Context, rec CompletionRecord) error
}

// Catalog is implemented by stores that accept authored content, used when
// importing a course bundle.
type Catalog interface {
	PutCourse(ctx context.Context, c Course) error
	PutVideo(ctx context.Context, v Video) error
	PutQuestion(ctx context.Context, q Question) error
}
