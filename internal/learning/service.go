package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/grading"
	"github.com/mind-engage/courseflow/internal/progress"
)

const defaultRemoteTimeout = 10 * time.Second

type Option func(*Service)

// WithRemoteTimeout bounds every single call to the remote store.
func WithRemoteTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }
func WithClock(now func() time.Time) Option    { return func(s *Service) { s.now = now } }

// Service runs the stateless half of the engine: loading a course with the
// user's completions and the submission pipeline. Session adds the cached,
// guarded state on top of it.
type Service struct {
	remote  course.Remote
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewService(remote course.Remote, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{remote: remote, log: log, timeout: defaultRemoteTimeout, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CourseState is what one course load returns.
type CourseState struct {
	Course      course.Course
	Videos      []course.Video // sorted by Order
	Completions []course.CompletionRecord
}

// Outcome is reported to the caller of Submit.
type Outcome struct {
	Success bool                    `json:"success"` // score >= pass threshold
	Score   int                     `json:"score"`
	Result  grading.Result          `json:"-"`
	Record  course.CompletionRecord `json:"-"`
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) ListCourses(ctx context.Context) ([]course.Course, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cs, err := s.remote.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list courses: %w", course.ErrRemoteRead, err)
	}
	return cs, nil
}

// LoadCourse fetches the course, its videos and, when userID is set, the
// user's completions for those videos. When only the completions fail, the
// returned state still carries the videos so callers can fall back.
func (s *Service) LoadCourse(ctx context.Context, userID, courseID string) (CourseState, error) {
	var st CourseState

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cancel := s.withTimeout(gctx)
		defer cancel()
		c, err := s.remote.GetCourse(cctx, courseID)
		if err != nil {
			if errors.Is(err, course.ErrCourseNotFound) {
				return fmt.Errorf("%w: %w", course.ErrInvalidCourseState, err)
			}
			return fmt.Errorf("%w: get course: %w", course.ErrRemoteRead, err)
		}
		st.Course = c
		return nil
	})
	g.Go(func() error {
		cctx, cancel := s.withTimeout(gctx)
		defer cancel()
		vs, err := s.remote.ListVideos(cctx, courseID)
		if err != nil {
			return fmt.Errorf("%w: list videos: %w", course.ErrRemoteRead, err)
		}
		st.Videos = progress.SortByOrder(vs)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("load course failed", zap.String("course_id", courseID), zap.Error(err))
		return CourseState{}, err
	}

	if len(st.Videos) == 0 {
		return st, fmt.Errorf("%w: course %s has no videos", course.ErrInvalidCourseState, courseID)
	}
	if userID == "" {
		return st, nil
	}

	recs, err := s.Completions(ctx, userID, st.Videos)
	if err != nil {
		return st, err
	}
	st.Completions = recs
	return st, nil
}

// Completions fetches the user's records for the given video set.
func (s *Service) Completions(ctx context.Context, userID string, videos []course.Video) ([]course.CompletionRecord, error) {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	recs, err := s.remote.ListCompletions(ctx, userID, ids)
	if err != nil {
		s.log.Warn("list completions failed",
			zap.String("user_id", userID), zap.Int("videos", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("%w: list completions: %w", course.ErrRemoteRead, err)
	}
	return recs, nil
}

// Questions returns the question bank of a video.
func (s *Service) Questions(ctx context.Context, videoID string) ([]course.Question, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	qs, err := s.remote.ListQuestions(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %w", course.ErrRemoteRead, err)
	}
	return qs, nil
}

// Submit grades answers for videoID and upserts the user's completion. The
// remote write must succeed before anything local may change, so Submit
// itself never touches a cache.
func (s *Service) Submit(ctx context.Context, userID, videoID string, answers grading.Answers) (Outcome, error) {
	log := s.log.With(zap.String("user_id", userID), zap.String("video_id", videoID))

	qs, err := s.Questions(ctx, videoID)
	if err != nil {
		log.Warn("load questions failed", zap.Error(err))
		return Outcome{}, err
	}

	res, err := grading.Grade(qs, answers)
	if err != nil {
		log.Info("submission rejected", zap.Error(err))
		return Outcome{}, err
	}

	rec := course.NewCompletionRecord(userID, videoID, res.ScorePercent, s.now().UTC())
	out := Outcome{Score: res.ScorePercent, Result: res, Record: rec}

	wctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.remote.UpsertCompletion(wctx, rec); err != nil {
		log.Error("upsert completion failed", zap.Int("score", res.ScorePercent), zap.Error(err))
		return out, fmt.Errorf("%w: %w", course.ErrRemoteWrite, err)
	}

	out.Success = res.Passed
	log.Info("submission graded", zap.Int("score", res.ScorePercent), zap.Bool("passed", res.Passed))
	return out, nil
}
