package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mind-engage/courseflow/internal/course"
	"github.com/mind-engage/courseflow/internal/grading"
	"github.com/mind-engage/courseflow/internal/progress"
)

// ErrStaleResponse is returned when a load or refresh finished after the
// session had already switched to another course. Its result was dropped.
var ErrStaleResponse = errors.New("stale response discarded")

// View is everything a page needs to render one course for one user.
type View struct {
	CourseID       string                        `json:"course_id"`
	CurrentVideoID string                        `json:"current_video_id,omitempty"` // unlocked video
	AllPassed      bool                          `json:"all_passed"`
	Videos         []course.Video                `json:"videos"`
	States         map[string]progress.State     `json:"states"`
	Progress       course.CourseProgressSnapshot `json:"progress"` // step count, not the unlocked video
	TestProgress   map[string]int                `json:"test_progress"`
	Completions    []course.CompletionRecord     `json:"completions,omitempty"`
}

// NewView derives the progression and aggregate metrics from videos and
// completions. Pure.
func NewView(courseID string, videos []course.Video, completions []course.CompletionRecord) View {
	completions = progress.Latest(completions)
	res := progress.Resolve(videos, completions)
	tp := make(map[string]int, len(res.Ordered))
	for _, v := range res.Ordered {
		tp[v.ID] = progress.TestProgress(completions, v.ID)
	}
	return View{
		CourseID:       courseID,
		CurrentVideoID: res.CurrentVideoID,
		AllPassed:      res.AllPassed,
		Videos:         res.Ordered,
		States:         res.States,
		Progress:       progress.CourseProgress(videos, completions),
		TestProgress:   tp,
		Completions:    completions,
	}
}

// fallbackView is used when completions could not be read: the first video
// is current and nothing is marked passed.
func fallbackView(courseID string, videos []course.Video) View {
	v := NewView(courseID, videos, nil)
	if first, ok := progress.First(videos); ok {
		v.CurrentVideoID = first.ID
	}
	return v
}

// Session is the stateful shell for one user: it owns the completion cache
// of the selected course and the current video. Every async load is tagged
// with the generation of the selection it was issued for; results from an
// older generation are discarded.
type Session struct {
	svc    *Service
	userID string
	cache  *progress.CompletionStore

	mu       sync.Mutex
	gen      uint64
	courseID string
	videos   []course.Video
	view     View
}

func (s *Service) NewSession(userID string) *Session {
	return &Session{
		svc:    s,
		userID: userID,
		cache:  progress.NewCompletionStore(userID),
	}
}

func (ss *Session) UserID() string { return ss.userID }

// SelectCourse switches the session to courseID and loads it. Anything in
// flight for the previous course is invalidated.
func (ss *Session) SelectCourse(ctx context.Context, courseID string) (View, error) {
	ss.mu.Lock()
	ss.gen++
	gen := ss.gen
	ss.courseID = courseID
	ss.videos = nil
	ss.view = View{CourseID: courseID}
	ss.cache.ReplaceAll(nil)
	ss.mu.Unlock()

	st, err := ss.svc.LoadCourse(ctx, ss.userID, courseID)

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if gen != ss.gen {
		ss.logStale("select course", gen, courseID)
		return View{}, ErrStaleResponse
	}

	ss.videos = st.Videos
	switch {
	case err == nil:
		ss.cache.ReplaceAll(st.Completions)
		ss.view = NewView(courseID, ss.videos, ss.cache.Records())
	case errors.Is(err, course.ErrRemoteRead) && len(st.Videos) > 0:
		// Videos arrived, completions did not.
		ss.view = fallbackView(courseID, ss.videos)
	default:
		ss.view = View{CourseID: courseID}
	}
	return ss.view, err
}

// Refresh re-reads the completions of the selected course from the remote
// store and re-runs the resolver.
func (ss *Session) Refresh(ctx context.Context) (View, error) {
	ss.mu.Lock()
	gen, courseID, videos := ss.gen, ss.courseID, ss.videos
	ss.mu.Unlock()

	if courseID == "" || len(videos) == 0 {
		return View{CourseID: courseID}, course.ErrInvalidCourseState
	}
	recs, err := ss.svc.Completions(ctx, ss.userID, videos)
	return ss.apply(gen, courseID, recs, err)
}

func (ss *Session) apply(gen uint64, courseID string, recs []course.CompletionRecord, err error) (View, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if gen != ss.gen {
		ss.logStale("refresh", gen, courseID)
		return View{}, ErrStaleResponse
	}
	if err != nil {
		// Keep the last authoritative state.
		return ss.view, err
	}
	ss.cache.ReplaceAll(recs)
	ss.view = NewView(courseID, ss.videos, ss.cache.Records())
	return ss.view, nil
}

// Submit grades and persists answers for a video of the selected course, then
// refreshes the cache from the remote store. The cache only changes after
// both the write and the re-read succeed.
func (ss *Session) Submit(ctx context.Context, videoID string, answers grading.Answers) (Outcome, View, error) {
	ss.mu.Lock()
	gen, courseID := ss.gen, ss.courseID
	inCourse := false
	for _, v := range ss.videos {
		if v.ID == videoID {
			inCourse = true
			break
		}
	}
	view := ss.view
	videos := ss.videos
	ss.mu.Unlock()

	if !inCourse {
		return Outcome{}, view, fmt.Errorf("%w: video %s is not part of course %s", course.ErrInvalidCourseState, videoID, courseID)
	}

	out, err := ss.svc.Submit(ctx, ss.userID, videoID, answers)
	if err != nil {
		return out, view, err
	}

	recs, rerr := ss.svc.Completions(ctx, ss.userID, videos)
	view, rerr = ss.apply(gen, courseID, recs, rerr)
	if errors.Is(rerr, ErrStaleResponse) {
		// The write went through; only the refresh belongs to an old course.
		return out, View{}, nil
	}
	return out, view, rerr
}

// View returns the last authoritative state.
func (ss *Session) View() View {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.view
}

func (ss *Session) CurrentVideoID() (string, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.view.CurrentVideoID, ss.view.CurrentVideoID != ""
}

func (ss *Session) CourseProgress() course.CourseProgressSnapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.view.Progress
}

// TestProgress is the last graded score for videoID in the cache.
func (ss *Session) TestProgress(videoID string) int {
	if rec, ok := ss.cache.Find(videoID); ok {
		return rec.ScorePercent
	}
	return 0
}

func (ss *Session) logStale(op string, gen uint64, courseID string) {
	ss.svc.log.Debug("dropping stale response",
		zap.String("op", op),
		zap.String("user_id", ss.userID),
		zap.String("course_id", courseID),
		zap.Uint64("generation", gen),
		zap.Uint64("current_generation", ss.gen))
}
