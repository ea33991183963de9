package course

import (
	"context"
	"sort"
	"sync"
)

type completionKey struct{ userID, videoID string }

// MemoryStore is a Remote kept entirely in process. It backs the "memory"
// driver and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	courses     map[string]Course
	videos      map[string]Video
	questions   map[string][]Question // videoID -> questions, insertion order
	completions map[completionKey]CompletionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses:     map[string]Course{},
		videos:      map[string]Video{},
		questions:   map[string][]Question{},
		completions: map[completionKey]CompletionRecord{},
	}
}

func (m *MemoryStore) PutCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *MemoryStore) PutVideo(_ context.Context, v Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[v.ID] = v
	return nil
}

func (m *MemoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qs := m.questions[q.VideoID]
	for i := range qs {
		if qs[i].ID == q.ID {
			qs[i] = q
			return nil
		}
	}
	m.questions[q.VideoID] = append(qs, q)
	return nil
}

func (m *MemoryStore) ListCourses(_ context.Context) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *MemoryStore) GetCourse(_ context.Context, courseID string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[courseID]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return c, nil
}

func (m *MemoryStore) ListVideos(_ context.Context, courseID string) ([]Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Video
	for _, v := range m.videos {
		if v.CourseID == courseID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *MemoryStore) ListQuestions(_ context.Context, videoID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qs := m.questions[videoID]
	out := make([]Question, len(qs))
	copy(out, qs)
	return out, nil
}

func (m *MemoryStore) ListCompletions(_ context.Context, userID string, videoIDs []string) ([]CompletionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []CompletionRecord
	for _, id := range videoIDs {
		if rec, ok := m.completions[completionKey{userID, id}]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpsertCompletion(_ context.Context, rec CompletionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions[completionKey{rec.UserID, rec.VideoID}] = rec
	return nil
}
