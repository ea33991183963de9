package progress

import (
	"sort"
	"sync"

	"github.com/mind-engage/courseflow/internal/course"
)

type key struct{ userID, videoID string }

// CompletionStore caches one user's completion records for the selected
// course. It holds at most one record per (user, video).
type CompletionStore struct {
	mu      sync.RWMutex
	userID  string
	records map[key]course.CompletionRecord
}

func NewCompletionStore(userID string) *CompletionStore {
	return &CompletionStore{userID: userID, records: map[key]course.CompletionRecord{}}
}

func (s *CompletionStore) UserID() string { return s.userID }

// ReplaceAll discards everything cached and loads recs. Records of other
// users are ignored. Duplicates are collapsed as in Latest.
func (s *CompletionStore) ReplaceAll(recs []course.CompletionRecord) {
	next := make(map[key]course.CompletionRecord, len(recs))
	for _, rec := range Latest(recs) {
		if rec.UserID != s.userID {
			continue
		}
		next[key{rec.UserID, rec.VideoID}] = rec
	}

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
}

// Upsert inserts or overwrites the record for its (user, video). It reports
// false when the record belongs to another user.
func (s *CompletionStore) Upsert(rec course.CompletionRecord) bool {
	if rec.UserID != s.userID {
		return false
	}
	s.mu.Lock()
	s.records[key{rec.UserID, rec.VideoID}] = rec
	s.mu.Unlock()
	return true
}

func (s *CompletionStore) Find(videoID string) (course.CompletionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{s.userID, videoID}]
	return rec, ok
}

func (s *CompletionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a copy sorted by video ID.
func (s *CompletionStore) Records() []course.CompletionRecord {
	s.mu.RLock()
	out := make([]course.CompletionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out
}

// Latest collapses recs to one record per (user, video): the one with the
// latest CompletedAt, or the later one in recs on equal timestamps. Order of
// first appearance is kept.
func Latest(recs []course.CompletionRecord) []course.CompletionRecord {
	idx := make(map[key]int, len(recs))
	out := make([]course.CompletionRecord, 0, len(recs))
	for _, rec := range recs {
		k := key{rec.UserID, rec.VideoID}
		i, seen := idx[k]
		if !seen {
			idx[k] = len(out)
			out = append(out, rec)
			continue
		}
		if !out[i].CompletedAt.After(rec.CompletedAt) {
			out[i] = rec
		}
	}
	return out
}
