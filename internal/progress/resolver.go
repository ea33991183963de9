package progress

import (
	"sort"

	"github.com/mind-engage/courseflow/internal/course"
)

// State of a video for one user. Never stored; always derived.
type State string

const (
	Locked  State = "locked"
	Current State = "current"
	Passed  State = "passed"
)

// Resolution is the progression state of one course for one user.
type Resolution struct {
	CurrentVideoID string // "" when the course has no videos
	AllPassed      bool
	States         map[string]State // videoID -> state
	Ordered        []course.Video   // videos sorted by Order
}

// Current returns the unlocked video.
func (r Resolution) Current() (course.Video, bool) {
	for _, v := range r.Ordered {
		if v.ID == r.CurrentVideoID {
			return v, true
		}
	}
	return course.Video{}, false
}

// Resolve picks the current video: the lowest-order video without a passed
// completion. Everything below it is passed, everything above it is locked.
// When every video is passed the last one stays current.
func Resolve(videos []course.Video, completions []course.CompletionRecord) Resolution {
	ordered := SortByOrder(videos)
	res := Resolution{
		States:  make(map[string]State, len(ordered)),
		Ordered: ordered,
	}
	if len(ordered) == 0 {
		return res
	}

	passed := passedSet(completions)
	for i, v := range ordered {
		if passed[v.ID] {
			res.States[v.ID] = Passed
			continue
		}
		res.CurrentVideoID = v.ID
		res.States[v.ID] = Current
		for _, rest := range ordered[i+1:] {
			res.States[rest.ID] = Locked
		}
		return res
	}

	res.AllPassed = true
	res.CurrentVideoID = ordered[len(ordered)-1].ID
	return res
}

// SortByOrder returns a copy of videos sorted by Order ascending.
func SortByOrder(videos []course.Video) []course.Video {
	out := make([]course.Video, len(videos))
	copy(out, videos)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// First returns the lowest-order video. Used as the fallback current video
// when completions cannot be read.
func First(videos []course.Video) (course.Video, bool) {
	if len(videos) == 0 {
		return course.Video{}, false
	}
	first := videos[0]
	for _, v := range videos[1:] {
		if v.Order < first.Order {
			first = v
		}
	}
	return first, true
}

func passedSet(completions []course.CompletionRecord) map[string]bool {
	out := make(map[string]bool, len(completions))
	for _, c := range completions {
		if c.Passed {
			out[c.VideoID] = true
		}
	}
	return out
}
