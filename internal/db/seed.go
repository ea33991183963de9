package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/mind-engage/courseflow/internal/course"
)

// Bundle is the JSON layout accepted by Seed: courses with their videos and
// each video's question bank nested inline.
type Bundle struct {
	Courses []BundleCourse `json:"courses"`
}

type BundleCourse struct {
	course.Course
	Videos []BundleVideo `json:"videos"`
}

type BundleVideo struct {
	course.Video
	Questions []course.Question `json:"questions"`
}

// Seed imports a bundle into the catalog. Missing IDs are generated; the
// parent IDs of nested videos and questions are always taken from nesting.
func Seed(ctx context.Context, cat course.Catalog, r io.Reader) (Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("decode bundle: %w", err)
	}

	for ci := range b.Courses {
		bc := &b.Courses[ci]
		if bc.ID == "" {
			bc.ID = uuid.NewString()
		}
		if err := cat.PutCourse(ctx, bc.Course); err != nil {
			return Bundle{}, err
		}
		seen := map[int]string{}
		for vi := range bc.Videos {
			bv := &bc.Videos[vi]
			if bv.ID == "" {
				bv.ID = uuid.NewString()
			}
			bv.CourseID = bc.ID
			if bv.Order <= 0 {
				return Bundle{}, fmt.Errorf("video %s: order must be positive", bv.ID)
			}
			if other, dup := seen[bv.Order]; dup {
				return Bundle{}, fmt.Errorf("videos %s and %s share order %d", other, bv.ID, bv.Order)
			}
			seen[bv.Order] = bv.ID
			if err := cat.PutVideo(ctx, bv.Video); err != nil {
				return Bundle{}, err
			}
			for qi := range bv.Questions {
				q := &bv.Questions[qi]
				if q.ID == "" {
					q.ID = uuid.NewString()
				}
				q.VideoID = bv.ID
				if err := cat.PutQuestion(ctx, *q); err != nil {
					return Bundle{}, err
				}
			}
		}
	}
	return b, nil
}
