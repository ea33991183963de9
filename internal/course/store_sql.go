package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SQLStore is the Remote backed by the relational schema created in
// internal/db. Queries use $n placeholders, understood by both sqlite and pgx.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses (id,name,position,cover_image,description)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, position=EXCLUDED.position,
			cover_image=EXCLUDED.cover_image, description=EXCLUDED.description`,
		c.ID, c.Name, c.Order, c.CoverImage, c.Description)
	if err != nil {
		return fmt.Errorf("put course: %w", err)
	}
	return nil
}

func (s *SQLStore) PutVideo(ctx context.Context, v Video) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO videos (id,course_id,position,title,source_url)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET course_id=EXCLUDED.course_id, position=EXCLUDED.position,
			title=EXCLUDED.title, source_url=EXCLUDED.source_url`,
		v.ID, v.CourseID, v.Order, v.Title, v.SourceURL)
	if err != nil {
		return fmt.Errorf("put video: %w", err)
	}
	return nil
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,video_id,text,options_json,correct_option_index,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET video_id=EXCLUDED.video_id, text=EXCLUDED.text,
			options_json=EXCLUDED.options_json, correct_option_index=EXCLUDED.correct_option_index`,
		q.ID, q.VideoID, q.Text, string(oj), q.CorrectOptionIndex, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("put question: %w", err)
	}
	return nil
}

func (s *SQLStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,name,position,cover_image,description FROM courses ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Order, &c.CoverImage, &c.Description); err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

func (s *SQLStore) GetCourse(ctx context.Context, courseID string) (Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,position,cover_image,description FROM courses WHERE id=$1`, courseID).
		Scan(&c.ID, &c.Name, &c.Order, &c.CoverImage, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (s *SQLStore) ListVideos(ctx context.Context, courseID string) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,course_id,position,title,source_url FROM videos WHERE course_id=$1 ORDER BY position ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.ID, &v.CourseID, &v.Order, &v.Title, &v.SourceURL); err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, videoID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,video_id,text,options_json,correct_option_index FROM questions
		 WHERE video_id=$1 ORDER BY created_at ASC, id ASC`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var oj string
		if err := rows.Scan(&q.ID, &q.VideoID, &q.Text, &oj, &q.CorrectOptionIndex); err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			return nil, fmt.Errorf("list questions: options of %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ListCompletions(ctx context.Context, userID string, videoIDs []string) ([]CompletionRecord, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(videoIDs)+1)
	args = append(args, userID)
	ph := make([]string, 0, len(videoIDs))
	for i, id := range videoIDs {
		args = append(args, id)
		ph = append(ph, "$"+strconv.Itoa(i+2))
	}
	q := `SELECT user_id,video_id,score,passed,completed_at FROM user_scores
		WHERE user_id=$1 AND video_id IN (` + strings.Join(ph, ",") + `)`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var out []CompletionRecord
	for rows.Next() {
		var rec CompletionRecord
		var completedAt int64
		if err := rows.Scan(&rec.UserID, &rec.VideoID, &rec.ScorePercent, &rec.Passed, &completedAt); err != nil {
			return nil, fmt.Errorf("list completions: %w", err)
		}
		rec.CompletedAt = time.UnixMilli(completedAt).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) UpsertCompletion(ctx context.Context, rec CompletionRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_scores (user_id,video_id,score,passed,completed_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, video_id) DO UPDATE SET
			score=EXCLUDED.score,
			passed=EXCLUDED.passed,
			completed_at=EXCLUDED.completed_at`,
		rec.UserID, rec.VideoID, rec.ScorePercent, rec.Passed, rec.CompletedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert completion: %w", err)
	}
	return nil
}
