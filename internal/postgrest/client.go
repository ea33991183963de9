// Package postgrest implements course.Remote against a PostgREST endpoint
// such as the one Supabase exposes under /rest/v1.
package postgrest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mind-engage/courseflow/internal/course"
)

const (
	tableCourses   = "courses"
	tableVideos    = "videos"
	tableQuestions = "questions"
	tableScores    = "user_scores"
)

// APIError is the error body PostgREST returns on 4xx/5xx.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("postgrest: status %d", e.Status)
	}
	return fmt.Sprintf("postgrest: status %d: %s (%s)", e.Status, e.Message, e.Code)
}

type Option func(*resty.Client)

func WithRetries(n int, wait time.Duration) Option {
	return func(c *resty.Client) { c.SetRetryCount(n).SetRetryWaitTime(wait) }
}

type Client struct {
	rc *resty.Client
}

var _ course.Remote = (*Client)(nil)

// New returns a client for baseURL (e.g. https://x.supabase.co/rest/v1).
// apiKey is sent both as apikey and as bearer token.
func New(baseURL, apiKey string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("apikey", apiKey).
		SetAuthToken(apiKey).
		SetHeader("Accept", "application/json")
	for _, o := range opts {
		o(rc)
	}
	return &Client{rc: rc}
}

/* ---------------- rows ---------------- */

type courseRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Orden       int    `json:"orden"`
	CoverImage  string `json:"cover_image"`
	Description string `json:"description"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{ID: r.ID, Name: r.Name, Order: r.Orden, CoverImage: r.CoverImage, Description: r.Description}
}

type videoRow struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Order    int    `json:"order"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

type questionRow struct {
	ID                 string   `json:"id"`
	VideoID            string   `json:"video_id"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
}

type scoreRow struct {
	UserID      string    `json:"user_id"`
	VideoID     string    `json:"video_id"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completed_at"`
}

/* ---------------- reads ---------------- */

func (c *Client) get(ctx context.Context, table string, params map[string]string, out any) error {
	apiErr := &APIError{}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		SetError(apiErr).
		Get("/" + table)
	if err != nil {
		return fmt.Errorf("get %s: %w", table, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return fmt.Errorf("get %s: %w", table, apiErr)
	}
	return nil
}

func (c *Client) ListCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := c.get(ctx, tableCourses, map[string]string{
		"select": "*",
		"order":  "orden.asc,id.asc",
	}, &rows); err != nil {
		return nil, err
	}
	out := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCourse())
	}
	return out, nil
}

func (c *Client) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var rows []courseRow
	if err := c.get(ctx, tableCourses, map[string]string{
		"select": "*",
		"id":     "eq." + id,
		"limit":  "1",
	}, &rows); err != nil {
		return course.Course{}, err
	}
	if len(rows) == 0 {
		return course.Course{}, fmt.Errorf("course %s: %w", id, course.ErrCourseNotFound)
	}
	return rows[0].toCourse(), nil
}

func (c *Client) ListVideos(ctx context.Context, courseID string) ([]course.Video, error) {
	var rows []videoRow
	if err := c.get(ctx, tableVideos, map[string]string{
		"select":    "*",
		"course_id": "eq." + courseID,
		"order":     "order.asc",
	}, &rows); err != nil {
		return nil, err
	}
	out := make([]course.Video, 0, len(rows))
	for _, r := range rows {
		out = append(out, course.Video{ID: r.ID, CourseID: r.CourseID, Order: r.Order, Title: r.Title, SourceURL: r.URL})
	}
	return out, nil
}

func (c *Client) ListQuestions(ctx context.Context, videoID string) ([]course.Question, error) {
	var rows []questionRow
	if err := c.get(ctx, tableQuestions, map[string]string{
		"select":   "*",
		"video_id": "eq." + videoID,
		"order":    "created_at.asc",
	}, &rows); err != nil {
		return nil, err
	}
	out := make([]course.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, course.Question{
			ID: r.ID, VideoID: r.VideoID, Text: r.Question,
			Options: r.Options, CorrectOptionIndex: r.CorrectOptionIndex,
		})
	}
	return out, nil
}

func (c *Client) ListCompletions(ctx context.Context, userID string, videoIDs []string) ([]course.CompletionRecord, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	var rows []scoreRow
	if err := c.get(ctx, tableScores, map[string]string{
		"select":   "user_id,video_id,score,passed,completed_at",
		"user_id":  "eq." + userID,
		"video_id": "in." + inList(videoIDs),
		"order":    "completed_at.asc",
	}, &rows); err != nil {
		return nil, err
	}
	out := make([]course.CompletionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, course.CompletionRecord{
			UserID: r.UserID, VideoID: r.VideoID, ScorePercent: r.Score,
			Passed: r.Passed, CompletedAt: r.CompletedAt.UTC(),
		})
	}
	return out, nil
}

/* ---------------- writes ---------------- */

// UpsertCompletion writes one user_scores row, replacing the existing row for
// the same (user_id, video_id).
func (c *Client) UpsertCompletion(ctx context.Context, rec course.CompletionRecord) error {
	body := []scoreRow{{
		UserID: rec.UserID, VideoID: rec.VideoID, Score: rec.ScorePercent,
		Passed: rec.Passed, CompletedAt: rec.CompletedAt.UTC(),
	}}
	apiErr := &APIError{}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("on_conflict", "user_id,video_id").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetError(apiErr).
		Post("/" + tableScores)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", tableScores, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return fmt.Errorf("upsert %s: %w", tableScores, apiErr)
	}
	return nil
}

// inList renders ids as a PostgREST in.(...) operand with each value quoted.
func inList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return "(" + strings.Join(quoted, ",") + ")"
}
