package auth

import "context"

type subjectKey struct{}

// WithSubject stores the token subject, which is the learner's user id.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns "" for anonymous (guest) requests.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}
