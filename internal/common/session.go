package common

import "context"

// Session holds the authenticated user's identity for a request. It is
// populated by the bearer-token middleware on sign-in and cleared when the
// request ends — there is no ambient global auth state.
type Session struct {
	UserID string
	Email  string
	Name   string
}

type contextKey int

const sessionKey contextKey = iota

// WithSession stores a Session in the request context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the Session from context, or nil if absent.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// ResolveUserID returns the user ID from the session, or empty string when
// the request is unauthenticated. Storage operations scope every record by
// this value; callers must reject empty IDs.
func ResolveUserID(ctx context.Context) string {
	if s := SessionFromContext(ctx); s != nil {
		return s.UserID
	}
	return ""
}
