// Package context carries request-scoped observability identifiers.
package context

import "context"

type requestIDKey struct{}
type actorKey struct{}

type actor struct {
	id       string
	username string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithActor records the authenticated user for log enrichment.
func WithActor(ctx context.Context, userID, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{id: userID, username: username})
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	a, _ := ctx.Value(actorKey{}).(actor)
	return a.id, a.username
}
