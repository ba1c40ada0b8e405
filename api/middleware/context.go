package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	ctxActor contextKey = "actor"

	actorHeader   = "X-Actor"
	maxActorBytes = 120
)

// ActorFromContext returns the caller identity supplied through the X-Actor header.
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActor).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the acting user into the context.
func WithActor(ctx context.Context, actor string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// Actor copies the X-Actor header into the request context. Requests
// without the header keep an empty actor and services fall back to the
// order buyer or "system".
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if len(actor) > maxActorBytes {
				actor = actor[:maxActorBytes]
			}
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
