package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/procurement-backend/api/responses"
	"github.com/angelmondragon/procurement-backend/api/validators"
	internalsuppliers "github.com/angelmondragon/procurement-backend/internal/suppliers"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/procurement-backend/pkg/redis"
)

const (
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// pendingIdempotencyTTL bounds how long an in-flight claim blocks retries.
	pendingIdempotencyTTL = 2 * time.Minute

	importBodyBytes = internalsuppliers.MaxImportBytes + validators.MaxBodyBytes

	idempotencyHeader = "Idempotency-Key"
	// ReplayedHeader is set on responses served from the idempotency store.
	ReplayedHeader = "Idempotent-Replayed"
)

type idempotentRoute struct {
	method  string
	match   func(pattern string) bool
	ttl     time.Duration
	maxBody int64
}

var idempotentRoutes = []idempotentRoute{
	{http.MethodPost, exactly("/orders"), criticalIdempotencyTTL, validators.MaxBodyBytes},
	{http.MethodPut, between("/orders/", "/status"), criticalIdempotencyTTL, validators.MaxBodyBytes},
	{http.MethodPost, exactly("/suppliers/import"), defaultIdempotencyTTL, importBodyBytes},
}

func exactly(path string) func(string) bool {
	return func(pattern string) bool { return pattern == path }
}

func between(prefix, suffix string) func(string) bool {
	return func(pattern string) bool {
		return strings.HasPrefix(pattern, prefix) && strings.HasSuffix(pattern, suffix)
	}
}

func matchRoute(method, pattern string) (idempotentRoute, bool) {
	if pattern == "" {
		return idempotentRoute{}, false
	}
	for _, route := range idempotentRoutes {
		if route.method == method && route.match(pattern) {
			return route, true
		}
	}
	return idempotentRoute{}, false
}

// storedResponse is what a replay writes back.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
	// Pending marks a claim whose handler has not finished yet.
	Pending bool `json:"pending,omitempty"`
}

type idempotencyGuard struct {
	store    pkgredis.IdempotencyStore
	required bool
	logg     *logger.Logger
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the routes in idempotentRoutes. The header is optional unless required is
// set. A key reused with a different body is rejected. The key is claimed
// before the handler runs, so a concurrent duplicate gets a conflict instead
// of a second execution. 5xx responses release the claim so the client can
// retry.
func Idempotency(store pkgredis.IdempotencyStore, required bool, logg *logger.Logger) func(http.Handler) http.Handler {
	g := &idempotencyGuard{store: store, required: required, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := matchRoute(r.Method, routePattern(r))
			if !ok || g.store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := g.serve(w, r, next, route); err != nil {
				responses.WriteError(r.Context(), g.logg, w, err)
			}
		})
	}
}

// serve returns an error only when nothing has been written yet.
func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, route idempotentRoute) error {
	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if clientKey == "" {
		if g.required {
			return pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
		}
		next.ServeHTTP(w, r)
		return nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, route.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
				WithDetails(map[string]any{"maxBytes": tooLarge.Limit})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	hash := requestHash(body)
	key := g.store.IdempotencyKey(buildScope(r), clientKey)
	ctx := r.Context()

	claimed, err := g.claim(ctx, key, hash)
	if err != nil {
		return err
	}
	if !claimed {
		prior, err := g.lookup(ctx, key)
		if err != nil {
			return err
		}
		if prior != nil {
			return prior.replay(w, hash)
		}
		// The claim expired between SETNX and GET; treat it as in flight.
		return pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is in progress")
	}

	done := false
	defer func() {
		if !done {
			g.release(context.WithoutCancel(ctx), key)
		}
	}()

	var captured bytes.Buffer
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	ww.Tee(&captured)
	next.ServeHTTP(ww, r)

	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusInternalServerError {
		return nil
	}
	done = true
	g.remember(context.WithoutCancel(ctx), key, route.ttl, storedResponse{
		Status:      status,
		ContentType: ww.Header().Get("Content-Type"),
		Body:        captured.Bytes(),
		RequestHash: hash,
	})
	return nil
}

// claim reserves key for this request with a pending marker.
func (g *idempotencyGuard) claim(ctx context.Context, key, hash string) (bool, error) {
	payload, err := json.Marshal(storedResponse{RequestHash: hash, Pending: true})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency claim")
	}
	claimed, err := g.store.SetNX(ctx, key, string(payload), pendingIdempotencyTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return claimed, nil
}

func (g *idempotencyGuard) release(ctx context.Context, key string) {
	if err := g.store.Del(ctx, key); err != nil && g.logg != nil {
		g.logg.Error(ctx, "release idempotency claim", err)
	}
}

func (g *idempotencyGuard) lookup(ctx context.Context, key string) (*storedResponse, error) {
	raw, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil) || (err == nil && raw == ""):
		return nil, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &stored, nil
}

// remember replaces the pending claim with the finished response.
func (g *idempotencyGuard) remember(ctx context.Context, key string, ttl time.Duration, resp storedResponse) {
	payload, err := json.Marshal(resp)
	if err == nil {
		err = g.store.Set(ctx, key, string(payload), ttl)
	}
	if err != nil && g.logg != nil {
		g.logg.Error(ctx, "persist idempotency record", err)
	}
}

// replay writes the stored response, or fails when the record belongs to a
// different body or is still pending.
func (s *storedResponse) replay(w http.ResponseWriter, hash string) error {
	switch {
	case s.RequestHash != hash:
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	case s.Pending:
		return pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is in progress")
	}
	s.writeTo(w)
	return nil
}

func (s *storedResponse) writeTo(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

func buildScope(r *http.Request) string {
	return strings.Join([]string{ActorFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// routePattern prefers chi's matched pattern. Sub-router middleware only
// sees a partial pattern ending in "/*", so the raw path is used then.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.Contains(pattern, "*") {
			return pattern
		}
	}
	if path := strings.TrimSuffix(r.URL.Path, "/"); path != "" {
		return path
	}
	return r.URL.Path
}

