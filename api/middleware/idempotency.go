package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vivetti/salesdesk-backend/api/responses"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
	pkgredis "github.com/vivetti/salesdesk-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	replayHeader          = "Idempotent-Replay"
	defaultIdempotencyTTL = 24 * time.Hour

	// pendingStatus marks a key claimed by a request that has not finished yet.
	pendingStatus = -1
)

type idempotencyRule struct {
	method string
	match  func(pattern string) bool
	ttl    time.Duration
}

// Opening a draft and both save paths create state a retry must not duplicate.
var idempotencyRules = []idempotencyRule{
	{http.MethodPost, matchExact("/api/v1/quotes/drafts"), defaultIdempotencyTTL},
	{http.MethodPost, matchPrefixSuffix("/api/v1/quotes/drafts/", "/save"), defaultIdempotencyTTL},
	{http.MethodPost, matchPrefixSuffix("/api/v1/quotes/", "/edit"), defaultIdempotencyTTL},
}

// replayHeaders survive a replay so stored PDFs and JSON keep their content type.
var replayHeaders = []string{"Content-Type", "Content-Disposition"}

type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        []byte            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency makes guarded routes safe to retry. The first request with a
// given Idempotency-Key claims it; its response is stored for the TTL and
// replayed verbatim to later requests carrying the same key and body. 5xx
// responses are not stored so the caller can retry after a transient failure.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := routeTTL(r.Method, routePattern(r))
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			id := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if id == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(requestScope(r), id)

			stored, err := store.Get(ctx, key)
			switch {
			case err != nil && !pkgredis.IsMiss(err):
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			case stored != "":
				replay(w, r, logg, stored, requestHash)
				return
			}

			claimed, err := claim(ctx, store, key, requestHash, ttl)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !claimed {
				responses.WriteError(ctx, logg, w, inFlightError())
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			finish(ctx, store, logg, key, requestHash, ttl, capture)
		})
	}
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, requestHash string, ttl time.Duration) (bool, error) {
	pending, err := json.Marshal(idempotencyRecord{Status: pendingStatus, RequestHash: requestHash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(pending), ttl)
}

// finish stores the captured response over the pending claim, or releases the
// claim when the handler failed server-side.
func finish(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, key, requestHash string, ttl time.Duration, capture *responseCapture) {
	status := capture.statusCode()
	if status >= http.StatusInternalServerError {
		if err := store.Del(ctx, key); err != nil {
			logError(ctx, logg, "release idempotency key", err)
		}
		return
	}

	record := idempotencyRecord{
		Status:      status,
		Body:        capture.body.Bytes(),
		RequestHash: requestHash,
		Headers:     make(map[string]string, len(replayHeaders)),
	}
	for _, header := range replayHeaders {
		if v := capture.Header().Get(header); v != "" {
			record.Headers[header] = v
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		logError(ctx, logg, "marshal idempotency record", err)
		_ = store.Del(ctx, key)
		return
	}
	if err := store.Set(ctx, key, string(payload), ttl); err != nil {
		logError(ctx, logg, "persist idempotency record", err)
	}
}

func replay(w http.ResponseWriter, r *http.Request, logg *logger.Logger, stored, requestHash string) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if record.Status == pendingStatus {
		responses.WriteError(r.Context(), logg, w, inFlightError())
		return
	}

	if logg != nil {
		logg.Debug(logg.WithField(r.Context(), "status", record.Status), "idempotency.replay")
	}
	for header, value := range record.Headers {
		w.Header().Set(header, value)
	}
	w.Header().Set(replayHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func inFlightError() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is in progress")
}

// requestScope keys records per operator and concrete path, so the same key
// sent for two different drafts never collides.
func requestScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// routePattern needs the route resolved by chi, so the middleware must be
// attached with r.With on the final route rather than r.Use on a parent router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	for _, rule := range idempotencyRules {
		if rule.method == method && rule.match(pattern) {
			return rule.ttl, true
		}
	}
	return 0, false
}

func matchExact(path string) func(string) bool {
	return func(pattern string) bool { return pattern == path }
}

func matchPrefixSuffix(prefix, suffix string) func(string) bool {
	return func(pattern string) bool {
		return strings.HasPrefix(pattern, prefix) && strings.HasSuffix(pattern, suffix)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg != nil && err != nil {
		logg.Error(ctx, msg, err)
	}
}
