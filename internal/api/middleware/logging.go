package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// principal carries the authenticated caller identity from the auth
// middlewares back out to the request log. RequestLogging installs an empty
// carrier before auth runs; whichever auth middleware resolves the credential
// fills it in via setPrincipal.
type principal struct {
	id   string
	kind models.PrincipalKind
}

type principalCarrierKey struct{}

func withPrincipalCarrier(ctx context.Context) (context.Context, *principal) {
	p := &principal{}
	return context.WithValue(ctx, principalCarrierKey{}, p), p
}

// setPrincipal records the authenticated principal on the request's carrier.
// A no-op when RequestLogging is not in the chain.
func setPrincipal(ctx context.Context, id string, kind models.PrincipalKind) {
	if p, ok := ctx.Value(principalCarrierKey{}).(*principal); ok {
		p.id = id
		p.kind = kind
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// RequestLogging logs every HTTP request with method, path, status, duration,
// and remote address. Authenticated requests additionally carry the settling
// principal, so a completion or campaign edit in the log always names who
// drove it.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, caller := withPrincipalCarrier(r.Context())
		rw := &responseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		next.ServeHTTP(rw, r.WithContext(ctx))

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start).String(),
			"size", rw.size,
			"remoteAddr", r.RemoteAddr,
		}
		if caller.id != "" {
			attrs = append(attrs, "principalId", caller.id, "principalKind", caller.kind)
		}
		slog.Info("http request", attrs...)
	})
}
