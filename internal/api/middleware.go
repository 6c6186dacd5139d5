package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/deakteri/damareen/internal/errors"
	"github.com/deakteri/damareen/internal/ratelimit"
)

type contextKey string

// userIDKey carries the authenticated user id through the request context.
const userIDKey contextKey = "user_id"

// callerID returns the authenticated user id set by authMiddleware.
func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// loggingMiddleware logs request start and completion with timing.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Printf(
			"request_completed method=%s path=%s status=%d duration=%v request_id=%s remote_addr=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), requestID, r.RemoteAddr,
		)
	})
}

// corsMiddleware handles CORS headers for browser clients.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware gates every endpoint per caller address and path.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}

		if !s.gate.Admit(ratelimit.Key(addr, r.URL.Path)) {
			s.writeErr(w, r, apperrors.New(apperrors.KindRateLimited, "rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware verifies the bearer token and loads the caller id into the
// request context. The user must still exist.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.writeErr(w, r, apperrors.New(apperrors.KindUnauthorized, "authorization header is missing"))
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			s.writeErr(w, r, apperrors.New(apperrors.KindUnauthorized, "invalid authorization header format"))
			return
		}

		userID, err := s.tokens.Verify(parts[1])
		if err != nil {
			s.writeErr(w, r, err)
			return
		}

		user, err := s.store.UserByID(r.Context(), userID)
		if err != nil {
			s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load user", err))
			return
		}
		if user == nil {
			s.writeErr(w, r, apperrors.New(apperrors.KindUnauthorized, "user not found"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
