// Package api exposes the Damareen backend over HTTP.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deakteri/damareen/internal/auth"
	"github.com/deakteri/damareen/internal/config"
	apperrors "github.com/deakteri/damareen/internal/errors"
	"github.com/deakteri/damareen/internal/game"
	"github.com/deakteri/damareen/internal/mail"
	"github.com/deakteri/damareen/internal/ratelimit"
	"github.com/deakteri/damareen/internal/store"
)

// Server handles HTTP requests.
type Server struct {
	store    store.Store
	gate     *ratelimit.Gate
	guard    *auth.Guard
	tokens   *auth.TokenIssuer
	mailer   mail.Mailer
	composer *game.Composer
	assigner *game.Assigner
	resolver *game.Resolver
	logger   *log.Logger

	requireVerification bool
	verificationExpiry  time.Duration
}

// NewServer creates a new API server.
func NewServer(st store.Store, cfg config.Config, mailer mail.Mailer) *Server {
	return &Server{
		store:               st,
		gate:                ratelimit.New(cfg.RateWindow, cfg.RateLimit),
		guard:               auth.NewGuard(st),
		tokens:              auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry),
		mailer:              mailer,
		composer:            game.NewComposer(st),
		assigner:            game.NewAssigner(st),
		resolver:            game.NewResolver(st),
		logger:              log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile),
		requireVerification: cfg.RequireEmailVerification,
		verificationExpiry:  cfg.VerificationExpiry,
	}
}

// Routes sets up the HTTP routes with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.corsMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/verify-email", s.handleVerifyEmail)
		r.Post("/verify-login", s.handleVerifyLogin)
		r.Post("/resend-verification", s.handleResendVerification)

		// Everything below requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Delete("/account", s.handleDeleteAccount)

			r.Post("/create/world", s.handleCreateWorld)
			r.Post("/join/world", s.handleJoinWorld)
			r.Get("/master-status", s.handleMasterStatus)

			r.Post("/create/card", s.handleCreateCard)
			r.Post("/create/leader", s.handleCreateLeader)
			r.Post("/create/dungeon", s.handleCreateDungeon)

			r.Post("/deck", s.handleSetDeck)
			r.Post("/battle", s.handleBattle)
			r.Get("/battles", s.handleListBattles)
		})
	})

	return r
}

// response is the JSON envelope every endpoint answers with.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON writes a success envelope.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response{Success: true, Data: data}); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeErr classifies err by its kind and writes an error envelope with the
// matching status code. Internal causes are logged, never echoed.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := kind.HTTPStatus()

	message := err.Error()
	if kind == apperrors.KindInternal {
		requestID := middleware.GetReqID(r.Context())
		s.logger.Printf("internal_error request_id=%s path=%s err=%v", requestID, r.URL.Path, err)
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Kind", string(kind))
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(response{Success: false, Error: message}); encodeErr != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeValidationErr is a shorthand for input failures.
func (s *Server) writeValidationErr(w http.ResponseWriter, r *http.Request, message string) {
	s.writeErr(w, r, apperrors.New(apperrors.KindValidation, message))
}

// decode parses the JSON request body into dst.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "request body is required and must be valid JSON", err)
	}
	return nil
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
