package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/deakteri/damareen/internal/auth"
	apperrors "github.com/deakteri/damareen/internal/errors"
	"github.com/deakteri/damareen/internal/mail"
	"github.com/deakteri/damareen/internal/store"
)

// handleRegister creates an account. Depending on configuration the account
// is either usable immediately (with a token in the response) or pending
// email verification.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	switch {
	case username == "":
		s.writeValidationErr(w, r, "username is required")
		return
	case email == "":
		s.writeValidationErr(w, r, "email is required")
		return
	case req.Password == "":
		s.writeValidationErr(w, r, "password is required")
		return
	case !validUsername(username):
		s.writeValidationErr(w, r, "username must be 3-80 characters of letters, digits or underscores")
		return
	case !validEmail(email):
		s.writeValidationErr(w, r, "invalid email format")
		return
	case !auth.ValidPassword(req.Password):
		s.writeValidationErr(w, r, "password must be at least 8 characters with upper case, lower case and a digit")
		return
	}

	if existing, err := s.store.UserByLogin(r.Context(), username); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "check username", err))
		return
	} else if existing != nil {
		s.writeErr(w, r, apperrors.New(apperrors.KindConflict, "username already exists"))
		return
	}
	if existing, err := s.store.UserByLogin(r.Context(), email); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "check email", err))
		return
	} else if existing != nil {
		s.writeErr(w, r, apperrors.New(apperrors.KindConflict, "email already exists"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "hash password", err))
		return
	}

	user := &store.User{
		Username:            username,
		Email:               email,
		PasswordHash:        hash,
		EmailVerified:       !s.requireVerification,
		VerificationToken:   mail.NewToken(),
		VerificationExpires: time.Now().UTC().Add(s.verificationExpiry),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.sendMail(r, "verification", func() error {
		return s.mailer.SendVerification(user.Email, user.Username, user.VerificationToken)
	})

	if s.requireVerification {
		s.writeJSON(w, http.StatusCreated, map[string]any{
			"message":               "registration successful, check your inbox to confirm your email",
			"user":                  user,
			"requires_verification": true,
		})
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message":               "registration successful",
		"user":                  user,
		"token":                 token,
		"requires_verification": false,
	})
}

// handleLogin checks credentials and either returns a token or kicks off the
// email confirmation flow.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	login := strings.TrimSpace(req.Username)
	if login == "" {
		s.writeValidationErr(w, r, "username or email is required")
		return
	}
	if req.Password == "" {
		s.writeValidationErr(w, r, "password is required")
		return
	}

	user, err := s.store.UserByLogin(r.Context(), login)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load user", err))
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.writeErr(w, r, apperrors.New(apperrors.KindUnauthorized, "invalid credentials"))
		return
	}

	if s.requireVerification && !user.EmailVerified {
		user.VerificationToken = mail.NewToken()
		user.VerificationExpires = time.Now().UTC().Add(s.verificationExpiry)
		if err := s.store.UpdateUserVerification(r.Context(), user); err != nil {
			s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "update verification token", err))
			return
		}
		s.sendMail(r, "verification", func() error {
			return s.mailer.SendVerification(user.Email, user.Username, user.VerificationToken)
		})
		s.writeErr(w, r, apperrors.New(apperrors.KindForbidden, "email address is not verified yet, a new confirmation email was sent"))
		return
	}

	user.LoginToken = mail.NewToken()
	user.LoginTokenExpires = time.Now().UTC().Add(s.verificationExpiry)
	if err := s.store.UpdateUserVerification(r.Context(), user); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "update login token", err))
		return
	}
	s.sendMail(r, "login_confirmation", func() error {
		return s.mailer.SendLoginConfirmation(user.Email, user.Username, user.LoginToken)
	})

	if s.requireVerification {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"message":               "login confirmation email sent, check your inbox",
			"requires_verification": true,
		})
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":               "login successful",
		"user":                  user,
		"token":                 token,
		"requires_verification": false,
	})
}

// handleVerifyEmail confirms an email address from its verification token and
// issues an access token.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userFromToken(w, r, "verification token", s.store.UserByVerificationToken, func(u *store.User) time.Time {
		return u.VerificationExpires
	})
	if !ok {
		return
	}

	user.EmailVerified = true
	user.VerificationToken = ""
	user.VerificationExpires = time.Time{}
	if err := s.store.UpdateUserVerification(r.Context(), user); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "update user", err))
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "email address verified",
		"user":    user,
		"token":   token,
	})
}

// handleVerifyLogin confirms a login from its confirmation token and issues
// an access token.
func (s *Server) handleVerifyLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userFromToken(w, r, "login token", s.store.UserByLoginToken, func(u *store.User) time.Time {
		return u.LoginTokenExpires
	})
	if !ok {
		return
	}

	user.LoginToken = ""
	user.LoginTokenExpires = time.Time{}
	if err := s.store.UpdateUserVerification(r.Context(), user); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "update user", err))
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "login verified",
		"user":    user,
		"token":   token,
	})
}

// handleResendVerification reissues the email verification token.
func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		s.writeValidationErr(w, r, "email is required")
		return
	}

	user, err := s.store.UserByLogin(r.Context(), email)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load user", err))
		return
	}
	if user == nil {
		s.writeErr(w, r, apperrors.New(apperrors.KindNotFound, "user not found"))
		return
	}
	if user.EmailVerified {
		s.writeValidationErr(w, r, "email address is already verified")
		return
	}

	user.VerificationToken = mail.NewToken()
	user.VerificationExpires = time.Now().UTC().Add(s.verificationExpiry)
	if err := s.store.UpdateUserVerification(r.Context(), user); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "update verification token", err))
		return
	}
	s.sendMail(r, "verification", func() error {
		return s.mailer.SendVerification(user.Email, user.Username, user.VerificationToken)
	})

	s.writeJSON(w, http.StatusOK, map[string]any{"message": "a new confirmation email was sent"})
}

// handleDeleteAccount removes the caller's account after a password check.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if req.Password == "" {
		s.writeValidationErr(w, r, "password is required to delete the account")
		return
	}

	user, err := s.store.UserByID(r.Context(), callerID(r))
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load user", err))
		return
	}
	if user == nil {
		s.writeErr(w, r, apperrors.New(apperrors.KindNotFound, "user not found"))
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.writeErr(w, r, apperrors.New(apperrors.KindUnauthorized, "invalid password"))
		return
	}

	if err := s.store.DeleteUser(r.Context(), user.ID); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "delete user", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "account deleted"})
}

// userFromToken resolves a user from a one-time token in the request body and
// checks the token's expiry.
func (s *Server) userFromToken(w http.ResponseWriter, r *http.Request, label string,
	lookup func(ctx context.Context, token string) (*store.User, error),
	expiry func(*store.User) time.Time) (*store.User, bool) {

	var req tokenRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return nil, false
	}
	if req.Token == "" {
		s.writeValidationErr(w, r, label+" is required")
		return nil, false
	}

	user, err := lookup(r.Context(), req.Token)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load user", err))
		return nil, false
	}
	if user == nil {
		s.writeValidationErr(w, r, "invalid "+label)
		return nil, false
	}
	if exp := expiry(user); exp.IsZero() || exp.Before(time.Now().UTC()) {
		s.writeValidationErr(w, r, label+" has expired")
		return nil, false
	}
	return user, true
}

// sendMail runs the delivery and logs failures. A lost email never fails the
// request; the resend endpoint covers recovery.
func (s *Server) sendMail(r *http.Request, kind string, send func() error) {
	if err := send(); err != nil {
		s.logger.Printf("mail_failed kind=%s path=%s err=%v", kind, r.URL.Path, err)
	}
}
