// Package mail delivers account verification messages.
package mail

import (
	"crypto/rand"
	"encoding/base64"
)

// Mailer sends the two account verification messages. Sending failures are
// reported but the caller decides whether they are fatal.
type Mailer interface {
	// SendVerification delivers the email-address confirmation link.
	SendVerification(to, username, token string) error

	// SendLoginConfirmation delivers the login confirmation link.
	SendLoginConfirmation(to, username, token string) error
}

// NewToken returns a URL-safe random verification token.
func NewToken() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
