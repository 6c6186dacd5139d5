package api

import "regexp"

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// validUsername enforces 3-80 characters of letters, digits or underscores.
func validUsername(username string) bool {
	if len(username) < 3 || len(username) > 80 {
		return false
	}
	return usernameRe.MatchString(username)
}

// validEmail checks the email shape. Deliverability is proven by the
// verification flow, not here.
func validEmail(email string) bool {
	return emailRe.MatchString(email)
}
