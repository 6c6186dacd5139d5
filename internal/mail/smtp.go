package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers messages over SMTP with STARTTLS.
type SMTPMailer struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
	FrontendURL string
}

// SendVerification delivers the email-address confirmation link.
func (m *SMTPMailer) SendVerification(to, username, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(m.FrontendURL, "/"), token)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nConfirm your email address by opening the link below. The link is valid for 24 hours.\r\n\r\n%s\r\n",
		username, link,
	)
	return m.send(to, "Confirm your Damareen account", body)
}

// SendLoginConfirmation delivers the login confirmation link.
func (m *SMTPMailer) SendLoginConfirmation(to, username, token string) error {
	link := fmt.Sprintf("%s/verify-login?token=%s", strings.TrimRight(m.FrontendURL, "/"), token)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nConfirm your login by opening the link below. The link is valid for 24 hours.\r\n\r\n%s\r\n",
		username, link,
	)
	return m.send(to, "Confirm your Damareen login", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", m.SenderName, m.SenderEmail),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, m.SenderEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs messages instead of sending them. Used in development and
// whenever no SMTP host is configured.
type LogMailer struct {
	Logger *log.Logger
}

// SendVerification logs the verification token.
func (m *LogMailer) SendVerification(to, username, token string) error {
	m.Logger.Printf("mail_skipped kind=verification to=%s username=%s token=%s", to, username, token)
	return nil
}

// SendLoginConfirmation logs the login token.
func (m *LogMailer) SendLoginConfirmation(to, username, token string) error {
	m.Logger.Printf("mail_skipped kind=login_confirmation to=%s username=%s token=%s", to, username, token)
	return nil
}
