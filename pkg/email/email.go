package email

import (
	"fmt"
	"net/smtp"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain text email through one SMTP server.
type Mailer struct {
	host     string
	port     string
	sender   string
	password string
	send     sendFunc
}

func NewMailer(host, port, sender, password string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		sender:   sender,
		password: password,
		send:     smtp.SendMail,
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != ""
}

// Send sends a plain text email using SMTP.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("failed to send email: no SMTP host configured")
	}

	auth := smtp.PlainAuth("", m.sender, m.password, m.host)

	msg := []byte("From: " + m.sender + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")

	address := m.host + ":" + m.port

	if err := m.send(address, auth, m.sender, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
