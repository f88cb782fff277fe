package jobs

import "testing"

// NewMailerForTest builds a Mailer with the SMTP transport substituted.
func NewMailerForTest(t *testing.T, send func(addr, from string, to []string, msg []byte) error) *Mailer {
	t.Helper()
	m := NewMailer("127.0.0.1", 1025, "no-reply@oreo.local", nil)
	m.send = send
	return m
}
