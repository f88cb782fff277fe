package jobs

import (
	"fmt"
	"net/url"
	"strings"
)

// WelcomeEmail composes the payload for the signup greeting.
func WelcomeEmail(email, name string) SendEmailPayload {
	return SendEmailPayload{
		To:      email,
		Subject: "Welcome to Oreo",
		HTML:    fmt.Sprintf("<h1>Welcome to Oreo, %s</h1>", name),
	}
}

// RecoveryEmail composes the payload for a password recovery message. The
// token is embedded in a reset link under the deployment's base URL and
// appears nowhere else.
func RecoveryEmail(email, token, baseURL string) SendEmailPayload {
	link := strings.TrimRight(baseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	return SendEmailPayload{
		To:      email,
		Subject: "Password recovery",
		HTML: fmt.Sprintf(
			"<h1>Password recovery</h1><p>Follow <a href=%q>this link</a> to choose a new password. The link expires in 45 minutes.</p>",
			link),
	}
}
