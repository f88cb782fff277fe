package jobs

import "context"

// EmailNotifier schedules account emails through the job queue. It
// satisfies the account service's Notifier contract: enqueueing is
// fire-and-forget from the request's point of view, the returned error
// exists only to be logged.
type EmailNotifier struct {
	client  *Client
	baseURL string
}

// NewEmailNotifier constructs an EmailNotifier. baseURL is the public
// server address used in recovery links.
func NewEmailNotifier(client *Client, baseURL string) *EmailNotifier {
	return &EmailNotifier{client: client, baseURL: baseURL}
}

// SendWelcome enqueues the signup greeting.
func (n *EmailNotifier) SendWelcome(ctx context.Context, email, name string) error {
	_, err := n.client.EnqueueSendEmail(ctx, WelcomeEmail(email, name))
	return err
}

// SendPasswordRecovery enqueues the recovery email carrying the reset link.
func (n *EmailNotifier) SendPasswordRecovery(ctx context.Context, email, token string) error {
	_, err := n.client.EnqueueSendEmail(ctx, RecoveryEmail(email, token, n.baseURL))
	return err
}
