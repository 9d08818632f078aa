package service

import "context"

// EmailSender is the outbound email capability consumed by the auth
// service. Delivery failures propagate to the caller; this layer attempts
// no retries.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
