package notifications

import "context"

// Message is a rendered outbound notification ready for dispatch.
type Message struct {
	UserRef       string `json:"userRef"`
	Email         string `json:"email"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	ReferenceCode string `json:"referenceCode"`
	OrderStatus   string `json:"orderStatus"`
}

// Sender dispatches rendered notifications. Delivery is best-effort
// everywhere it is used: failures are logged by the caller, never returned to
// the requester.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NoopSender stands in when notifications are disabled by configuration.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error { return nil }

var _ Sender = NoopSender{}
