package webhook

import "time"

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithReplier replaces the LINE reply client, mainly for tests.
func WithReplier(r Replier) HandlerOption {
	return func(h *Handler) {
		h.replier = r
	}
}

// WithWebhookTimeout overrides the per-event processing timeout.
func WithWebhookTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.webhookTimeout = timeout
		}
	}
}
