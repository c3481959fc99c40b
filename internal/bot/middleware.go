package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/whattoeat-linebot/internal/lineutil"
	"github.com/garyellow/whattoeat-linebot/internal/logger"
	"github.com/garyellow/whattoeat-linebot/internal/sentry"
)

// LoggingMiddleware logs event handling with timing and result info.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next EventFunc) EventFunc {
		return func(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error) {
			start := time.Now()
			msgType := messageType(event)

			log.WithField("message_type", msgType).DebugContext(ctx, "Event handling started")

			msgs, err := next(ctx, event)

			entry := log.WithField("message_type", msgType).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				WithField("msg_count", len(msgs))
			if err != nil {
				entry.WithError(err).WarnContext(ctx, "Event handling failed")
			} else {
				entry.DebugContext(ctx, "Event handling completed")
			}
			return msgs, err
		}
	}
}

// RecoveryMiddleware turns a panic into an apology reply and an error, and
// reports it to Sentry.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next EventFunc) EventFunc {
		return func(ctx context.Context, event webhook.MessageEvent) (msgs []messaging_api.MessageInterface, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic while handling %s message: %v", messageType(event), r)
					log.WithField("panic", r).
						WithField("stack", string(debug.Stack())).
						ErrorContext(ctx, "Event handler panicked")
					sentry.CaptureExceptionWithContext(ctx, "bot", err)
					msgs = []messaging_api.MessageInterface{lineutil.ErrorMessageWithSender(ApologyText, lineutil.NewSender(SystemSenderName, ""))}
				}
			}()
			return next(ctx, event)
		}
	}
}

func messageType(event webhook.MessageEvent) string {
	if event.Message == nil {
		return "unknown"
	}
	return event.Message.GetType()
}
