package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/whattoeat-linebot/internal/ctxutil"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/lineutil"
	"github.com/garyellow/whattoeat-linebot/internal/logger"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
	"github.com/garyellow/whattoeat-linebot/internal/modules/conversation"
	"github.com/garyellow/whattoeat-linebot/internal/modules/restaurant"
	"github.com/garyellow/whattoeat-linebot/internal/nlu"
	"github.com/garyellow/whattoeat-linebot/internal/sentry"
)

// ApologyText is sent when an upstream dependency fails.
const ApologyText = "系統暫時無法處理您的請求，請稍後再試"

// SystemSenderName labels apology replies so they stand apart from answers.
const SystemSenderName = "系統通知"

// maxQueryRunes bounds what is sent to the classifiers.
const maxQueryRunes = 256

// Processor handles the core logic of processing LINE message events.
type Processor struct {
	classifier  Classifier
	restaurants LocationHandler
	logger      *logger.Logger
	metrics     *metrics.Metrics
	handle      EventFunc
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Classifier  Classifier
	Restaurants LocationHandler
	Logger      *logger.Logger
	Metrics     *metrics.Metrics // Optional
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		classifier:  cfg.Classifier,
		restaurants: cfg.Restaurants,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
	p.handle = Chain(p.dispatch,
		LoggingMiddleware(cfg.Logger),
		RecoveryMiddleware(cfg.Logger),
	)
	return p
}

// ProcessMessage handles a message event. Text and location messages
// produce a reply; other types return nil, nil. On upstream failure the
// apology reply is returned together with the error.
func (p *Processor) ProcessMessage(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error) {
	ctx = ctxutil.WithUserID(ctx, GetUserID(event.Source))
	return p.handle(ctx, event)
}

func (p *Processor) dispatch(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error) {
	switch msg := event.Message.(type) {
	case webhook.TextMessageContent:
		return p.ProcessText(ctx, SessionID(event.Source), msg.Text)
	case webhook.LocationMessageContent:
		return p.ProcessLocation(ctx, msg.Latitude, msg.Longitude)
	default:
		p.logger.WithField("message_type", messageType(event)).
			DebugContext(ctx, "Ignoring unsupported message type")
		return nil, nil
	}
}

// ProcessText classifies text and replies with the matching canned
// messages. Blank text is ignored.
func (p *Processor) ProcessText(ctx context.Context, sessionID, text string) ([]messaging_api.MessageInterface, error) {
	lang := nlu.DetectLanguage(text)
	ctx = ctxutil.WithLang(ctx, string(lang))

	query := strings.TrimSpace(text)
	if query == "" {
		return nil, nil
	}
	if runes := []rune(query); len(runes) > maxQueryRunes {
		query = string(runes[:maxQueryRunes])
	}

	start := time.Now()
	result, err := p.classifier.Classify(ctx, nlu.Query{
		Text:      query,
		SessionID: sessionID,
		Lang:      lang,
	})
	if err != nil {
		return p.failure(ctx, conversation.ModuleName, err)
	}

	intent := conversation.ParseIntent(result.Name)
	p.logger.WithField("intent", intent.String()).
		WithField("intent_name", result.Name).
		WithField("provider", string(result.Provider)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		DebugContext(ctx, "Intent classified")

	return conversation.Messages(intent), nil
}

// ProcessLocation replies with restaurants near (lat, lng).
func (p *Processor) ProcessLocation(ctx context.Context, lat, lng float64) ([]messaging_api.MessageInterface, error) {
	msgs, err := p.restaurants.HandleLocation(ctx, lat, lng)
	if err != nil {
		return p.failure(ctx, restaurant.ModuleName, err)
	}
	return msgs, nil
}

// failure logs err, reports it to Sentry and builds the apology reply.
func (p *Processor) failure(ctx context.Context, module string, err error) ([]messaging_api.MessageInterface, error) {
	p.logger.WithModule(module).WithError(err).ErrorContext(ctx, "Upstream request failed")
	sentry.CaptureExceptionWithContext(ctx, module, err)
	if p.metrics != nil {
		p.metrics.RecordHTTPError(errorType(err), module)
	}
	return []messaging_api.MessageInterface{
		lineutil.ErrorMessageWithSender(domerrors.UserMessage(err, ApologyText), lineutil.NewSender(SystemSenderName, "")),
	}, err
}

func errorType(err error) string {
	switch code := domerrors.StatusCode(err); {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case code >= 500:
		return "upstream_5xx"
	case code >= 400:
		return "upstream_4xx"
	default:
		return "upstream"
	}
}
