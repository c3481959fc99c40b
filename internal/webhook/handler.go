// Package webhook receives LINE webhook callbacks, verifies their signature
// and replies to each message event with what the bot processor produced.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/whattoeat-linebot/internal/config"
	"github.com/garyellow/whattoeat-linebot/internal/ctxutil"
	"github.com/garyellow/whattoeat-linebot/internal/lineutil"
	"github.com/garyellow/whattoeat-linebot/internal/logger"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
)

// maxBodyBytes bounds the callback body read for logging and parsing.
const maxBodyBytes = 1 << 20

// Replier sends a reply. *messaging_api.MessagingApiAPI implements it.
type Replier interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// MessageProcessor turns a message event into reply messages.
// *bot.Processor implements it.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error)
}

// Handler handles LINE webhook events
type Handler struct {
	channelSecret string
	replier       Replier
	processor     MessageProcessor
	metrics       *metrics.Metrics
	logger        *logger.Logger
	wg            sync.WaitGroup // Tracks async event processing

	webhookTimeout      time.Duration
	maxMessagesPerReply int
	maxEventsPerWebhook int
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string // Used to build the reply client unless WithReplier is given
	BotConfig     *config.BotConfig
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Processor     MessageProcessor
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig, opts ...HandlerOption) (*Handler, error) {
	h := &Handler{
		channelSecret:       cfg.ChannelSecret,
		processor:           cfg.Processor,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger.WithModule("webhook"),
		webhookTimeout:      cfg.BotConfig.WebhookTimeout,
		maxMessagesPerReply: cfg.BotConfig.MaxMessagesPerReply,
		maxEventsPerWebhook: cfg.BotConfig.MaxEventsPerWebhook,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.replier == nil {
		client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
		if err != nil {
			return nil, fmt.Errorf("create messaging API client: %w", err)
		}
		h.replier = client
	}

	return h, nil
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	// 1. Read and log the raw body, then restore it for signature checking
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.logger.WithError(err).Error("Failed to read webhook body")
		c.Status(http.StatusInternalServerError)
		return
	}
	h.logger.WithField("body", string(body)).DebugContext(c.Request.Context(), "Webhook received")
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	// 2. Verify signature and parse
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// 3. Acknowledge immediately
	c.String(http.StatusOK, "OK")

	events := cb.Events
	if len(events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		events = events[:h.maxEventsPerWebhook]
	}
	if len(events) == 0 {
		return
	}

	// 4. Process events one after another, detached from the request
	baseCtx := ctxutil.PreserveTracing(c.Request.Context())
	batch := make([]webhook.EventInterface, len(events))
	copy(batch, events)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()
		for _, event := range batch {
			h.processEvent(baseCtx, event)
		}
	})
}

// processEvent handles a single webhook event.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	e, ok := event.(webhook.MessageEvent)
	if !ok {
		h.logger.WithField("event_type", fmt.Sprintf("%T", event)).Debug("Unsupported event type")
		return
	}

	start := time.Now()
	requestID := e.WebhookEventId
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = ctxutil.WithRequestID(ctx, requestID)
	ctx = ctxutil.WithEventID(ctx, e.WebhookEventId)

	log := h.logger.WithRequestID(requestID)
	if e.DeliveryContext != nil && e.DeliveryContext.IsRedelivery {
		log = log.WithField("is_redelivery", true)
	}

	ctx, cancel := context.WithTimeout(ctx, h.webhookTimeout)
	defer cancel()

	eventType := "unknown"
	if e.Message != nil {
		eventType = e.Message.GetType()
	}

	messages, err := h.processor.ProcessMessage(ctx, e)
	status := "success"
	if err != nil {
		status = "error"
	}
	if h.metrics != nil {
		h.metrics.RecordWebhook(eventType, status, time.Since(start).Seconds())
	}

	if len(messages) > 0 {
		h.reply(ctx, log, e.ReplyToken, messages)
	}

	log.WithField("event_type", eventType).
		WithField("status", status).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		InfoContext(ctx, "Event processed")
}

// reply sends messages with a single ReplyMessage call. Failures are
// logged and counted, never retried: reply tokens are single-use.
func (h *Handler) reply(ctx context.Context, log *logger.Logger, replyToken string, messages []messaging_api.MessageInterface) {
	if replyToken == "" {
		log.Debug("Empty reply token, skipping reply")
		return
	}
	if len(messages) > h.maxMessagesPerReply {
		log.WithField("message_count", len(messages)).
			WithField("limit", h.maxMessagesPerReply).
			Warn("Message count exceeds limit; truncating")
		messages = messages[:h.maxMessagesPerReply]
	}

	_, err := h.replier.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})

	status := "success"
	if err != nil {
		status = "error"
		if strings.Contains(err.Error(), "Invalid reply token") {
			log.WithError(err).DebugContext(ctx, "Reply token already used or expired")
		} else {
			log.WithError(err).ErrorContext(ctx, "Failed to send reply")
		}
	}
	if h.metrics != nil {
		for _, msg := range messages {
			h.metrics.RecordReply(lineutil.MessageKind(msg), status)
		}
	}
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
