// Package bot routes LINE message events: text goes through intent
// classification to the conversation module, locations go to the
// restaurant finder.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/whattoeat-linebot/internal/nlu"
)

// Classifier maps user text to an intent name. *nlu.FallbackClassifier
// implements it.
type Classifier interface {
	Classify(ctx context.Context, q nlu.Query) (*nlu.Result, error)
}

// LocationHandler answers a shared location. *restaurant.Handler
// implements it.
type LocationHandler interface {
	HandleLocation(ctx context.Context, lat, lng float64) ([]messaging_api.MessageInterface, error)
}

// EventFunc processes one message event. A non-nil error may come with
// messages (the apology reply), which should still be sent.
type EventFunc func(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error)

// Middleware wraps an EventFunc.
type Middleware func(next EventFunc) EventFunc

// Chain applies middlewares so the first one listed runs outermost.
func Chain(fn EventFunc, middlewares ...Middleware) EventFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		fn = middlewares[i](fn)
	}
	return fn
}
