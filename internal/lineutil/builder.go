// Package lineutil provides utility functions for building LINE messages and actions.
package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// CarouselColumn represents a column in a carousel template.
type CarouselColumn struct {
	ThumbnailImageURL string
	Title             string
	Text              string
	Actions           []Action
}

// NewTextMessage creates a simple text message.
// LINE API limits: max 5000 characters per text message
func NewTextMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{
		Text: TruncateRunes(text, MaxTextMessageLength),
	}
}

// NewCarouselTemplate creates a carousel template message with multiple columns.
// The altText is displayed in push notifications and chat lists.
// LINE API limits: max 10 columns, each with max 3 actions. Every column
// must carry the same number of actions, which callers guarantee.
func NewCarouselTemplate(altText string, columns []CarouselColumn) *messaging_api.TemplateMessage {
	if len(columns) > MaxCarouselColumnCount {
		columns = columns[:MaxCarouselColumnCount]
	}

	templateColumns := make([]messaging_api.CarouselColumn, len(columns))
	for i, col := range columns {
		actions := col.Actions
		if len(actions) > MaxCarouselActionCount {
			actions = actions[:MaxCarouselActionCount]
		}
		templateColumns[i] = messaging_api.CarouselColumn{
			ThumbnailImageUrl: col.ThumbnailImageURL,
			Title:             TruncateRunes(col.Title, MaxTemplateTitleLength),
			Text:              TruncateRunes(col.Text, templateTextLimit(col.ThumbnailImageURL, col.Title)),
			Actions:           actions,
		}
	}

	return &messaging_api.TemplateMessage{
		AltText: TruncateRunes(altText, MaxAltTextLength),
		Template: &messaging_api.CarouselTemplate{
			Columns: templateColumns,
		},
	}
}

// NewButtonsTemplate creates a buttons template message without an image.
func NewButtonsTemplate(altText, title, text string, actions []Action) *messaging_api.TemplateMessage {
	return NewButtonsTemplateWithImage(altText, title, text, "", actions)
}

// NewButtonsTemplateWithImage creates a buttons template message with an optional thumbnail image.
// LINE API limits: max 4 actions, text max 60 chars (with image or title) or 160 chars
func NewButtonsTemplateWithImage(altText, title, text, thumbnailImageURL string, actions []Action) *messaging_api.TemplateMessage {
	if len(actions) > MaxTemplateActionCount {
		actions = actions[:MaxTemplateActionCount]
	}

	return &messaging_api.TemplateMessage{
		AltText: TruncateRunes(altText, MaxAltTextLength),
		Template: &messaging_api.ButtonsTemplate{
			ThumbnailImageUrl: thumbnailImageURL,
			Title:             TruncateRunes(title, MaxTemplateTitleLength),
			Text:              TruncateRunes(text, templateTextLimit(thumbnailImageURL, title)),
			Actions:           actions,
		},
	}
}

// NewURIAction creates a URI action that opens a URL when clicked.
// The URI is not shortened; callers keep it within MaxURILength.
func NewURIAction(label, uri string) Action {
	return &messaging_api.UriAction{
		Label: TruncateRunes(label, MaxActionLabelLength),
		Uri:   uri,
	}
}

// SetSender sets the Sender field on a message.
// Returns the same message for method chaining.
func SetSender(msg messaging_api.MessageInterface, sender *messaging_api.Sender) messaging_api.MessageInterface {
	if sender == nil {
		return msg
	}

	switch m := msg.(type) {
	case *messaging_api.TextMessage:
		m.Sender = sender
	case *messaging_api.TemplateMessage:
		m.Sender = sender
	}

	return msg
}

// TruncateRunes shortens text to at most maxRunes runes, ending with "..."
// when something was cut.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

func templateTextLimit(thumbnailImageURL, title string) int {
	if thumbnailImageURL != "" || title != "" {
		return MaxTemplateTextWithImage
	}
	return MaxTemplateTextNoImage
}

// MessageKind classifies a reply for metrics: text, buttons, carousel or other.
func MessageKind(msg messaging_api.MessageInterface) string {
	switch m := msg.(type) {
	case *messaging_api.TextMessage:
		return "text"
	case *messaging_api.TemplateMessage:
		switch m.Template.(type) {
		case *messaging_api.ButtonsTemplate:
			return "buttons"
		case *messaging_api.CarouselTemplate:
			return "carousel"
		}
	}
	return "other"
}
