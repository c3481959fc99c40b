// Package conversation turns a classified intent into canned replies:
// a greeting, a farewell, the "send me your location" card or a fallback.
package conversation

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/whattoeat-linebot/internal/lineutil"
	"github.com/garyellow/whattoeat-linebot/internal/nlu"
)

// ModuleName identifies the module in logs and metrics.
const ModuleName = "conversation"

// Intent is the closed set of intents the bot acts on.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentWhatToEat
	IntentWelcome
	IntentGoodbye
)

func (i Intent) String() string {
	switch i {
	case IntentWhatToEat:
		return "what_to_eat"
	case IntentWelcome:
		return "welcome"
	case IntentGoodbye:
		return "goodbye"
	default:
		return "unknown"
	}
}

// ParseIntent maps an intent name to an Intent. Matching is exact and
// case-sensitive: "Goodbye" is IntentUnknown.
func ParseIntent(name string) Intent {
	switch name {
	case nlu.IntentNameWhatToEat:
		return IntentWhatToEat
	case nlu.IntentNameWelcome:
		return IntentWelcome
	case nlu.IntentNameGoodbye:
		return IntentGoodbye
	default:
		return IntentUnknown
	}
}

// Reply texts and the location request card.
const (
	WelcomeText  = "肚子餓了嗎?你想吃什麼"
	GoodbyeText  = "下次要再問我唷~"
	FallbackText = "我聽不懂QAQ"

	LocationCardThumbnail = "https://img.88tph.com/production/20180121/12476547-1.jpg!/watermark/url/L3BhdGgvbG9nby5wbmc/align/center"
	LocationCardTitle     = "你現在在哪?"
	LocationCardText      = "傳送位置給我吧"
	LocationActionLabel   = "告訴我你的位置"
	LocationActionURI     = "line://nv/location"
)

// LocationRequestCard builds the buttons card that opens LINE's location
// picker.
func LocationRequestCard() *messaging_api.TemplateMessage {
	return lineutil.NewButtonsTemplateWithImage(
		LocationCardTitle,
		LocationCardTitle,
		LocationCardText,
		LocationCardThumbnail,
		[]lineutil.Action{
			lineutil.NewURIAction(LocationActionLabel, LocationActionURI),
		},
	)
}

// Messages returns the reply for intent. It never returns an empty slice.
func Messages(intent Intent) []messaging_api.MessageInterface {
	switch intent {
	case IntentWhatToEat:
		return []messaging_api.MessageInterface{LocationRequestCard()}
	case IntentWelcome:
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessage(WelcomeText),
			LocationRequestCard(),
		}
	case IntentGoodbye:
		return []messaging_api.MessageInterface{lineutil.NewTextMessage(GoodbyeText)}
	case IntentUnknown:
		return []messaging_api.MessageInterface{lineutil.NewTextMessage(FallbackText)}
	default:
		return []messaging_api.MessageInterface{lineutil.NewTextMessage(FallbackText)}
	}
}

// Reply is Messages(ParseIntent(name)).
func Reply(name string) []messaging_api.MessageInterface {
	return Messages(ParseIntent(name))
}
