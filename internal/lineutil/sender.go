package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// NewSender creates a sender so every message in one reply shows the same
// name and avatar. An empty iconURL keeps the channel's own icon.
func NewSender(name, iconURL string) *messaging_api.Sender {
	return &messaging_api.Sender{
		Name:    TruncateRunes(name, 20),
		IconUrl: iconURL,
	}
}

// ErrorMessageWithSender creates a user-friendly error message.
func ErrorMessageWithSender(userMessage string, sender *messaging_api.Sender) messaging_api.MessageInterface {
	return SetSender(NewTextMessage(userMessage), sender)
}
