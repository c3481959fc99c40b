package bot

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// GetChatID extracts the chat ID from a LINE source: the user ID for
// personal chats, the group or room ID otherwise.
func GetChatID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	}
	return ""
}

// GetUserID extracts the user ID from a LINE source. Group and room
// sources only carry it when the user has consented.
func GetUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}

// SessionID picks the NLU session for a source: the user, else the chat.
func SessionID(source webhook.SourceInterface) string {
	if id := GetUserID(source); id != "" {
		return id
	}
	if id := GetChatID(source); id != "" {
		return id
	}
	return "anonymous"
}
