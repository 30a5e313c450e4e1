package room

import (
	"context"
	"strings"
	"time"
)

const maxChatLength = 280

// appendChat adds msg and keeps only the newest limit entries.
func appendChat(room *Room, msg ChatMessage, limit int) {
	room.Chat = append(room.Chat, msg)
	if limit > 0 && len(room.Chat) > limit {
		room.Chat = append([]ChatMessage(nil), room.Chat[len(room.Chat)-limit:]...)
	}
}

// AppendChat writes one chat line to the room. Chat is a side channel:
// callers log failures and carry on.
func AppendChat(ctx context.Context, repo Repository, roomID, sender, text, kind string, at time.Time, limit int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) > maxChatLength {
		text = text[:maxChatLength]
	}
	if kind != ChatServer {
		kind = ChatUser
	}
	_, err := repo.Update(ctx, roomID, func(room *Room) error {
		appendChat(room, ChatMessage{Sender: sender, Text: text, Kind: kind, Timestamp: at}, limit)
		return nil
	})
	return err
}

// ChatSince filters to messages at or after t.
func ChatSince(room *Room, t time.Time) []ChatMessage {
	out := make([]ChatMessage, 0, len(room.Chat))
	for _, msg := range room.Chat {
		if msg.Timestamp.Before(t) {
			continue
		}
		out = append(out, msg)
	}
	return out
}
