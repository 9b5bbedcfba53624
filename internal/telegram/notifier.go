package telegram

import (
	"context"
	"fmt"
	"strconv"
)

// Notifier pushes proactive messages to the owner's chat.
type Notifier struct {
	client *Client
	chatID int64
}

func NewNotifier(client *Client, chatID string) (*Notifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
	}
	return &Notifier{client: client, chatID: id}, nil
}

func (n *Notifier) ChatID() int64 { return n.chatID }

func (n *Notifier) Notify(ctx context.Context, text string) error {
	return n.client.SendMessage(ctx, n.chatID, text, true)
}

func (n *Notifier) NotifyVoice(ctx context.Context, audio []byte, caption string) error {
	return n.client.SendVoice(ctx, n.chatID, audio, "donna.mp3", caption)
}
