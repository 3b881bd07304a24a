package notifier

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"EquityLens/internal/logger"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// pollTimeout is the long-poll window requested from getUpdates.
const pollTimeout = 30

// pollOnce fetches one batch of updates, answers commands from the configured
// chat and returns the next offset. Messages from other chats are ignored.
func (t *TelegramNotifier) pollOnce(ctx context.Context, client *http.Client, offset int, handler CommandHandler) (int, error) {
	var updates []telegramUpdate
	payload := map[string]interface{}{
		"offset":          offset,
		"timeout":         pollTimeout,
		"allowed_updates": []string{"message"},
	}
	if err := t.call(ctx, client, "getUpdates", payload, &updates); err != nil {
		return offset, err
	}

	for _, update := range updates {
		offset = update.UpdateID + 1
		msg := update.Message
		if msg == nil || strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if strconv.FormatInt(msg.Chat.ID, 10) != t.ChatID {
			logger.WithField("chat", msg.Chat.ID).Warnf("ignoring command from unknown chat")
			continue
		}
		text := strings.TrimSpace(msg.Text)
		logger.Infof("received command: %s", text)
		if reply := handler(text); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				logger.Errorf("send reply: %v", err)
			}
		}
	}
	return offset, nil
}

// StartPolling long-polls for commands until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: (pollTimeout + 5) * time.Second, Transport: t.Client.Transport}

	for ctx.Err() == nil {
		next, err := t.pollOnce(ctx, client, offset, handler)
		if err == nil {
			offset = next
			continue
		}
		if ctx.Err() != nil {
			break
		}
		logger.Warnf("telegram polling: %v", err)
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
	}
	logger.Infof("telegram polling stopped")
}
