package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
)

const (
	pollTimeout    = 30 * time.Second
	pollRetryDelay = 5 * time.Second
)

// CommandHandler answers one chat command. An empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

type chatMessage struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

type update struct {
	ID      int          `json:"update_id"`
	Message *chatMessage `json:"message"`
}

type updatesResponse struct {
	apiResponse
	Result []update `json:"result"`
}

// PollOnce fetches pending updates starting at offset, dispatches their
// commands and returns the next offset.
func (t *TelegramNotifier) PollOnce(ctx context.Context, client *http.Client, offset int, timeout time.Duration, handler CommandHandler) (int, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	q.Set("allowed_updates", `["message"]`)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return offset, fmt.Errorf("build getUpdates request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return offset, fmt.Errorf("getUpdates: %w", err)
	}
	defer resp.Body.Close()

	var ur updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return offset, fmt.Errorf("decode getUpdates (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !ur.OK {
		return offset, &APIError{
			Code:        resp.StatusCode,
			Description: ur.Description,
			RetryAfter:  time.Duration(ur.Parameters.RetryAfter) * time.Second,
		}
	}

	log := logger.Named("telegram")
	for _, u := range ur.Result {
		offset = u.ID + 1
		if u.Message == nil {
			continue
		}
		command := strings.TrimSpace(u.Message.Text)
		if command == "" {
			continue
		}
		if !t.ownChat(u.Message.Chat.ID) {
			log.Warn("Ignoring command from foreign chat", zap.Int64("chat_id", u.Message.Chat.ID))
			continue
		}
		log.Info("Received command", zap.String("command", command))
		reply := handler(ctx, command)
		if reply == "" {
			continue
		}
		if err := t.Send(ctx, reply); err != nil {
			log.Error("Failed to send reply", zap.String("command", command), zap.Error(err))
		}
	}
	return offset, nil
}

func (t *TelegramNotifier) ownChat(id int64) bool {
	return t.ChatID == "" || strconv.FormatInt(id, 10) == t.ChatID
}

// StartPolling long-polls for chat commands until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: pollTimeout + 5*time.Second, Transport: t.Client.Transport}
	log := logger.Named("telegram")
	log.Info("Telegram polling started")

	offset := 0
	for ctx.Err() == nil {
		next, err := t.PollOnce(ctx, client, offset, pollTimeout, handler)
		offset = next
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		wait := pollRetryDelay
		if apiErr, ok := err.(*APIError); ok && apiErr.RetryAfter > wait {
			wait = apiErr.RetryAfter
		}
		log.Warn("Polling failed", zap.Duration("retry_in", wait), zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
	log.Info("Telegram polling stopped")
}
