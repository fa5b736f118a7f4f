package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Update is one incoming message, reduced to what the dispatcher needs.
type Update struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

// Handler processes one incoming update.
type Handler func(ctx context.Context, u Update)

// wireUpdate mirrors the getUpdates payload.
type wireUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		MessageID int `json:"message_id"`
		From      *struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling long-polls for updates and dispatches each text message
// to the handler. Handlers run in their own goroutines because an
// evaluation can take many seconds and must not stall other users.
// Blocks until ctx is cancelled.
func (c *Client) StartPolling(ctx context.Context, handler Handler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: c.HTTP.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", c.methodURL("getUpdates"), offset)
		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			log.Printf("[ERROR] create polling request: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[WARN] read polling response: %v", err)
			continue
		}

		var result struct {
			OK     bool         `json:"ok"`
			Result []wireUpdate `json:"result"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			log.Printf("[WARN] decode polling response: %v", err)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			msg := update.Message
			if msg == nil || msg.Text == "" || msg.From == nil {
				continue
			}
			u := Update{
				ChatID:   msg.Chat.ID,
				UserID:   msg.From.ID,
				Username: msg.From.Username,
				Text:     strings.TrimSpace(msg.Text),
			}
			log.Printf("[INFO] Message from %d (@%s): %s", u.UserID, u.Username, u.Text)
			go handler(ctx, u)
		}
	}
}
