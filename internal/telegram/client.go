// Package telegram is a thin client for the Telegram Bot API: message
// sending with retry, document upload and long-poll updates.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const apiBase = "https://api.telegram.org"

// Client sends requests to the Telegram Bot API.
type Client struct {
	Token string
	HTTP  *http.Client

	// base is overridable for tests.
	base string
}

// NewClient creates a client with optional proxy support.
func NewClient(token, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		Token: token,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		base: apiBase,
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.base, c.Token, method)
}

// call posts a JSON payload to an API method and returns the raw
// result payload.
func (c *Client) call(method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := c.HTTP.Post(c.methodURL(method), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	return decodeResponse(method, resp)
}

func decodeResponse(method string, resp *http.Response) (json.RawMessage, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	var wrapper struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(respBody, &wrapper); err != nil {
		return nil, fmt.Errorf("%s decode: %w", method, err)
	}
	if !wrapper.OK {
		return nil, fmt.Errorf("telegram API error: %s", wrapper.Description)
	}
	return wrapper.Result, nil
}

// SendMessage sends an HTML-formatted message and returns its message
// ID for later edits.
func (c *Client) SendMessage(chatID int64, text string) (int, error) {
	result, err := c.call("sendMessage", map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return 0, err
	}
	var msg struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, fmt.Errorf("sendMessage decode result: %w", err)
	}
	return msg.MessageID, nil
}

// EditMessageText replaces the text of a previously sent message.
func (c *Client) EditMessageText(chatID int64, messageID int, text string) error {
	_, err := c.call("editMessageText", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	})
	return err
}

// DeleteMessage removes a message from the chat.
func (c *Client) DeleteMessage(chatID int64, messageID int) error {
	_, err := c.call("deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// SendDocument uploads a file from memory with an optional caption.
func (c *Client) SendDocument(chatID int64, filename string, document []byte, caption string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("chat_id", strconv.FormatInt(chatID, 10))
	if caption != "" {
		_ = w.WriteField("caption", caption)
	}
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(document); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	resp, err := c.HTTP.Post(c.methodURL("sendDocument"), w.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("sendDocument: %w", err)
	}
	defer resp.Body.Close()
	_, err = decodeResponse("sendDocument", resp)
	return err
}

// SendWithRetry sends a message with exponential backoff retry.
func (c *Client) SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if _, err := c.SendMessage(chatID, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
