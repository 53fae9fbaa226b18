// Package telegram implements the Bot API transport client.
// Only the calls this service needs are wrapped; every outbound call goes
// through a shared rate limiter so bursts of notifications stay inside the
// Bot API per-second ceiling.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"cvbot_backend/platform/apperr"
	"cvbot_backend/platform/config"
	"cvbot_backend/platform/logger"

	"golang.org/x/time/rate"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewClient(cfg config.TelegramConfig, log *logger.Logger) *Client {
	pollTimeout := cfg.GetPollTimeout()
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetTelegramBaseURL(), "/"),
		token:   cfg.GetBotToken(),
		// The HTTP timeout must exceed the long-poll timeout.
		http:    &http.Client{Timeout: pollTimeout + 15*time.Second},
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		log:     log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Transport(method+" request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return decodeAPIResponse(method, resp.Body, out)
}

func decodeAPIResponse(method string, body io.Reader, out any) error {
	var envelope apiResponse
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return apperr.Transport(method+" returned malformed response", err)
	}
	if !envelope.OK {
		return apperr.Transport(fmt.Sprintf("%s returned %d: %s", method, envelope.ErrorCode, envelope.Description), nil)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return apperr.Transport(method+" returned unexpected result", err)
		}
	}
	return nil
}

// SendMessage sends a text message, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) (*Message, error) {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text and keyboard of a previously sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

// EditMessageCaption rewrites the caption of a media message and drops its keyboard.
func (c *Client) EditMessageCaption(ctx context.Context, chatID, messageID int64, caption string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"caption":    caption,
	}
	return c.call(ctx, "editMessageCaption", payload, nil)
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	return c.call(ctx, "deleteMessage", payload, nil)
}

// SendPhoto forwards a photo by its stored file id.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, keyboard *InlineKeyboardMarkup) (*Message, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   fileID,
	}
	if caption != "" {
		payload["caption"] = caption
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}

	var msg Message
	if err := c.call(ctx, "sendPhoto", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendDocument forwards a document by its stored file id.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID, caption string, keyboard *InlineKeyboardMarkup) (*Message, error) {
	payload := map[string]any{
		"chat_id":  chatID,
		"document": fileID,
	}
	if caption != "" {
		payload["caption"] = caption
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}

	var msg Message
	if err := c.call(ctx, "sendDocument", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendVideo forwards a video by its stored file id.
func (c *Client) SendVideo(ctx context.Context, chatID int64, fileID, caption string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"video":   fileID,
	}
	if caption != "" {
		payload["caption"] = caption
	}
	return c.call(ctx, "sendVideo", payload, nil)
}

// SendPhotoBytes uploads raw image bytes (used for generated QR codes).
func (c *Client) SendPhotoBytes(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("photo", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Transport("sendPhoto upload failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return decodeAPIResponse("sendPhoto", resp.Body, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops spinning.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackID}, nil)
}

// GetChat resolves a chat by numeric id or @username reference.
func (c *Client) GetChat(ctx context.Context, ref string) (*Chat, error) {
	var chat Chat
	if err := c.call(ctx, "getChat", map[string]any{"chat_id": ref}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChatAdministrators lists the privileged members of a channel.
func (c *Client) GetChatAdministrators(ctx context.Context, chatID int64) ([]ChatMember, error) {
	var members []ChatMember
	if err := c.call(ctx, "getChatAdministrators", map[string]any{"chat_id": chatID}, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetChatMember looks up a single member of a channel.
func (c *Client) GetChatMember(ctx context.Context, chatID int64, userRef string) (*ChatMember, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"user_id": userRef,
	}
	var member ChatMember
	if err := c.call(ctx, "getChatMember", payload, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// GetUpdates long-polls for updates past the given offset and returns the
// updates together with the next offset to poll from.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	payload := map[string]any{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
		"allowed_updates": []string{
			"message", "edited_message", "channel_post", "callback_query",
		},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, offset, err
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

// File is the Bot API file descriptor returned by getFile.
type File struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DownloadFile fetches the raw bytes behind a file path from GetFile.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Transport("file download failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transport(fmt.Sprintf("file download returned %d", resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}
