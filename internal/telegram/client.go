package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	// MaxMessageLen is the Bot API limit for one text message.
	MaxMessageLen = 4096
)

var ErrNotConfigured = errors.New("telegram not configured")

type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Voice struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
	Voice     *Voice `json:"voice,omitempty"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// APIError is a non-ok Bot API reply.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Client is a small Bot API client. Sends share one limiter; long polls do not.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
	limiter *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }
func WithHTTP(d HTTPDoer) Option  { return func(c *Client) { c.http = d } }

func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 70 * time.Second},
		// one message per second to a single chat
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Configured() bool { return c != nil && c.token != "" }

func (c *Client) call(ctx context.Context, method, contentType string, body io.Reader, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/"+method, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		// the URL carries the token, so only the method is reported
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("telegram %s: decode: %w", method, err)
	}
	if !env.OK {
		return &APIError{Code: env.ErrorCode, Description: env.Description}
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram %s: result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) callJSON(ctx context.Context, method string, params any, out any) error {
	b, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return c.call(ctx, method, "application/json", bytes.NewReader(b), out)
}

// GetUpdates long-polls for new updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	var out []Update
	if err := c.callJSON(ctx, "getUpdates", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage sends text, split into chunks under the API limit. Markdown
// replies that Telegram cannot parse are resent as plain text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markdown bool) error {
	for _, chunk := range Split(text, MaxMessageLen) {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		params := map[string]any{"chat_id": chatID, "text": chunk}
		if markdown {
			params["parse_mode"] = "Markdown"
		}
		err := c.callJSON(ctx, "sendMessage", params, nil)
		var apiErr *APIError
		if markdown && errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			delete(params, "parse_mode")
			err = c.callJSON(ctx, "sendMessage", params, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SendVoice uploads MP3 audio as a voice message.
func (c *Client) SendVoice(ctx context.Context, chatID int64, audio []byte, filename, caption string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("chat_id", strconv.FormatInt(chatID, 10))
	if caption != "" {
		_ = mw.WriteField("caption", caption)
	}
	fw, err := mw.CreateFormFile("voice", filename)
	if err != nil {
		return err
	}
	if _, err := fw.Write(audio); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.call(ctx, "sendVoice", mw.FormDataContentType(), &buf, nil)
}

// Download fetches a file the bot received, such as a voice message.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	var f struct {
		FilePath string `json:"file_path"`
	}
	if err := c.callJSON(ctx, "getFile", map[string]string{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/file/bot"+c.token+"/"+f.FilePath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New("telegram download failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram download: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Split breaks text into pieces of at most n bytes, preferring line breaks.
func Split(text string, n int) []string {
	if len(text) <= n {
		return []string{text}
	}
	var out []string
	for len(text) > n {
		cut := strings.LastIndex(text[:n], "\n")
		if cut <= 0 {
			cut = n
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
