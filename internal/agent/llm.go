package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
)

var ErrNotConfigured = errors.New("llm not configured")

// HTTPDoer defines the HTTP operations required by LLM.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type toolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

func definitions(tools []Tool) []toolDef {
	out := make([]toolDef, len(tools))
	for i, t := range tools {
		out[i].Type = "function"
		out[i].Function.Name = t.Spec.Name
		out[i].Function.Description = t.Spec.Description
		out[i].Function.Parameters = t.Spec.Schema()
	}
	return out
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []toolDef `json:"tools,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// LLM is an OpenAI chat-completions client with function calling.
type LLM struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	http        HTTPDoer
}

type LLMOption func(*LLM)

func WithBaseURL(u string) LLMOption { return func(l *LLM) { l.baseURL = strings.TrimRight(u, "/") } }
func WithHTTP(d HTTPDoer) LLMOption  { return func(l *LLM) { l.http = d } }

func NewLLM(apiKey, model string, opts ...LLMOption) *LLM {
	if model == "" {
		model = DefaultModel
	}
	l := &LLM{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: 0.7,
		http:        &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LLM) Configured() bool { return l != nil && l.apiKey != "" }

// ChatCompletion runs one model turn and returns the assistant message.
func (l *LLM) ChatCompletion(ctx context.Context, msgs []Message, tools []Tool) (*Message, error) {
	if !l.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(chatRequest{
		Model:       l.model,
		Messages:    msgs,
		Tools:       definitions(tools),
		Temperature: l.temperature,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai read: %w", err)
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("openai: status %d: decode: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if out.Error != nil {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, msg)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("openai: no choices returned")
	}
	return &out.Choices[0].Message, nil
}

// Complete answers a single prompt without tools.
func (l *LLM) Complete(ctx context.Context, prompt string) (string, error) {
	m, err := l.ChatCompletion(ctx, []Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(m.Content), nil
}
