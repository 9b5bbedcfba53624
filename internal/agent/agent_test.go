package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/braindump"
)

type echoReq struct {
	Text string `json:"text"`
}

type scripted struct {
	replies []*Message
	seen    [][]Message
}

func (s *scripted) ChatCompletion(ctx context.Context, msgs []Message, tools []Tool) (*Message, error) {
	s.seen = append(s.seen, append([]Message(nil), msgs...))
	if len(s.replies) == 0 {
		return nil, errors.New("no more replies")
	}
	m := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return m, nil
}

func toolCall(id, name, args string) *Message {
	tc := ToolCall{ID: id, Type: "function"}
	tc.Function.Name = name
	tc.Function.Arguments = args
	return &Message{Role: "assistant", ToolCalls: []ToolCall{tc}}
}

func echoRegistry() *Registry {
	r := NewRegistry()
	Register(r, Spec{
		Name:   "echo",
		Params: []Param{{Name: "text", Type: "string", Required: true}},
	}, func(ctx context.Context, req echoReq) (string, error) {
		if req.Text == "" {
			return "", errors.New("text is required")
		}
		return "echo: " + req.Text, nil
	})
	return r
}

func newMemory(t *testing.T) (*RedisMemory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisMemory(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestRegistry(t *testing.T) {
	r := echoRegistry()
	Register(r, Spec{Name: "count"}, func(ctx context.Context, _ none) (map[string]int, error) {
		return map[string]int{"n": 3}, nil
	})

	out, err := r.Call(context.Background(), "echo", json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)

	out, err = r.Call(context.Background(), "count", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":3}`, out)

	_, err = r.Call(context.Background(), "echo", json.RawMessage(`{"text":`))
	assert.ErrorContains(t, err, "invalid arguments")

	_, err = r.Call(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	assert.Equal(t, []string{"count", "echo"}, r.Names())

	var schema map[string]any
	require.NoError(t, json.Unmarshal(r.Tools()[1].Spec.Schema(), &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"text"}, schema["required"])
}

func TestChat_RunsToolsAndRemembers(t *testing.T) {
	model := &scripted{replies: []*Message{
		toolCall("c1", "echo", `{"text":"ping"}`),
		{Role: "assistant", Content: " Handled. "},
	}}
	mem, _ := newMemory(t)
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	a := New(model, echoRegistry(), WithMemory(mem), WithClock(func() time.Time { return now }))

	got, err := a.Chat(context.Background(), "c", "do it")
	require.NoError(t, err)
	assert.Equal(t, "Handled.", got)

	require.Len(t, model.seen, 2)
	first := model.seen[0]
	assert.Equal(t, "system", first[0].Role)
	assert.Contains(t, first[0].Content, "Monday, January 01, 2024")
	assert.Contains(t, first[0].Content, "09:30 AM")
	second := model.seen[1]
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "c1", last.ToolCallID)
	assert.Equal(t, "echo: ping", last.Content)

	history, err := mem.Load(context.Background(), "c")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, Message{Role: "user", Content: "do it"}, history[0])
	assert.Equal(t, Message{Role: "assistant", Content: "Handled."}, history[1])

	model.replies = []*Message{{Role: "assistant", Content: "Again."}}
	_, err = a.Chat(context.Background(), "c", "and again")
	require.NoError(t, err)
	again := model.seen[2]
	require.Len(t, again, 4)
	assert.Equal(t, "do it", again[1].Content)
}

func TestChat_ToolErrorsGoBackToModel(t *testing.T) {
	model := &scripted{replies: []*Message{
		toolCall("c1", "echo", `{}`),
		toolCall("c2", "nope", ``),
		{Role: "assistant", Content: "ok"},
	}}
	a := New(model, echoRegistry())
	_, err := a.Chat(context.Background(), "c", "x")
	require.NoError(t, err)

	msgs := model.seen[2]
	assert.Equal(t, "Error: unknown tool: nope", msgs[len(msgs)-1].Content)
	assert.Equal(t, "Error: text is required", msgs[len(msgs)-3].Content)
}

func TestChat_StepLimit(t *testing.T) {
	model := &scripted{replies: []*Message{toolCall("c", "echo", `{"text":"loop"}`)}}
	a := New(model, echoRegistry(), WithMaxSteps(3))
	got, err := a.Chat(context.Background(), "c", "x")
	require.NoError(t, err)
	assert.Equal(t, stepsMessage, got)
	assert.Len(t, model.seen, 3)
}

func TestChat_ModelError(t *testing.T) {
	a := New(&scripted{}, echoRegistry())
	_, err := a.Chat(context.Background(), "c", "x")
	assert.Error(t, err)
}

func TestMemory_TrimsAndExpires(t *testing.T) {
	mem, mr := newMemory(t)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		require.NoError(t, mem.Append(ctx, "c",
			Message{Role: "user", Content: fmt.Sprint("q", i)},
			Message{Role: "assistant", Content: fmt.Sprint("a", i)},
		))
	}
	history, err := mem.Load(ctx, "c")
	require.NoError(t, err)
	require.Len(t, history, MemoryMessages)
	assert.Equal(t, "q5", history[0].Content)
	assert.Equal(t, MemoryTTL, mr.TTL("donna:conversation:c"))

	require.NoError(t, mem.Clear(ctx, "c"))
	history, err = mem.Load(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRegisterTools_OnlyConfigured(t *testing.T) {
	r := NewRegistry()
	RegisterTools(r, Services{})
	assert.Zero(t, r.Len())

	dir := t.TempDir()
	RegisterTools(r, Services{Dumps: braindump.NewStore(dir, nil, time.UTC)})
	assert.Equal(t, []string{
		"create_brain_dump", "extract_action_items", "get_recent_brain_dumps", "search_brain_dumps",
	}, r.Names())

	out, err := r.Call(context.Background(), "create_brain_dump", json.RawMessage(`{"content":"Launch a podcast\nweekly"}`))
	require.NoError(t, err)
	assert.Contains(t, out, `"Launch a podcast"`)

	out, err = r.Call(context.Background(), "search_brain_dumps", json.RawMessage(`{"query":"podcast"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Launch a podcast")

	out, err = r.Call(context.Background(), "get_recent_brain_dumps", nil)
	require.NoError(t, err)
	path := strings.TrimSpace(out[strings.LastIndex(out, " "):])
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLLM_ChatCompletion(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" hello ","tool_calls":[{"id":"t1","type":"function","function":{"name":"echo","arguments":"{}"}}]}}]}`))
	}))
	defer srv.Close()

	l := NewLLM("key", "", WithBaseURL(srv.URL), WithHTTP(srv.Client()))
	m, err := l.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}}, echoRegistry().Tools())
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "echo", got.Tools[0].Function.Name)
	require.Len(t, m.ToolCalls, 1)
	assert.Equal(t, "echo", m.ToolCalls[0].Function.Name)

	text, err := l.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestLLM_Errors(t *testing.T) {
	_, err := NewLLM("", "").Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()
	_, err = NewLLM("k", "m", WithBaseURL(srv.URL)).Complete(context.Background(), "x")
	assert.ErrorContains(t, err, "status 429: slow down")
}
