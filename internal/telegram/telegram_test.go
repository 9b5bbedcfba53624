package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/GoSim-25-26J-441/donna-backend/internal/braindump"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/prd"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	taskdomain "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/domain"
)

const owner = int64(42)

type sent struct {
	Method    string
	ChatID    int64
	Text      string
	ParseMode string
	Caption   string
	Audio     string
}

type fakeAPI struct {
	mu           sync.Mutex
	sent         []sent
	rejectMarkup bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		var p struct {
			ChatID    int64  `json:"chat_id"`
			Text      string `json:"text"`
			ParseMode string `json:"parse_mode"`
		}
		_ = json.NewDecoder(r.Body).Decode(&p)
		if f.rejectMarkup && p.ParseMode != "" {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"can't parse entities"}`))
			return
		}
		f.sent = append(f.sent, sent{Method: "sendMessage", ChatID: p.ChatID, Text: p.Text, ParseMode: p.ParseMode})
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	case strings.HasSuffix(r.URL.Path, "/sendVoice"):
		_ = r.ParseMultipartForm(1 << 20)
		file, _, _ := r.FormFile("voice")
		audio, _ := io.ReadAll(file)
		f.sent = append(f.sent, sent{Method: "sendVoice", Caption: r.FormValue("caption"), Audio: string(audio)})
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	case strings.HasSuffix(r.URL.Path, "/getFile"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"file_path":"voice/file_1.oga"}}`))
	case strings.HasSuffix(r.URL.Path, "/voice/file_1.oga"):
		_, _ = w.Write([]byte("ogg"))
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"message_id":1,"chat":{"id":42},"from":{"id":42},"text":"/start"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

func newClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient("tok", WithBaseURL(srv.URL), WithHTTP(srv.Client()), WithRateLimit(rate.Inf, 1))
}

type fakeSchedules struct{ approved []time.Time }

func (f *fakeSchedules) Today() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

func (f *fakeSchedules) ForDate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error) {
	s := schedule.Assemble(date, schedule.DefaultTemplate(), nil, nil, nil)
	return &s, nil
}

func (f *fakeSchedules) Tomorrow(ctx context.Context) (*schedule.DailySchedule, error) {
	return nil, errors.New("db down")
}

func (f *fakeSchedules) Approve(ctx context.Context, date time.Time) (*schedule.DailySchedule, error) {
	f.approved = append(f.approved, date)
	return &schedule.DailySchedule{Approved: true}, nil
}

type fakeProjects struct{}

func (fakeProjects) List(ctx context.Context) ([]domain.Project, error) {
	return []domain.Project{{ID: "sigmavue", Name: "Sigmavue", Priority: 1}}, nil
}

func (fakeProjects) PRDStatus(ctx context.Context, name string) (*prd.Summary, error) {
	if name != "sigmavue" {
		return nil, domain.ErrProjectNotFound
	}
	return &prd.Summary{Project: "Sigmavue", Total: 1, ByStatus: map[prd.Status]int{}}, nil
}

type fakeTasks struct{}

func (fakeTasks) Signal(ctx context.Context) ([]taskdomain.Task, error) {
	return []taskdomain.Task{{Title: "Ship PRD-7", ProjectID: "sigmavue"}, {Title: "Invoice"}}, nil
}

type fakeDumps struct{ got braindump.CreateInput }

func (f *fakeDumps) Create(ctx context.Context, in braindump.CreateInput) (*braindump.Dump, error) {
	f.got = in
	return &braindump.Dump{FrontMatter: braindump.FrontMatter{Title: "Ideas"}}, nil
}

type fakeAgent struct{ conv, text string }

func (f *fakeAgent) Chat(ctx context.Context, conversation, text string) (string, error) {
	f.conv, f.text = conversation, text
	return "agent says: " + text, nil
}

type fakeSpeaker struct{ on bool }

func (f fakeSpeaker) Configured() bool { return f.on }
func (f fakeSpeaker) Note(ctx context.Context, text string) ([]byte, error) {
	return []byte("mp3:" + text[:min(5, len(text))]), nil
}

type fakeTranscriber struct{}

func (fakeTranscriber) Configured() bool { return true }
func (fakeTranscriber) Transcribe(ctx context.Context, audio []byte, name string) (string, error) {
	return "heard " + string(audio), nil
}

func msg(from int64, text string) Update {
	return Update{UpdateID: 1, Message: &Message{From: &User{ID: from}, Chat: Chat{ID: from}, Text: text}}
}

func TestParseCommand(t *testing.T) {
	cmd, args, ok := ParseCommand("/PRD@donna_bot sigmavue now")
	assert.True(t, ok)
	assert.Equal(t, "prd", cmd)
	assert.Equal(t, "sigmavue now", args)

	_, _, ok = ParseCommand("hello")
	assert.False(t, ok)
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 10))
	assert.Equal(t, []string{"aaaa", "bbbb"}, Split("aaaa\nbbbb", 6))
	parts := Split(strings.Repeat("é", 6), 5)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 5)
		assert.True(t, strings.HasPrefix(p, "é"))
	}
	assert.Equal(t, strings.Repeat("é", 6), strings.Join(parts, ""))
}

func TestBot_RejectsStrangers(t *testing.T) {
	api := &fakeAPI{}
	b := NewBot(newClient(t, api), owner, Deps{})
	b.Handle(context.Background(), msg(7, "/schedule"))

	got := api.messages()
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ChatID)
	assert.Contains(t, got[0].Text, "not YOUR Donna")
}

func TestBot_Commands(t *testing.T) {
	api := &fakeAPI{}
	sched := &fakeSchedules{}
	dumps := &fakeDumps{}
	agent := &fakeAgent{}
	b := NewBot(newClient(t, api), owner, Deps{
		Schedules: sched, Projects: fakeProjects{}, Tasks: fakeTasks{},
		Dumps: dumps, Agent: agent, Speaker: fakeSpeaker{on: true},
	})
	ctx := context.Background()

	b.Handle(ctx, msg(owner, "/schedule"))
	got := api.messages()
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Text, "Monday")
	assert.Equal(t, "Markdown", got[0].ParseMode)
	assert.Equal(t, "sendVoice", got[1].Method)
	assert.Equal(t, "Here's your day. Now go execute.", got[1].Caption)

	b.Handle(ctx, msg(owner, "/tomorrow"))
	assert.Contains(t, api.messages()[2].Text, "trouble generating")

	b.Handle(ctx, msg(owner, "/approve"))
	require.Len(t, sched.approved, 1)

	b.Handle(ctx, msg(owner, "/braindump launch a podcast"))
	assert.Equal(t, "launch a podcast", dumps.got.Content)
	assert.Equal(t, "telegram", dumps.got.Source)

	b.Handle(ctx, msg(owner, "/signal"))
	last := api.messages()[len(api.messages())-1]
	assert.Contains(t, last.Text, "1. Ship PRD-7 (sigmavue)")
	assert.Contains(t, last.Text, "2. Invoice")

	b.Handle(ctx, msg(owner, "/prd nope"))
	last = api.messages()[len(api.messages())-1]
	assert.Equal(t, "I don't know a project called nope.", last.Text)

	b.Handle(ctx, msg(owner, "/adjust add a call at 2pm"))
	assert.Equal(t, "Adjust today's schedule: add a call at 2pm", agent.text)
	assert.Equal(t, "telegram:42", agent.conv)

	b.Handle(ctx, msg(owner, "what's next?"))
	last = api.messages()[len(api.messages())-1]
	assert.Equal(t, "agent says: what's next?", last.Text)

	b.Handle(ctx, msg(owner, "/voice"))
	last = api.messages()[len(api.messages())-1]
	assert.Equal(t, "sendVoice", last.Method)
	assert.Equal(t, "mp3:agent", last.Audio)
}

func TestBot_VoiceWithoutHistoryOrSpeaker(t *testing.T) {
	api := &fakeAPI{}
	b := NewBot(newClient(t, api), owner, Deps{})
	b.Handle(context.Background(), msg(owner, "/voice"))
	assert.Contains(t, api.messages()[0].Text, "anything to read")

	b.Handle(context.Background(), msg(owner, "/projects"))
	b.Handle(context.Background(), msg(owner, "hi"))
	b.Handle(context.Background(), msg(owner, "/voice"))
	got := api.messages()
	assert.Equal(t, noVoiceText, got[len(got)-1].Text)
}

func TestBot_TranscribesVoiceMessages(t *testing.T) {
	api := &fakeAPI{}
	agent := &fakeAgent{}
	b := NewBot(newClient(t, api), owner, Deps{Agent: agent, Transcriber: fakeTranscriber{}})

	b.Handle(context.Background(), Update{Message: &Message{
		From: &User{ID: owner}, Chat: Chat{ID: owner}, Voice: &Voice{FileID: "f1"},
	}})
	assert.Equal(t, "heard ogg", agent.text)
}

func TestSendMessage_FallsBackToPlainText(t *testing.T) {
	api := &fakeAPI{rejectMarkup: true}
	c := newClient(t, api)
	require.NoError(t, c.SendMessage(context.Background(), owner, "*bad markup", true))

	got := api.messages()
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ParseMode)
}

func TestGetUpdatesAndNotifier(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(t, api)

	updates, err := c.GetUpdates(context.Background(), 0, time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "/start", updates[0].Message.Text)

	n, err := NewNotifier(c, "42")
	require.NoError(t, err)
	require.NoError(t, n.Notify(context.Background(), "hello"))
	assert.Equal(t, int64(42), api.messages()[0].ChatID)

	_, err = NewNotifier(c, "@me")
	assert.Error(t, err)

	_, err = NewClient("").GetUpdates(context.Background(), 0, time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
