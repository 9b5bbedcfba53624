package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/braindump"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/prd"
	projectsvc "github.com/GoSim-25-26J-441/donna-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	taskdomain "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/domain"
)

type Schedules interface {
	Today() time.Time
	ForDate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error)
	Tomorrow(ctx context.Context) (*schedule.DailySchedule, error)
	Approve(ctx context.Context, date time.Time) (*schedule.DailySchedule, error)
}

type Projects interface {
	List(ctx context.Context) ([]domain.Project, error)
	PRDStatus(ctx context.Context, idOrName string) (*prd.Summary, error)
}

type Tasks interface {
	Signal(ctx context.Context) ([]taskdomain.Task, error)
}

type Dumps interface {
	Create(ctx context.Context, in braindump.CreateInput) (*braindump.Dump, error)
}

// Agent answers free-form messages within a conversation.
type Agent interface {
	Chat(ctx context.Context, conversation, text string) (string, error)
}

type Speaker interface {
	Configured() bool
	Note(ctx context.Context, text string) ([]byte, error)
}

type Transcriber interface {
	Configured() bool
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Deps are the services commands reach. Nil members disable their commands.
type Deps struct {
	Schedules   Schedules
	Projects    Projects
	Tasks       Tasks
	Dumps       Dumps
	Agent       Agent
	Speaker     Speaker
	Transcriber Transcriber
}

const (
	startText = "I'm Donna. I know everything.\n\n" +
		"• /schedule - Your day. I've already optimized it.\n" +
		"• /tomorrow - Tomorrow's plan. You're welcome.\n" +
		"• /braindump <text> - Dump your thoughts. I'll make sense of them.\n" +
		"• /projects - All your projects. I'm tracking them.\n" +
		"• /prd <project> - PRD status.\n" +
		"• /signal - Your top priorities. Ignore the noise.\n" +
		"• /approve - Lock in the schedule I made for you.\n" +
		"• /adjust <change> - Fine. Make changes. But I was probably right.\n" +
		"• /voice - Turn my last response into a voice note.\n\n" +
		"Now, what do you need?"
	unauthorizedText = "I'm Donna. But I'm not YOUR Donna.\n\nI only work for one person, and it's not you."
	braindumpPrompt  = "Alright, let it out. Send /braindump followed by whatever is bouncing around in that head of yours."
	adjustPrompt     = "Fine. What do you want to change?\n\n" +
		"• /adjust move sigmavue to 3pm\n" +
		"• /adjust add a call at 2pm\n" +
		"• /adjust work on ruthless instead of adforge"
	prdUsage    = "Please specify a project: /prd sigmavue"
	noVoiceText = "Voice notes aren't set up yet. Add ELEVENLABS_API_KEY and ELEVENLABS_VOICE_ID."
)

// Bot serves exactly one chat: the owner's.
type Bot struct {
	client  *Client
	ownerID int64
	deps    Deps
	poll    time.Duration

	mu      sync.Mutex
	last    string
	running atomic.Bool
}

func NewBot(client *Client, ownerID int64, deps Deps) *Bot {
	return &Bot{client: client, ownerID: ownerID, deps: deps, poll: 30 * time.Second}
}

// Run long-polls until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("[telegram] bot started for chat %d", b.ownerID)
	b.running.Store(true)
	defer b.running.Store(false)
	var offset int64
	backoff := time.Second
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.poll)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[telegram] getUpdates failed: %v (retry in %s)", err, backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, time.Minute)
			continue
		}
		backoff = time.Second
		for _, u := range updates {
			offset = u.UpdateID + 1
			b.Handle(ctx, u)
		}
	}
}

// Running reports whether the polling loop is active.
func (b *Bot) Running() bool { return b.running.Load() }

// Handle processes one update and replies in the same chat.
func (b *Bot) Handle(ctx context.Context, u Update) {
	m := u.Message
	if m == nil {
		return
	}
	if m.From == nil || m.From.ID != b.ownerID {
		from := int64(0)
		if m.From != nil {
			from = m.From.ID
		}
		log.Printf("[telegram] unauthorized access attempt from user %d", from)
		b.send(ctx, m.Chat.ID, unauthorizedText, false)
		return
	}

	text := strings.TrimSpace(m.Text)
	if m.Voice != nil {
		var err error
		if text, err = b.transcribe(ctx, m.Voice); err != nil {
			log.Printf("[telegram] transcription failed: %v", err)
			b.send(ctx, m.Chat.ID, "Voice note received, but I couldn't make it out. Type it instead.", false)
			return
		}
	}
	if text == "" {
		return
	}

	r := b.dispatch(ctx, text)
	if r.text != "" {
		b.send(ctx, m.Chat.ID, r.text, r.markdown)
	}
	if r.voiceCaption != "" && b.deps.Speaker != nil && b.deps.Speaker.Configured() {
		b.speak(ctx, r.text, r.voiceCaption)
	}
}

type reply struct {
	text     string
	markdown bool
	// voiceCaption, when set, follows the text with a spoken copy.
	voiceCaption string
}

func plain(s string) reply    { return reply{text: s} }
func markdown(s string) reply { return reply{text: s, markdown: true} }

func (b *Bot) transcribe(ctx context.Context, v *Voice) (string, error) {
	if b.deps.Transcriber == nil || !b.deps.Transcriber.Configured() {
		return "", errors.New("transcription not configured")
	}
	audio, err := b.client.Download(ctx, v.FileID)
	if err != nil {
		return "", err
	}
	return b.deps.Transcriber.Transcribe(ctx, audio, "voice.ogg")
}

// ParseCommand splits "/cmd@bot args" into "cmd" and "args".
func ParseCommand(text string) (string, string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, args, _ := strings.Cut(text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(args), true
}

func (b *Bot) dispatch(ctx context.Context, text string) reply {
	cmd, args, ok := ParseCommand(text)
	if !ok {
		return plain(b.remember(b.chat(ctx, text)))
	}

	switch cmd {
	case "start", "help":
		return plain(startText)
	case "schedule":
		return b.scheduleReply(func() (*schedule.DailySchedule, error) {
			return b.deps.Schedules.ForDate(ctx, b.deps.Schedules.Today())
		}, "Here's your day. Now go execute.")
	case "tomorrow":
		return b.scheduleReply(func() (*schedule.DailySchedule, error) {
			return b.deps.Schedules.Tomorrow(ctx)
		}, "Tomorrow's plan. I've already thought ahead for you.")
	case "approve":
		return plain(b.approve(ctx))
	case "adjust":
		if args == "" {
			return plain(adjustPrompt)
		}
		return plain(b.remember(b.chat(ctx, "Adjust today's schedule: "+args)))
	case "braindump":
		return plain(b.braindump(ctx, args))
	case "projects":
		return markdown(b.projects(ctx))
	case "prd":
		return markdown(b.prd(ctx, args))
	case "signal":
		return markdown(b.signal(ctx))
	case "voice":
		return plain(b.voice(ctx))
	default:
		return plain("I don't know /" + cmd + ". Try /start.")
	}
}

func (b *Bot) chat(ctx context.Context, text string) string {
	if b.deps.Agent == nil {
		return "My brain isn't connected yet. Set OPENAI_API_KEY."
	}
	out, err := b.deps.Agent.Chat(ctx, "telegram:"+strconv.FormatInt(b.ownerID, 10), text)
	if err != nil {
		log.Printf("[telegram] agent error: %v", err)
		return "Something went sideways on my end. Try that again."
	}
	return out
}

func (b *Bot) scheduleReply(get func() (*schedule.DailySchedule, error), caption string) reply {
	if b.deps.Schedules == nil {
		return plain("Scheduling isn't available right now.")
	}
	s, err := get()
	if err != nil {
		log.Printf("[telegram] schedule error: %v", err)
		return plain("I'm having trouble generating your schedule. Give me a second and try again.")
	}
	return reply{text: b.remember(schedule.Render(*s)), markdown: true, voiceCaption: caption}
}

func (b *Bot) speak(ctx context.Context, text, caption string) {
	audio, err := b.deps.Speaker.Note(ctx, text)
	if err == nil {
		err = b.client.SendVoice(ctx, b.ownerID, audio, "donna.mp3", caption)
	}
	if err != nil {
		log.Printf("[telegram] voice note failed: %v", err)
	}
}

func (b *Bot) approve(ctx context.Context) string {
	if b.deps.Schedules == nil {
		return "Scheduling isn't available right now."
	}
	if _, err := b.deps.Schedules.Approve(ctx, b.deps.Schedules.Today()); err != nil {
		log.Printf("[telegram] approve failed: %v", err)
		return "I couldn't lock in the schedule. Try again in a moment."
	}
	return b.remember("Good choice. I knew you'd agree with me.\n\n" +
		"Your schedule is locked. If Calendly throws a wrench in it, I'll handle it before you even notice.")
}

func (b *Bot) braindump(ctx context.Context, content string) string {
	if content == "" {
		return braindumpPrompt
	}
	if b.deps.Dumps == nil {
		return "Brain dumps aren't available right now."
	}
	d, err := b.deps.Dumps.Create(ctx, braindump.CreateInput{Content: content, Source: "telegram"})
	if err != nil {
		log.Printf("[telegram] brain dump failed: %v", err)
		return "I couldn't save that. Try again."
	}
	return b.remember(fmt.Sprintf("Filed: %s\n\nI'll pull the action items out when you ask.", d.Title))
}

func (b *Bot) projects(ctx context.Context) string {
	if b.deps.Projects == nil {
		return "Projects aren't available right now."
	}
	ps, err := b.deps.Projects.List(ctx)
	if err != nil {
		log.Printf("[telegram] projects error: %v", err)
		return "Error loading projects. Check the project registry."
	}
	return b.remember(projectsvc.Markdown(ps))
}

func (b *Bot) prd(ctx context.Context, name string) string {
	if name == "" {
		return prdUsage
	}
	if b.deps.Projects == nil {
		return "Projects aren't available right now."
	}
	s, err := b.deps.Projects.PRDStatus(ctx, strings.Fields(name)[0])
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return "I don't know a project called " + name + "."
	case errors.Is(err, domain.ErrNoPRDStatus):
		return "That project has no PRD status file."
	case err != nil:
		log.Printf("[telegram] prd error: %v", err)
		return "I couldn't read that PRD status."
	}
	return b.remember(s.Markdown())
}

func (b *Bot) signal(ctx context.Context) string {
	if b.deps.Tasks == nil {
		return b.remember(b.chat(ctx, "What are my top 3 tasks today?"))
	}
	ts, err := b.deps.Tasks.Signal(ctx)
	if err != nil {
		log.Printf("[telegram] signal error: %v", err)
		return "I couldn't load your tasks."
	}
	if len(ts) == 0 {
		return "No signal tasks. Either you're done or you haven't told me anything."
	}
	var sb strings.Builder
	sb.WriteString("*Signal*\n")
	for i, t := range ts {
		fmt.Fprintf(&sb, "%d. %s", i+1, t.Title)
		if t.ProjectID != "" {
			fmt.Fprintf(&sb, " (%s)", t.ProjectID)
		}
		sb.WriteString("\n")
	}
	return b.remember(strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) voice(ctx context.Context) string {
	last := b.lastResponse()
	if last == "" {
		return "I don't have anything to read to you yet. Ask me something first, then use /voice."
	}
	if b.deps.Speaker == nil || !b.deps.Speaker.Configured() {
		return noVoiceText
	}
	audio, err := b.deps.Speaker.Note(ctx, last)
	if err == nil {
		err = b.client.SendVoice(ctx, b.ownerID, audio, "donna.mp3", "")
	}
	if err != nil {
		log.Printf("[telegram] /voice failed: %v", err)
		return "Hmm. My voice isn't cooperating right now. Check the ElevenLabs configuration."
	}
	return ""
}

func (b *Bot) remember(s string) string {
	b.mu.Lock()
	b.last = s
	b.mu.Unlock()
	return s
}

func (b *Bot) lastResponse() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, markdown bool) {
	if err := b.client.SendMessage(ctx, chatID, text, markdown); err != nil {
		log.Printf("[telegram] send failed: %v", err)
	}
}
