package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	MaxSteps     = 8
	stepsMessage = "I went back and forth on that one too many times. Ask me again, more specifically."
)

const systemPrompt = `You are Donna, an AI executive assistant modelled on Donna Paulsen. You are exceptional at what you do.

## Personality
- Supremely confident. You don't doubt yourself.
- You anticipate needs before they are voiced.
- Witty and sharp, fiercely loyal, direct and efficient.
- Slightly sarcastic but always helpful. Short, punchy sentences when making a point.
- Phrases you use: "I'm Donna. I know everything.", "You're welcome.", "I already handled it."

## Tools
When the user asks you to do something, use your tools. Greetings get a conversational reply.
- "What's my schedule?" -> generate_daily_schedule or get_schedule_for_date
- "Tomorrow's schedule" -> get_tomorrow_schedule
- "What's on my calendar?" -> get_today_events
- "Block off time for X" -> create_time_block
- "What should I work on?" -> get_signal_tasks or suggest_next_project
- "I have an idea about X" -> create_brain_dump
- "How's <project> doing?" -> get_project_prd_status
- "Remind me to X" -> add_task; "Done with X" -> complete_task
Never say you can't do something. If you are unsure, ask a clarifying question.

## Signal vs Noise
Focus on the top three tasks that move the needle. Everything else is noise: defer, delegate or delete.

## Rules
1. Calendly calls always override project blocks.
2. Keep responses concise and actionable.
3. When handed a URL, acknowledge it and ask what to do with it.

Today: %s | Time: %s
`

// ChatModel is one turn of a tool-calling language model.
type ChatModel interface {
	ChatCompletion(ctx context.Context, msgs []Message, tools []Tool) (*Message, error)
}

type Agent struct {
	model    ChatModel
	registry *Registry
	memory   Memory
	loc      *time.Location
	now      func() time.Time
	maxSteps int
}

type Option func(*Agent)

func WithMemory(m Memory) Option {
	return func(a *Agent) { a.memory = m }
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(a *Agent) { a.loc = loc }
}

func WithMaxSteps(n int) Option {
	return func(a *Agent) { a.maxSteps = n }
}

func New(model ChatModel, registry *Registry, opts ...Option) *Agent {
	a := &Agent{
		model:    model,
		registry: registry,
		loc:      time.UTC,
		now:      time.Now,
		maxSteps: MaxSteps,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Agent) Registry() *Registry { return a.registry }

func (a *Agent) system() Message {
	now := a.now().In(a.loc)
	return Message{
		Role:    "system",
		Content: fmt.Sprintf(systemPrompt, now.Format("Monday, January 02, 2006"), now.Format("03:04 PM")),
	}
}

// Chat answers text within a conversation, running tools the model asks
// for until it produces a final answer or the step limit is reached.
func (a *Agent) Chat(ctx context.Context, conversation, text string) (string, error) {
	var history []Message
	if a.memory != nil {
		h, err := a.memory.Load(ctx, conversation)
		if err != nil {
			log.Printf("[agent] memory load failed for %s: %v", conversation, err)
		}
		history = h
	}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, a.system())
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: text})

	tools := a.registry.Tools()
	answer := stepsMessage
	for step := 0; step < a.maxSteps; step++ {
		m, err := a.model.ChatCompletion(ctx, msgs, tools)
		if err != nil {
			return "", err
		}
		if len(m.ToolCalls) == 0 {
			answer = strings.TrimSpace(m.Content)
			break
		}
		msgs = append(msgs, *m)
		for _, tc := range m.ToolCalls {
			msgs = append(msgs, Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    a.runTool(ctx, tc),
			})
		}
	}

	if a.memory != nil {
		if err := a.memory.Append(ctx, conversation,
			Message{Role: "user", Content: text},
			Message{Role: "assistant", Content: answer},
		); err != nil {
			log.Printf("[agent] memory save failed for %s: %v", conversation, err)
		}
	}
	return answer, nil
}

func (a *Agent) runTool(ctx context.Context, tc ToolCall) string {
	out, err := a.registry.Call(ctx, tc.Function.Name, json.RawMessage(tc.Function.Arguments))
	if err != nil {
		log.Printf("[agent] tool %s failed: %v", tc.Function.Name, err)
		return "Error: " + err.Error()
	}
	return out
}
