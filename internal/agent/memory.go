package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	memoryPrefix   = "donna:conversation:"
	MemoryMessages = 20
	MemoryTTL      = 7 * 24 * time.Hour
)

// Memory keeps the user and assistant turns of a conversation. Tool
// traffic is never stored, so a trimmed history is always well formed.
type Memory interface {
	Load(ctx context.Context, conversation string) ([]Message, error)
	Append(ctx context.Context, conversation string, msgs ...Message) error
	Clear(ctx context.Context, conversation string) error
}

type RedisMemory struct {
	client *redis.Client
	limit  int64
	ttl    time.Duration
}

func NewRedisMemory(client *redis.Client) *RedisMemory {
	return &RedisMemory{client: client, limit: MemoryMessages, ttl: MemoryTTL}
}

func (m *RedisMemory) key(conversation string) string { return memoryPrefix + conversation }

func (m *RedisMemory) Load(ctx context.Context, conversation string) ([]Message, error) {
	items, err := m.client.LRange(ctx, m.key(conversation), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	out := make([]Message, 0, len(items))
	for _, it := range items {
		var msg Message
		if err := json.Unmarshal([]byte(it), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (m *RedisMemory) Append(ctx context.Context, conversation string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		b, err := json.Marshal(Message{Role: msg.Role, Content: msg.Content})
		if err != nil {
			return err
		}
		vals = append(vals, b)
	}
	key := m.key(conversation)
	pipe := m.client.TxPipeline()
	pipe.RPush(ctx, key, vals...)
	pipe.LTrim(ctx, key, -m.limit, -1)
	pipe.Expire(ctx, key, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (m *RedisMemory) Clear(ctx context.Context, conversation string) error {
	return m.client.Del(ctx, m.key(conversation)).Err()
}
