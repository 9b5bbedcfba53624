package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

const (
	scheduleKeyPrefix = "donna:schedule:" // donna:schedule:{YYYY-MM-DD}
	scheduleTTL       = 48 * time.Hour
)

// CacheRepo keeps recently generated schedules in Redis.
type CacheRepo struct {
	client *redis.Client
}

func NewCacheRepo(client *redis.Client) *CacheRepo {
	return &CacheRepo{client: client}
}

func (r *CacheRepo) Get(ctx context.Context, date string) (*schedule.DailySchedule, error) {
	data, err := r.client.Get(ctx, scheduleKeyPrefix+date).Bytes()
	if err == redis.Nil {
		return nil, schedule.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	var s schedule.DailySchedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}
	return &s, nil
}

func (r *CacheRepo) Set(ctx context.Context, s *schedule.DailySchedule) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	if err := r.client.Set(ctx, scheduleKeyPrefix+s.Date, data, scheduleTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache schedule: %w", err)
	}
	return nil
}

func (r *CacheRepo) Delete(ctx context.Context, dates ...string) error {
	if len(dates) == 0 {
		return nil
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, scheduleKeyPrefix+d)
	}
	return r.client.Del(ctx, keys...).Err()
}

// DeleteAll drops every cached schedule.
func (r *CacheRepo) DeleteAll(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, scheduleKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan schedules: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
