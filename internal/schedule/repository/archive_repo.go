package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

// ArchiveRepo persists approved or edited schedules in PostgreSQL.
type ArchiveRepo struct {
	db *sql.DB
}

func NewArchiveRepo(db *sql.DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

// Upsert stores the schedule keyed by its date.
func (r *ArchiveRepo) Upsert(ctx context.Context, s *schedule.DailySchedule) error {
	query := `
		INSERT INTO daily_schedules (id, date, time_blocks, signal_tasks, notes, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date) DO UPDATE SET
			time_blocks = EXCLUDED.time_blocks,
			signal_tasks = EXCLUDED.signal_tasks,
			notes = EXCLUDED.notes,
			approved = EXCLUDED.approved,
			updated_at = NOW()
		RETURNING created_at
	`

	blocksJSON, err := json.Marshal(s.TimeBlocks)
	if err != nil {
		return fmt.Errorf("failed to marshal time blocks: %w", err)
	}
	signalsJSON, err := json.Marshal(s.SignalTasks)
	if err != nil {
		return fmt.Errorf("failed to marshal signal tasks: %w", err)
	}

	var notes sql.NullString
	if s.Notes != "" {
		notes = sql.NullString{String: s.Notes, Valid: true}
	}

	var createdAt sql.NullTime
	err = r.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		s.Date,
		blocksJSON,
		signalsJSON,
		notes,
		s.Approved,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}
	if s.GeneratedAt.IsZero() && createdAt.Valid {
		s.GeneratedAt = createdAt.Time
	}
	return nil
}

func (r *ArchiveRepo) Get(ctx context.Context, date string) (*schedule.DailySchedule, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM-DD'), time_blocks, signal_tasks, notes, approved, created_at
		FROM daily_schedules
		WHERE date = $1
	`

	var s schedule.DailySchedule
	var blocksJSON, signalsJSON []byte
	var notes sql.NullString

	err := r.db.QueryRowContext(ctx, query, date).Scan(
		&s.Date,
		&blocksJSON,
		&signalsJSON,
		&notes,
		&s.Approved,
		&s.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if err := json.Unmarshal(blocksJSON, &s.TimeBlocks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal time blocks: %w", err)
	}
	if len(signalsJSON) > 0 {
		if err := json.Unmarshal(signalsJSON, &s.SignalTasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signal tasks: %w", err)
		}
	}
	s.Notes = notes.String
	if d, err := s.Day(); err == nil {
		s.Weekday = d.Weekday().String()
	}
	return &s, nil
}
