package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

const templateSettingKey = "weekly_template"

// TemplateRepo stores the weekly template as JSON in the settings table.
type TemplateRepo struct {
	db *pgxpool.Pool
}

func NewTemplateRepo(db *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{db: db}
}

func (r *TemplateRepo) Load(ctx context.Context) (*schedule.WeeklyTemplate, error) {
	const q = `select value from settings where key = $1;`

	var raw []byte
	err := r.db.QueryRow(ctx, q, templateSettingKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, schedule.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	var t schedule.WeeklyTemplate
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return &t, nil
}

func (r *TemplateRepo) Save(ctx context.Context, t *schedule.WeeklyTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	const q = `
insert into settings (key, value)
values ($1, $2)
on conflict (key) do update set value = excluded.value, updated_at = now();
`
	if _, err := r.db.Exec(ctx, q, templateSettingKey, raw); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

// FileLoader reads schedule/weekly-template.{yaml,yml,json} from a workspace.
type FileLoader struct {
	dir string
}

func NewFileLoader(workspace string) *FileLoader {
	return &FileLoader{dir: filepath.Join(workspace, "schedule")}
}

func (l *FileLoader) Load(ctx context.Context) (*schedule.WeeklyTemplate, error) {
	for _, name := range []string{"weekly-template.yaml", "weekly-template.yml", "weekly-template.json"} {
		path := filepath.Join(l.dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var t schedule.WeeklyTemplate
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(data, &t)
		} else {
			err = yaml.Unmarshal(data, &t)
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &t, nil
	}
	return nil, schedule.ErrTemplateNotFound
}

// Save writes the template as YAML.
func (l *FileLoader) Save(ctx context.Context, t *schedule.WeeklyTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(l.dir, "weekly-template.yaml"), data, 0o644)
}

type TemplateStore interface {
	Load(ctx context.Context) (*schedule.WeeklyTemplate, error)
	Save(ctx context.Context, t *schedule.WeeklyTemplate) error
}

// Chain tries each store in order on Load and saves to the first one.
type Chain []TemplateStore

func (c Chain) Load(ctx context.Context) (*schedule.WeeklyTemplate, error) {
	for _, s := range c {
		t, err := s.Load(ctx)
		if errors.Is(err, schedule.ErrTemplateNotFound) {
			continue
		}
		return t, err
	}
	return nil, schedule.ErrTemplateNotFound
}

func (c Chain) Save(ctx context.Context, t *schedule.WeeklyTemplate) error {
	if len(c) == 0 {
		return fmt.Errorf("no template store configured")
	}
	return c[0].Save(ctx, t)
}
