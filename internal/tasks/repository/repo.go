package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/donna-backend/internal/tasks/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const taskColumns = `id, title, coalesce(description, ''), priority, status, coalesce(project_id, ''),
due_date, completed_at, created_at, updated_at`

// priorityRank orders signal first and noise last.
const priorityRank = `case priority when 'signal' then 0 when 'high' then 1 when 'medium' then 2 when 'low' then 3 else 4 end`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	var priority, status string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &status, &t.ProjectID,
		&t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	t.Priority = domain.Priority(priority)
	t.Status = domain.Status(status)
	return t, err
}

func collect(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()
	out := make([]domain.Task, 0, 16)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, t domain.Task) (*domain.Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	q := `
insert into tasks (id, title, description, priority, status, project_id, due_date)
values ($1, $2, nullif($3, ''), $4, $5, nullif($6, ''), $7)
returning ` + taskColumns + `;
`
	out, err := scanTask(r.db.QueryRow(ctx, q, t.ID, t.Title, t.Description, string(t.Priority),
		string(t.Status), t.ProjectID, t.DueDate))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &out, nil
}

func (r *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Task, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	q := `
select ` + taskColumns + `
from tasks
where ($1 = '' or status = $1)
  and ($2 = '' or project_id = $2)
  and ($3 = '' or priority = $3)
order by ` + priorityRank + `, created_at desc
limit $4;
`
	rows, err := r.db.Query(ctx, q, string(f.Status), f.ProjectID, string(f.Priority), f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collect(rows)
}

// FindByTitle returns the first task whose title contains the text, case-insensitively.
// An empty status matches any status.
func (r *Repo) FindByTitle(ctx context.Context, text string, status domain.Status) (*domain.Task, error) {
	q := `
select ` + taskColumns + `
from tasks
where title ilike '%' || $1 || '%'
  and ($2 = '' or status = $2)
order by created_at asc
limit 1;
`
	t, err := scanTask(r.db.QueryRow(ctx, q, text, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &t, nil
}

func (r *Repo) Complete(ctx context.Context, id string, at time.Time) error {
	const q = `
update tasks
set status = 'completed', completed_at = $2, updated_at = now()
where id = $1;
`
	ct, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `delete from tasks where id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *Repo) UpdatePriority(ctx context.Context, id string, p domain.Priority) error {
	const q = `
update tasks
set priority = $2, updated_at = now()
where id = $1;
`
	ct, err := r.db.Exec(ctx, q, id, string(p))
	if err != nil {
		return fmt.Errorf("update priority: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// PendingByPriority returns pending tasks with any of the priorities, oldest first.
func (r *Repo) PendingByPriority(ctx context.Context, priorities []domain.Priority, limit int) ([]domain.Task, error) {
	ps := make([]string, 0, len(priorities))
	for _, p := range priorities {
		ps = append(ps, string(p))
	}
	q := `
select ` + taskColumns + `
from tasks
where status = 'pending' and priority = any($1)
order by created_at asc
limit $2;
`
	rows, err := r.db.Query(ctx, q, ps, limit)
	if err != nil {
		return nil, fmt.Errorf("pending tasks: %w", err)
	}
	return collect(rows)
}

func (r *Repo) CompletedSince(ctx context.Context, since time.Time) ([]domain.Task, error) {
	q := `
select ` + taskColumns + `
from tasks
where status = 'completed' and completed_at >= $1
order by completed_at desc;
`
	rows, err := r.db.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("completed tasks: %w", err)
	}
	return collect(rows)
}
