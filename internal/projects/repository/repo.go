package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
)

// Repo persists projects in Postgres.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const projectColumns = `id, name, coalesce(path, ''), type, priority, daily, last_worked,
coalesce(prd_status_path, ''), coalesce(claude_md_path, ''), coalesce(description, ''),
created_at, updated_at`

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	var typ string
	err := row.Scan(&p.ID, &p.Name, &p.Path, &typ, &p.Priority, &p.Daily, &p.LastWorked,
		&p.PRDStatusPath, &p.ClaudeMDPath, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	p.Type = domain.ProjectType(typ)
	return p, err
}

// List returns every project ordered by priority then name.
func (r *Repo) List(ctx context.Context) ([]domain.Project, error) {
	q := `
select ` + projectColumns + `
from projects
order by priority asc, name asc;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get looks a project up by id, falling back to a case-insensitive name match.
func (r *Repo) Get(ctx context.Context, idOrName string) (*domain.Project, error) {
	q := `
select ` + projectColumns + `
from projects
where id = $1 or lower(name) = lower($1)
order by (id = $1) desc
limit 1;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, strings.TrimSpace(idOrName)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, in domain.NewProject) (*domain.Project, error) {
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("id and name required")
	}
	if in.Priority <= 0 {
		in.Priority = 3
	}

	q := `
insert into projects (id, name, path, type, priority, daily, prd_status_path, claude_md_path, description)
values ($1, $2, nullif($3, ''), $4, $5, $6, nullif($7, ''), nullif($8, ''), nullif($9, ''))
returning ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, in.ID, in.Name, in.Path, string(in.Type),
		in.Priority, in.Daily, in.PRDStatusPath, in.ClaudeMDPath, in.Description))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrProjectAlreadyExists
		}
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (r *Repo) UpdateLastWorked(ctx context.Context, id string, at time.Time) error {
	const q = `
update projects
set last_worked = $2, updated_at = now()
where id = $1;
`
	ct, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		return fmt.Errorf("update last_worked: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// WorkedSince returns projects whose last_worked falls after the given instant.
func (r *Repo) WorkedSince(ctx context.Context, since time.Time) ([]domain.Project, error) {
	q := `
select ` + projectColumns + `
from projects
where last_worked >= $1
order by last_worked desc;
`
	rows, err := r.db.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("projects worked since: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
