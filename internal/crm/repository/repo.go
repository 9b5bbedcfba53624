package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/donna-backend/internal/crm/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const clientColumns = `id, name, coalesce(email, ''), coalesce(phone, ''), coalesce(company, ''),
source, coalesce(notes, ''), first_contact, created_at`

func scanClient(row pgx.Row) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Source, &c.Notes, &c.FirstContact, &c.CreatedAt)
	return c, err
}

func (r *Repo) CreateClient(ctx context.Context, c domain.Client) (*domain.Client, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	q := `
insert into clients (id, name, email, phone, company, source, notes, first_contact)
values ($1, $2, nullif($3, ''), nullif($4, ''), nullif($5, ''), $6, nullif($7, ''), now())
returning ` + clientColumns + `;
`
	out, err := scanClient(r.db.QueryRow(ctx, q, c.ID, c.Name, c.Email, c.Phone, c.Company, c.Source, c.Notes))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &out, nil
}

// SearchClients matches name, email or company, case-insensitively.
func (r *Repo) SearchClients(ctx context.Context, query string) ([]domain.Client, error) {
	q := `
select ` + clientColumns + `
from clients
where name ilike '%' || $1 || '%'
   or email ilike '%' || $1 || '%'
   or company ilike '%' || $1 || '%'
order by name asc
limit 20;
`
	return r.clients(ctx, q, query)
}

func (r *Repo) ListClients(ctx context.Context) ([]domain.Client, error) {
	return r.clients(ctx, `select `+clientColumns+` from clients order by created_at asc;`)
}

func (r *Repo) clients(ctx context.Context, q string, args ...any) ([]domain.Client, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Client, 0, 8)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// dealSelect joins the client name and the sum of payments.
const dealSelect = `
select d.id, d.client_id, c.name, d.title, d.type, d.amount::float8, d.status, d.payment_status,
       coalesce((select sum(p.amount) from payments p where p.deal_id = d.id), 0)::float8,
       coalesce(d.notes, ''), d.closed_at, d.created_at
from deals d
join clients c on c.id = d.client_id
`

func scanDeal(row pgx.Row) (domain.Deal, error) {
	var d domain.Deal
	var status, payment string
	err := row.Scan(&d.ID, &d.ClientID, &d.ClientName, &d.Title, &d.Type, &d.Amount, &status, &payment,
		&d.Paid, &d.Notes, &d.ClosedAt, &d.CreatedAt)
	d.Status = domain.DealStatus(status)
	d.PaymentStatus = domain.PaymentStatus(payment)
	return d, err
}

func (r *Repo) deals(ctx context.Context, q string, args ...any) ([]domain.Deal, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Deal, 0, 8)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) CreateDeal(ctx context.Context, d domain.Deal) (*domain.Deal, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	const q = `
insert into deals (id, client_id, title, type, amount, status, payment_status, notes, closed_at)
values ($1, $2, $3, $4, $5, $6, $7, nullif($8, ''), $9);
`
	if _, err := r.db.Exec(ctx, q, d.ID, d.ClientID, d.Title, d.Type, d.Amount, string(d.Status),
		string(d.PaymentStatus), d.Notes, d.ClosedAt); err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	out, err := r.deals(ctx, dealSelect+`where d.id = $1;`, d.ID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrDealNotFound
	}
	return &out[0], nil
}

func (r *Repo) DealsByClient(ctx context.Context, clientID string) ([]domain.Deal, error) {
	return r.deals(ctx, dealSelect+`where d.client_id = $1 order by d.created_at asc;`, clientID)
}

func (r *Repo) DealsByStatus(ctx context.Context, statuses ...domain.DealStatus) ([]domain.Deal, error) {
	ss := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ss = append(ss, string(s))
	}
	return r.deals(ctx, dealSelect+`where d.status = any($1) order by d.created_at asc;`, ss)
}

func (r *Repo) UpdatePaymentStatus(ctx context.Context, dealID string, s domain.PaymentStatus) error {
	ct, err := r.db.Exec(ctx, `update deals set payment_status = $2, updated_at = now() where id = $1;`, dealID, string(s))
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrDealNotFound
	}
	return nil
}

// AddPayment records the payment and returns the deal's new payment total.
func (r *Repo) AddPayment(ctx context.Context, p domain.Payment) (*domain.Payment, float64, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const ins = `
insert into payments (id, deal_id, amount, method, notes, paid_at)
values ($1, $2, $3, $4, nullif($5, ''), $6);
`
	if _, err := tx.Exec(ctx, ins, p.ID, p.DealID, p.Amount, p.Method, p.Notes, p.Date); err != nil {
		return nil, 0, fmt.Errorf("insert payment: %w", err)
	}

	var total float64
	if err := tx.QueryRow(ctx, `select coalesce(sum(amount), 0)::float8 from payments where deal_id = $1;`, p.DealID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sum payments: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit: %w", err)
	}
	return &p, total, nil
}
