package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/crm/domain"
)

type Store interface {
	CreateClient(ctx context.Context, c domain.Client) (*domain.Client, error)
	SearchClients(ctx context.Context, query string) ([]domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	CreateDeal(ctx context.Context, d domain.Deal) (*domain.Deal, error)
	DealsByClient(ctx context.Context, clientID string) ([]domain.Deal, error)
	DealsByStatus(ctx context.Context, statuses ...domain.DealStatus) ([]domain.Deal, error)
	UpdatePaymentStatus(ctx context.Context, dealID string, s domain.PaymentStatus) error
	AddPayment(ctx context.Context, p domain.Payment) (*domain.Payment, float64, error)
}

type CRMService struct {
	store Store
	now   func() time.Time
}

func NewCRMService(store Store) *CRMService {
	return &CRMService{store: store, now: time.Now}
}

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Source  string `json:"source,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (s *CRMService) AddClient(ctx context.Context, in ClientInput) (*domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("client name is required")
	}
	source := strings.ToLower(strings.TrimSpace(in.Source))
	if source == "" {
		source = "manual"
	}
	return s.store.CreateClient(ctx, domain.Client{
		Name:    name,
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Company: strings.TrimSpace(in.Company),
		Source:  source,
		Notes:   strings.TrimSpace(in.Notes),
	})
}

func (s *CRMService) SearchClients(ctx context.Context, query string) ([]domain.Client, error) {
	return s.store.SearchClients(ctx, strings.TrimSpace(query))
}

func (s *CRMService) findClient(ctx context.Context, name string) (*domain.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrClientNotFound
	}
	found, err := s.store.SearchClients(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, name)
	}
	return &found[0], nil
}

// ClientDetails returns the first matching client with every deal and the
// value of its billable deals.
func (s *CRMService) ClientDetails(ctx context.Context, name string) (*domain.ClientDetails, error) {
	c, err := s.findClient(ctx, name)
	if err != nil {
		return nil, err
	}
	deals, err := s.store.DealsByClient(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out := &domain.ClientDetails{Client: *c, Deals: deals}
	for _, d := range deals {
		if d.Status.Billable() {
			out.TotalValue += d.Amount
		}
	}
	return out, nil
}

type SourceGroup struct {
	Source  string          `json:"source"`
	Clients []domain.Client `json:"clients"`
}

// ClientsBySource groups every client by acquisition source, in first-seen order.
func (s *CRMService) ClientsBySource(ctx context.Context) ([]SourceGroup, error) {
	all, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	var out []SourceGroup
	idx := map[string]int{}
	for _, c := range all {
		src := c.Source
		if src == "" {
			src = "unknown"
		}
		i, ok := idx[src]
		if !ok {
			i = len(out)
			idx[src] = i
			out = append(out, SourceGroup{Source: src})
		}
		out[i].Clients = append(out[i].Clients, c)
	}
	return out, nil
}

type DealInput struct {
	ClientName string  `json:"client_name"`
	Title      string  `json:"title"`
	Type       string  `json:"deal_type"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

func (s *CRMService) CreateDeal(ctx context.Context, in DealInput) (*domain.Deal, error) {
	status, err := domain.ParseDealStatus(in.Status)
	if err != nil {
		return nil, err
	}
	c, err := s.findClient(ctx, in.ClientName)
	if err != nil {
		return nil, err
	}
	return s.createDeal(ctx, c, in, status)
}

// CloseDeal records a signed deal, creating the client when it is unknown.
func (s *CRMService) CloseDeal(ctx context.Context, in DealInput) (*domain.Deal, error) {
	c, err := s.findClient(ctx, in.ClientName)
	if err != nil {
		if !errors.Is(err, domain.ErrClientNotFound) {
			return nil, err
		}
		c, err = s.AddClient(ctx, ClientInput{Name: in.ClientName, Source: "deal"})
		if err != nil {
			return nil, err
		}
	}
	return s.createDeal(ctx, c, in, domain.DealClosed)
}

func (s *CRMService) createDeal(ctx context.Context, c *domain.Client, in DealInput, status domain.DealStatus) (*domain.Deal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("deal title is required")
	}
	if in.Amount < 0 || math.IsNaN(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	d := domain.Deal{
		ClientID:      c.ID,
		ClientName:    c.Name,
		Title:         title,
		Type:          strings.TrimSpace(in.Type),
		Amount:        in.Amount,
		Status:        status,
		PaymentStatus: domain.PaymentPending,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if status == domain.DealClosed {
		now := s.now()
		d.ClosedAt = &now
	}
	return s.store.CreateDeal(ctx, d)
}

func (s *CRMService) ActiveDeals(ctx context.Context) ([]domain.Deal, error) {
	return s.store.DealsByStatus(ctx, domain.DealClosed, domain.DealInProgress)
}

type PaymentInput struct {
	ClientName string  `json:"client_name"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// LogPayment applies the payment to the client's first unpaid active deal.
func (s *CRMService) LogPayment(ctx context.Context, in PaymentInput) (*domain.PaymentResult, error) {
	if in.Amount <= 0 || math.IsNaN(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	c, err := s.findClient(ctx, in.ClientName)
	if err != nil {
		return nil, err
	}
	deals, err := s.store.DealsByClient(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	var target *domain.Deal
	for i := range deals {
		if deals[i].Status.Active() && deals[i].PaymentStatus != domain.PaymentPaid {
			target = &deals[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w for %s", domain.ErrNoUnpaidDeal, c.Name)
	}

	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = "stripe"
	}
	p, total, err := s.store.AddPayment(ctx, domain.Payment{
		DealID: target.ID,
		Amount: in.Amount,
		Method: method,
		Notes:  strings.TrimSpace(in.Notes),
		Date:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	status := domain.PaymentPartial
	if total >= target.Amount {
		status = domain.PaymentPaid
	}
	if err := s.store.UpdatePaymentStatus(ctx, target.ID, status); err != nil {
		return nil, err
	}
	target.PaymentStatus = status
	target.Paid = total

	return &domain.PaymentResult{
		Payment:   *p,
		Deal:      *target,
		TotalPaid: total,
		Remaining: target.Remaining(),
	}, nil
}

func (s *CRMService) RevenueSummary(ctx context.Context) (*domain.RevenueSummary, error) {
	deals, err := s.store.DealsByStatus(ctx, domain.DealClosed, domain.DealInProgress, domain.DealCompleted)
	if err != nil {
		return nil, err
	}
	out := &domain.RevenueSummary{DealCount: len(deals)}
	for _, d := range deals {
		out.TotalDealValue += d.Amount
		out.TotalPaid += d.Paid
	}
	out.Pending = math.Max(0, out.TotalDealValue-out.TotalPaid)
	if out.TotalDealValue > 0 {
		out.CollectionRate = out.TotalPaid / out.TotalDealValue * 100
	}
	return out, nil
}

// PendingPayments lists active deals that are not fully paid.
func (s *CRMService) PendingPayments(ctx context.Context) ([]domain.Deal, float64, error) {
	deals, err := s.ActiveDeals(ctx)
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Deal
	var outstanding float64
	for _, d := range deals {
		if d.PaymentStatus == domain.PaymentPaid {
			continue
		}
		out = append(out, d)
		outstanding += d.Remaining()
	}
	return out, outstanding, nil
}
