package domain

import (
	"strings"
	"time"
)

type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	Source       string    `json:"source"`
	Notes        string    `json:"notes,omitempty"`
	FirstContact time.Time `json:"first_contact"`
	CreatedAt    time.Time `json:"created_at"`
}

type DealStatus string

const (
	DealProspect    DealStatus = "prospect"
	DealNegotiating DealStatus = "negotiating"
	DealClosed      DealStatus = "closed"
	DealInProgress  DealStatus = "in_progress"
	DealCompleted   DealStatus = "completed"
	DealCancelled   DealStatus = "cancelled"
)

func ParseDealStatus(s string) (DealStatus, error) {
	switch v := DealStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return DealProspect, nil
	case DealProspect, DealNegotiating, DealClosed, DealInProgress, DealCompleted, DealCancelled:
		return v, nil
	}
	return "", ErrInvalidDealState
}

// Active deals are signed and not yet finished.
func (s DealStatus) Active() bool {
	return s == DealClosed || s == DealInProgress
}

// Billable deals count toward revenue.
func (s DealStatus) Billable() bool {
	return s.Active() || s == DealCompleted
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

type Deal struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	ClientName    string        `json:"client_name,omitempty"`
	Title         string        `json:"title"`
	Type          string        `json:"type"`
	Amount        float64       `json:"amount"`
	Status        DealStatus    `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Paid          float64       `json:"paid"`
	Notes         string        `json:"notes,omitempty"`
	ClosedAt      *time.Time    `json:"closed_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (d Deal) Remaining() float64 {
	if r := d.Amount - d.Paid; r > 0 {
		return r
	}
	return 0
}

type Payment struct {
	ID     string    `json:"id"`
	DealID string    `json:"deal_id"`
	Amount float64   `json:"amount"`
	Method string    `json:"method"`
	Notes  string    `json:"notes,omitempty"`
	Date   time.Time `json:"date"`
}

type ClientDetails struct {
	Client     Client  `json:"client"`
	Deals      []Deal  `json:"deals"`
	TotalValue float64 `json:"total_value"`
}

type PaymentResult struct {
	Payment   Payment `json:"payment"`
	Deal      Deal    `json:"deal"`
	TotalPaid float64 `json:"total_paid"`
	Remaining float64 `json:"remaining"`
}

type RevenueSummary struct {
	TotalDealValue float64 `json:"total_deal_value"`
	TotalPaid      float64 `json:"total_paid"`
	Pending        float64 `json:"pending"`
	DealCount      int     `json:"deal_count"`
	CollectionRate float64 `json:"collection_rate"`
}
