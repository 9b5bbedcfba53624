package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/crm/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/storage/postgres/pgtest"
)

func TestRepo_Postgres(t *testing.T) {
	repo := NewRepo(pgtest.Open(t))
	ctx := context.Background()

	client, err := repo.CreateClient(ctx, domain.Client{Name: "Acme Corp", Email: "ops@acme.test", Company: "Acme", Source: "referral"})
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)

	found, err := repo.SearchClients(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ops@acme.test", found[0].Email)

	closedAt := time.Now()
	deal, err := repo.CreateDeal(ctx, domain.Deal{
		ClientID: client.ID, Title: "Website rebuild", Type: "project",
		Amount: 5000, Status: domain.DealClosed, PaymentStatus: domain.PaymentPending, ClosedAt: &closedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", deal.ClientName)

	_, total, err := repo.AddPayment(ctx, domain.Payment{DealID: deal.ID, Amount: 2000, Method: "wire"})
	require.NoError(t, err)
	assert.InDelta(t, 2000, total, 0.001)
	require.NoError(t, repo.UpdatePaymentStatus(ctx, deal.ID, domain.PaymentPartial))

	active, err := repo.DealsByStatus(ctx, domain.DealClosed, domain.DealInProgress)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, domain.PaymentPartial, active[0].PaymentStatus)
	assert.InDelta(t, 3000, active[0].Remaining(), 0.001)

	assert.ErrorIs(t, repo.UpdatePaymentStatus(ctx, "missing", domain.PaymentPaid), domain.ErrDealNotFound)
}
