package trade

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	sequenceapp "github.com/subhransupk/shelfcure-sub008/internal/application/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil/ledgertest"
)

type services struct {
	f         *ledgertest.Fixture
	recorder  *partnerapp.TransactionRecorder
	purchases *PurchaseService
	payments  *PaymentLedger
	supplier  *partner.Supplier
}

func newServices(t *testing.T) *services {
	t.Helper()
	f := ledgertest.New(t)
	recorder := partnerapp.NewTransactionRecorder(f.Scope,
		partnerapp.WithClock(f.Clock.Now),
		partnerapp.WithRetryPolicy(ledgertest.FastRetry(20)))
	numbering := sequenceapp.NewNumberingService(f.Repos.Counters(), nil, nil)
	stats := partnerapp.NewSupplierStatsService(f.Scope, nil)
	return &services{
		f:         f,
		recorder:  recorder,
		purchases: NewPurchaseService(f.Scope, f.Repos.Purchases(), f.Repos.PurchaseReturns(), numbering, recorder, stats, nil),
		payments:  NewPaymentLedger(f.Scope, f.Repos.Purchases(), recorder),
		supplier:  f.SeedSupplier(t, "SUP-1"),
	}
}

// completedPurchase creates and completes a purchase of total
func (s *services) completedPurchase(t *testing.T, total string) *PurchaseResponse {
	t.Helper()
	ctx := context.Background()
	created, err := s.purchases.CreatePurchase(ctx, s.f.TenantID, CreatePurchaseRequest{
		SupplierID:  s.supplier.ID,
		TotalAmount: decimal.RequireFromString(total),
	}, nil)
	require.NoError(t, err)
	completed, err := s.purchases.Complete(ctx, s.f.TenantID, created.ID, nil)
	require.NoError(t, err)
	return completed
}

func (s *services) pay(purchaseID uuid.UUID, amount string) (*PaymentResult, error) {
	return s.payments.RecordPayment(context.Background(), RecordPaymentCommand{
		TenantID:   s.f.TenantID,
		PurchaseID: purchaseID,
		Amount:     decimal.RequireFromString(amount),
		Method:     "cash",
	})
}
