package bootstrap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	tradeapp "github.com/subhransupk/shelfcure-sub008/internal/application/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/config"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil/pgtest"
)

func postgresServices(t *testing.T) *Services {
	t.Helper()
	pg := pgtest.New(t)
	cfg := &config.Config{}
	cfg.Ledger = config.LedgerConfig{
		RetryMaxAttempts:         50,
		RetryInitialInterval:     time.Millisecond,
		RetryMaxInterval:         20 * time.Millisecond,
		RetryMultiplier:          1.5,
		RetryRandomizationFactor: 0.5,
		DriftEpsilon:             decimal.New(1, -4),
	}
	svc, err := build(cfg, &persistence.Database{DB: pg.DB, Driver: "postgres"}, nil)
	require.NoError(t, err)
	return svc
}

func completedPurchase(t *testing.T, svc *Services, tenant, supplier uuid.UUID, total int64) *tradeapp.PurchaseResponse {
	t.Helper()
	ctx := context.Background()
	p, err := svc.Purchases.CreatePurchase(ctx, tenant, tradeapp.CreatePurchaseRequest{
		SupplierID:  supplier,
		TotalAmount: decimal.NewFromInt(total),
	}, nil)
	require.NoError(t, err)
	_, err = svc.Purchases.MarkOrdered(ctx, tenant, p.ID)
	require.NoError(t, err)
	_, err = svc.Purchases.MarkReceived(ctx, tenant, p.ID)
	require.NoError(t, err)
	p, err = svc.Purchases.Complete(ctx, tenant, p.ID, nil)
	require.NoError(t, err)
	return p
}

func TestPostgres_ConcurrentPaymentsKeepLedgerConsistent(t *testing.T) {
	svc := postgresServices(t)
	ctx := context.Background()
	tenant := uuid.New()

	supplier, err := svc.Suppliers.CreateSupplier(ctx, tenant, partnerapp.CreateSupplierRequest{
		Code: "SUP-PG", Name: "Sun Pharma Distributors",
	}, nil)
	require.NoError(t, err)

	purchases := []*tradeapp.PurchaseResponse{
		completedPurchase(t, svc, tenant, supplier.ID, 100),
		completedPurchase(t, svc, tenant, supplier.ID, 100),
	}

	// twelve payments of 10 per purchase; only ten fit
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for _, p := range purchases {
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func(purchaseID uuid.UUID) {
				defer wg.Done()
				_, err := svc.Payments.RecordPayment(ctx, tradeapp.RecordPaymentCommand{
					TenantID:   tenant,
					PurchaseID: purchaseID,
					Amount:     decimal.NewFromInt(10),
					Method:     trade.PaymentMethodCash,
				})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					rejected++
					return
				}
				accepted++
			}(p.ID)
		}
	}
	wg.Wait()

	assert.Equal(t, 20, accepted)
	assert.Equal(t, 4, rejected)

	report, err := svc.Balances.VerifyBalance(ctx, tenant, supplier.ID)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Empty(t, report.ChainBreaks)
	assert.True(t, report.Stored.IsZero(), "stored balance %s", report.Stored)
	assert.Equal(t, 22, report.TransactionCount)

	for _, p := range purchases {
		got, err := svc.Purchases.GetPurchase(ctx, tenant, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "paid", got.PaymentStatus)
		assert.True(t, got.BalanceAmount.IsZero())
	}
}

func TestPostgres_PurchaseNumbersAreContiguous(t *testing.T) {
	svc := postgresServices(t)
	ctx := context.Background()
	tenant := uuid.New()

	supplier, err := svc.Suppliers.CreateSupplier(ctx, tenant, partnerapp.CreateSupplierRequest{
		Code: "SUP-SEQ", Name: "Lupin Wholesale",
	}, nil)
	require.NoError(t, err)

	const n = 15
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.Purchases.CreatePurchase(ctx, tenant, tradeapp.CreatePurchaseRequest{
				SupplierID:  supplier.ID,
				TotalAmount: decimal.NewFromInt(50),
			}, nil)
			if assert.NoError(t, err) {
				numbers <- p.PurchaseNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for number := range numbers {
		assert.False(t, seen[number], "duplicate %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}
