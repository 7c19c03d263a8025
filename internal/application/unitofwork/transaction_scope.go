// Package unitofwork holds the transactional contracts shared by the
// ledger-affecting application services.
package unitofwork

import (
	"context"

	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
)

// TransactionScope runs a function inside one database transaction.
// If the function returns an error the transaction is rolled back,
// otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the current
// transaction. Every write of a ledger-affecting operation goes through
// these so the supplier aggregate, the ledger row and the purchase commit
// or roll back together.
type TransactionalRepositories interface {
	Suppliers() partner.SupplierRepository
	LedgerTransactions() partner.LedgerTransactionRepository
	Audits() partner.ReconciliationAuditRepository
	Purchases() trade.PurchaseRepository
	PurchaseReturns() trade.PurchaseReturnRepository
	Counters() sequence.CounterRepository
}

// Repositories is a plain bundle of repositories
type Repositories struct {
	SupplierRepo       partner.SupplierRepository
	LedgerRepo         partner.LedgerTransactionRepository
	AuditRepo          partner.ReconciliationAuditRepository
	PurchaseRepo       trade.PurchaseRepository
	PurchaseReturnRepo trade.PurchaseReturnRepository
	CounterRepo        sequence.CounterRepository
}

func (r *Repositories) Suppliers() partner.SupplierRepository { return r.SupplierRepo }
func (r *Repositories) LedgerTransactions() partner.LedgerTransactionRepository { return r.LedgerRepo }
func (r *Repositories) Audits() partner.ReconciliationAuditRepository { return r.AuditRepo }
func (r *Repositories) Purchases() trade.PurchaseRepository { return r.PurchaseRepo }
func (r *Repositories) PurchaseReturns() trade.PurchaseReturnRepository { return r.PurchaseReturnRepo }
func (r *Repositories) Counters() sequence.CounterRepository { return r.CounterRepo }

// NoOpTransactionScope runs the function directly against the given
// repositories without a transaction. Used by unit tests.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}
