package persistence

import (
	"context"

	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements unitofwork.TransactionScope using GORM
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside a database transaction. A returned error or a
// panic rolls everything back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos unitofwork.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Suppliers() partner.SupplierRepository {
	return NewGormSupplierRepository(r.tx)
}

func (r *gormTransactionalRepositories) LedgerTransactions() partner.LedgerTransactionRepository {
	return NewGormLedgerTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Audits() partner.ReconciliationAuditRepository {
	return NewGormReconciliationAuditRepository(r.tx)
}

func (r *gormTransactionalRepositories) Purchases() trade.PurchaseRepository {
	return NewGormPurchaseRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseReturns() trade.PurchaseReturnRepository {
	return NewGormPurchaseReturnRepository(r.tx)
}

func (r *gormTransactionalRepositories) Counters() sequence.CounterRepository {
	return NewGormCounterRepository(r.tx)
}

// NewRepositories binds every repository to db outside any transaction
func NewRepositories(db *gorm.DB) *unitofwork.Repositories {
	return &unitofwork.Repositories{
		SupplierRepo:       NewGormSupplierRepository(db),
		LedgerRepo:         NewGormLedgerTransactionRepository(db),
		AuditRepo:          NewGormReconciliationAuditRepository(db),
		PurchaseRepo:       NewGormPurchaseRepository(db),
		PurchaseReturnRepo: NewGormPurchaseReturnRepository(db),
		CounterRepo:        NewGormCounterRepository(db),
	}
}

var (
	_ unitofwork.TransactionScope          = (*GormTransactionScope)(nil)
	_ unitofwork.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
