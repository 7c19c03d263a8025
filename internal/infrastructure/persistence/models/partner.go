package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
)

// SupplierModel is the persistence model for the Supplier balance aggregate.
type SupplierModel struct {
	TenantAggregateModel
	Code                string                 `gorm:"type:varchar(50);not null"`
	Name                string                 `gorm:"type:varchar(200);not null"`
	Status              partner.SupplierStatus `gorm:"type:varchar(20);not null;default:'active'"`
	CreditLimit         decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	CreditDays          int                    `gorm:"not null;default:0"`
	OutstandingBalance  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPurchases      int                    `gorm:"not null;default:0"`
	TotalPurchaseAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	LastPurchaseDate    *time.Time
	LastPaymentDate     *time.Time
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Status:              m.Status,
		CreditLimit:         m.CreditLimit,
		CreditDays:          m.CreditDays,
		OutstandingBalance:  m.OutstandingBalance,
		TotalPurchases:      m.TotalPurchases,
		TotalPurchaseAmount: m.TotalPurchaseAmount,
		LastPurchaseDate:    m.LastPurchaseDate,
		LastPaymentDate:     m.LastPaymentDate,
	}
}

// FromDomain populates the persistence model from a domain Supplier
func (m *SupplierModel) FromDomain(s *partner.Supplier) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Code = s.Code
	m.Name = s.Name
	m.Status = s.Status
	m.CreditLimit = s.CreditLimit
	m.CreditDays = s.CreditDays
	m.OutstandingBalance = s.OutstandingBalance
	m.TotalPurchases = s.TotalPurchases
	m.TotalPurchaseAmount = s.TotalPurchaseAmount
	m.LastPurchaseDate = s.LastPurchaseDate
	m.LastPaymentDate = s.LastPaymentDate
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{}
	m.FromDomain(s)
	return m
}

// LedgerTransactionModel is one append-only ledger row. The unique index on
// (tenant_id, supplier_id, balance_version) allows a single entry per
// supplier version.
type LedgerTransactionModel struct {
	BaseModel
	TenantID        uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_supplier_version,priority:1;index:idx_ledger_supplier_date,priority:1"`
	SupplierID      uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_supplier_version,priority:2;index:idx_ledger_supplier_date,priority:2"`
	TransactionType partner.LedgerTransactionType `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	BalanceChange   decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	PreviousBalance decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	NewBalance      decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	ReferenceType   partner.ReferenceType         `gorm:"type:varchar(30)"`
	ReferenceID     *uuid.UUID                    `gorm:"type:uuid;index"`
	DocumentNumber  string                        `gorm:"type:varchar(50)"`
	Description     string                        `gorm:"type:varchar(500)"`
	ActorID         *uuid.UUID                    `gorm:"type:uuid"`
	Metadata        map[string]string             `gorm:"type:jsonb;serializer:json"`
	TransactionDate time.Time                     `gorm:"not null;index:idx_ledger_supplier_date,priority:3"`
	BalanceVersion  int                           `gorm:"not null;uniqueIndex:idx_ledger_supplier_version,priority:3"`
}

// TableName returns the table name for GORM
func (LedgerTransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the persistence model to a domain LedgerTransaction
func (m *LedgerTransactionModel) ToDomain() *partner.LedgerTransaction {
	return &partner.LedgerTransaction{
		BaseEntity:      m.BaseModel.ToDomain(),
		TenantID:        m.TenantID,
		SupplierID:      m.SupplierID,
		TransactionType: m.TransactionType,
		Amount:          m.Amount,
		BalanceChange:   m.BalanceChange,
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		Reference: partner.LedgerReference{
			Type:           m.ReferenceType,
			ID:             m.ReferenceID,
			DocumentNumber: m.DocumentNumber,
		},
		Description:     m.Description,
		ActorID:         m.ActorID,
		Metadata:        m.Metadata,
		TransactionDate: m.TransactionDate,
		BalanceVersion:  m.BalanceVersion,
	}
}

// LedgerTransactionModelFromDomain creates a persistence model from a domain entry
func LedgerTransactionModelFromDomain(t *partner.LedgerTransaction) *LedgerTransactionModel {
	m := &LedgerTransactionModel{
		TenantID:        t.TenantID,
		SupplierID:      t.SupplierID,
		TransactionType: t.TransactionType,
		Amount:          t.Amount,
		BalanceChange:   t.BalanceChange,
		PreviousBalance: t.PreviousBalance,
		NewBalance:      t.NewBalance,
		ReferenceType:   t.Reference.Type,
		ReferenceID:     t.Reference.ID,
		DocumentNumber:  t.Reference.DocumentNumber,
		Description:     t.Description,
		ActorID:         t.ActorID,
		Metadata:        t.Metadata,
		TransactionDate: t.TransactionDate,
		BalanceVersion:  t.BalanceVersion,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// ReconciliationAuditModel records one explicit repair
type ReconciliationAuditModel struct {
	BaseModel
	TenantID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind         partner.AuditKind `gorm:"type:varchar(30);not null"`
	SubjectID    *uuid.UUID        `gorm:"type:uuid"`
	ScopeKey     string            `gorm:"type:varchar(200)"`
	StoredBefore decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Calculated   decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Drift        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Details      string            `gorm:"type:text"`
	ActorID      *uuid.UUID        `gorm:"type:uuid"`
	Note         string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReconciliationAuditModel) TableName() string {
	return "reconciliation_audits"
}

// ToDomain converts the persistence model to a domain audit row
func (m *ReconciliationAuditModel) ToDomain() *partner.ReconciliationAudit {
	return &partner.ReconciliationAudit{
		BaseEntity:   m.BaseModel.ToDomain(),
		TenantID:     m.TenantID,
		Kind:         m.Kind,
		SubjectID:    m.SubjectID,
		ScopeKey:     m.ScopeKey,
		StoredBefore: m.StoredBefore,
		Calculated:   m.Calculated,
		Drift:        m.Drift,
		Details:      m.Details,
		ActorID:      m.ActorID,
		Note:         m.Note,
	}
}

// ReconciliationAuditModelFromDomain creates a persistence model from a domain audit row
func ReconciliationAuditModelFromDomain(a *partner.ReconciliationAudit) *ReconciliationAuditModel {
	return &ReconciliationAuditModel{
		BaseModel:    BaseModel{ID: a.ID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt},
		TenantID:     a.TenantID,
		Kind:         a.Kind,
		SubjectID:    a.SubjectID,
		ScopeKey:     a.ScopeKey,
		StoredBefore: a.StoredBefore,
		Calculated:   a.Calculated,
		Drift:        a.Drift,
		Details:      a.Details,
		ActorID:      a.ActorID,
		Note:         a.Note,
	}
}

