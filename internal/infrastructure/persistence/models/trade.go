package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
)

// PurchaseModel is the persistence model for a purchase and its embedded
// payment history.
type PurchaseModel struct {
	TenantAggregateModel
	SupplierID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	PurchaseNumber string               `gorm:"type:varchar(50);not null;index"`
	Status         trade.PurchaseStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	TotalAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceAmount  decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	CreditAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	ReturnedAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentStatus  trade.PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending'"`
	DueDate        *time.Time
	CompletedAt    *time.Time
	Notes          string                `gorm:"type:text"`
	PaymentHistory []trade.PaymentRecord `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// ToDomain converts the persistence model to a domain Purchase
func (m *PurchaseModel) ToDomain() *trade.Purchase {
	history := m.PaymentHistory
	if history == nil {
		history = make([]trade.PaymentRecord, 0)
	}
	return &trade.Purchase{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SupplierID:          m.SupplierID,
		PurchaseNumber:      m.PurchaseNumber,
		Status:              m.Status,
		TotalAmount:         m.TotalAmount,
		PaidAmount:          m.PaidAmount,
		BalanceAmount:       m.BalanceAmount,
		CreditAmount:        m.CreditAmount,
		ReturnedAmount:      m.ReturnedAmount,
		PaymentStatus:       m.PaymentStatus,
		DueDate:             m.DueDate,
		CompletedAt:         m.CompletedAt,
		Notes:               m.Notes,
		PaymentHistory:      history,
	}
}

// FromDomain populates the persistence model from a domain Purchase
func (m *PurchaseModel) FromDomain(p *trade.Purchase) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.SupplierID = p.SupplierID
	m.PurchaseNumber = p.PurchaseNumber
	m.Status = p.Status
	m.TotalAmount = p.TotalAmount
	m.PaidAmount = p.PaidAmount
	m.BalanceAmount = p.BalanceAmount
	m.CreditAmount = p.CreditAmount
	m.ReturnedAmount = p.ReturnedAmount
	m.PaymentStatus = p.PaymentStatus
	m.DueDate = p.DueDate
	m.CompletedAt = p.CompletedAt
	m.Notes = p.Notes
	m.PaymentHistory = p.PaymentHistory
}

// PurchaseModelFromDomain creates a persistence model from a domain Purchase
func PurchaseModelFromDomain(p *trade.Purchase) *PurchaseModel {
	m := &PurchaseModel{}
	m.FromDomain(p)
	return m
}

// PurchaseReturnModel is the persistence model for a purchase return
type PurchaseReturnModel struct {
	TenantAggregateModel
	ReturnNumber        string          `gorm:"type:varchar(50);not null;index"`
	PurchaseID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierID          uuid.UUID       `gorm:"type:uuid;not null"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason              string          `gorm:"type:varchar(500)"`
	LedgerTransactionID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PurchaseReturnModel) TableName() string {
	return "purchase_returns"
}

// ToDomain converts the persistence model to a domain PurchaseReturn
func (m *PurchaseReturnModel) ToDomain() *trade.PurchaseReturn {
	return &trade.PurchaseReturn{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		ReturnNumber:        m.ReturnNumber,
		PurchaseID:          m.PurchaseID,
		SupplierID:          m.SupplierID,
		Amount:              m.Amount,
		Reason:              m.Reason,
		LedgerTransactionID: m.LedgerTransactionID,
	}
}

// PurchaseReturnModelFromDomain creates a persistence model from a domain PurchaseReturn
func PurchaseReturnModelFromDomain(r *trade.PurchaseReturn) *PurchaseReturnModel {
	m := &PurchaseReturnModel{
		ReturnNumber:        r.ReturnNumber,
		PurchaseID:          r.PurchaseID,
		SupplierID:          r.SupplierID,
		Amount:              r.Amount,
		Reason:              r.Reason,
		LedgerTransactionID: r.LedgerTransactionID,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	return m
}
