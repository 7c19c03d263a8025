package models

import "time"

// SequenceCounterModel holds the last issued value of one scope
type SequenceCounterModel struct {
	ScopeKey  string    `gorm:"type:varchar(200);primaryKey"`
	Sequence  int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}

// All returns every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&SupplierModel{},
		&LedgerTransactionModel{},
		&ReconciliationAuditModel{},
		&PurchaseModel{},
		&PurchaseReturnModel{},
		&SequenceCounterModel{},
	}
}
