package sequence

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CounterRepository stores one integer per scope key
type CounterRepository interface {
	// Next atomically increments the counter for scope and returns the new
	// value, creating the counter at 1 on first use. It must be a single
	// storage operation.
	Next(ctx context.Context, scope ScopeKey) (int64, error)

	// Current returns the counter value without incrementing; 0 if unused
	Current(ctx context.Context, scope ScopeKey) (int64, error)

	// Set overwrites the counter value. Tooling only.
	Set(ctx context.Context, scope ScopeKey, value int64) error

	// RaiseTo sets the counter to max(current, value) in a single storage
	// operation and returns the resulting value. It never lowers a counter.
	RaiseTo(ctx context.Context, scope ScopeKey, value int64) (int64, error)

	// Lock holds the counter row for the rest of the transaction, creating it
	// at 0 when missing, and returns its value.
	Lock(ctx context.Context, scope ScopeKey) (int64, error)
}

// NumberedDocument is the minimum view of a document carrying a number
type NumberedDocument struct {
	ID        uuid.UUID
	Number    string
	CreatedAt time.Time
}

// NumberedDocumentRepository lets repair tooling read and reassign numbers
type NumberedDocumentRepository interface {
	// FindByNumberPrefix returns every document of the store whose number starts with prefix
	FindByNumberPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]NumberedDocument, error)

	// ReassignNumber changes the number of one document
	ReassignNumber(ctx context.Context, tenantID, id uuid.UUID, number string) error
}
