package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const nextSequenceSQL = `INSERT INTO sequence_counters (scope_key, sequence, created_at, updated_at)
VALUES (?, 1, ?, ?)
ON CONFLICT (scope_key) DO UPDATE
SET sequence = sequence_counters.sequence + 1, updated_at = excluded.updated_at
RETURNING sequence`

const setSequenceSQL = `INSERT INTO sequence_counters (scope_key, sequence, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (scope_key) DO UPDATE
SET sequence = excluded.sequence, updated_at = excluded.updated_at`

const ensureSequenceSQL = `INSERT INTO sequence_counters (scope_key, sequence, created_at, updated_at)
VALUES (?, 0, ?, ?)
ON CONFLICT (scope_key) DO NOTHING`

// raiseSequenceSQL takes the larger of the stored and requested value. The
// %s is GREATEST on postgres and the two-argument MAX on sqlite.
const raiseSequenceSQL = `INSERT INTO sequence_counters (scope_key, sequence, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (scope_key) DO UPDATE
SET sequence = %s(sequence_counters.sequence, excluded.sequence), updated_at = excluded.updated_at
RETURNING sequence`

// GormCounterRepository keeps one counter row per scope key. Next is a
// single upsert statement, so the row lock the database takes for the
// conflicting insert serialises concurrent callers.
type GormCounterRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormCounterRepository creates a new GormCounterRepository
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Next increments the counter for scope and returns the new value
func (r *GormCounterRepository) Next(ctx context.Context, scope sequence.ScopeKey) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	now := r.now()
	var value int64
	if err := r.db.WithContext(ctx).Raw(nextSequenceSQL, scope.String(), now, now).Row().Scan(&value); err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", scope, err)
	}
	return value, nil
}

// Current returns the counter value, 0 when the scope has never been used
func (r *GormCounterRepository) Current(ctx context.Context, scope sequence.ScopeKey) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	var values []int64
	if err := r.db.WithContext(ctx).Model(&models.SequenceCounterModel{}).
		Where("scope_key = ?", scope.String()).
		Limit(1).
		Pluck("sequence", &values).Error; err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	return values[0], nil
}

// Set overwrites the counter value
func (r *GormCounterRepository) Set(ctx context.Context, scope sequence.ScopeKey, value int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if value < 0 {
		return fmt.Errorf("sequence value cannot be negative: %d", value)
	}
	now := r.now()
	return r.db.WithContext(ctx).Exec(setSequenceSQL, scope.String(), value, now, now).Error
}

// RaiseTo moves the counter up to value in one statement and returns the
// stored value afterwards. A counter already above value is left alone.
func (r *GormCounterRepository) RaiseTo(ctx context.Context, scope sequence.ScopeKey, value int64) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("sequence value cannot be negative: %d", value)
	}
	greatest := "GREATEST"
	if r.db.Dialector.Name() == "sqlite" {
		greatest = "MAX"
	}
	now := r.now()
	var stored int64
	if err := r.db.WithContext(ctx).Raw(fmt.Sprintf(raiseSequenceSQL, greatest), scope.String(), value, now, now).
		Row().Scan(&stored); err != nil {
		return 0, fmt.Errorf("raise sequence for %s: %w", scope, err)
	}
	return stored, nil
}

// Lock creates the counter row if needed and holds it FOR UPDATE until the
// surrounding transaction ends. It returns the current value. Outside a
// transaction the lock is released immediately.
func (r *GormCounterRepository) Lock(ctx context.Context, scope sequence.ScopeKey) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	now := r.now()
	db := r.db.WithContext(ctx)
	if err := db.Exec(ensureSequenceSQL, scope.String(), now, now).Error; err != nil {
		return 0, fmt.Errorf("lock sequence for %s: %w", scope, err)
	}
	var row models.SequenceCounterModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope_key = ?", scope.String()).
		First(&row).Error; err != nil {
		return 0, fmt.Errorf("lock sequence for %s: %w", scope, err)
	}
	return row.Sequence, nil
}

var _ sequence.CounterRepository = (*GormCounterRepository)(nil)
