package reconciliation

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DocumentRef identifies one numbered document
type DocumentRef struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// DuplicateGroup is a set of documents sharing one number. Keeper is the
// earliest created and keeps the number.
type DuplicateGroup struct {
	Number     string        `json:"number"`
	Keeper     DocumentRef   `json:"keeper"`
	Stragglers []DocumentRef `json:"stragglers"`
}

// DuplicateReport lists the collisions found in a scope
type DuplicateReport struct {
	ScopeKey      string           `json:"scope_key"`
	DocumentCount int              `json:"document_count"`
	MaxObserved   int64            `json:"max_observed"`
	Groups        []DuplicateGroup `json:"groups"`
}

// HasDuplicates reports whether any number is held by more than one document
func (r *DuplicateReport) HasDuplicates() bool {
	return len(r.Groups) > 0
}

// Reassignment is one number change made by a repair
type Reassignment struct {
	DocumentID uuid.UUID `json:"document_id"`
	OldNumber  string    `json:"old_number"`
	NewNumber  string    `json:"new_number"`
}

// SequenceRepairResult is the outcome of a duplicate repair
type SequenceRepairResult struct {
	DuplicateReport
	Reassignments []Reassignment `json:"reassignments"`
	CounterBefore int64          `json:"counter_before"`
	CounterAfter  int64          `json:"counter_after"`
	AuditID       *uuid.UUID     `json:"audit_id,omitempty"`
}

// CounterReport compares a counter with the numbers actually issued
type CounterReport struct {
	ScopeKey      string `json:"scope_key"`
	Counter       int64  `json:"counter"`
	MaxObserved   int64  `json:"max_observed"`
	DocumentCount int    `json:"document_count"`
	Behind        bool   `json:"behind"`
}

// SequenceRepairer finds and fixes document numbers that were issued more
// than once within a scope.
type SequenceRepairer struct {
	scope unitofwork.TransactionScope
	settings
}

// NewSequenceRepairer creates a new SequenceRepairer
func NewSequenceRepairer(scope unitofwork.TransactionScope, opts ...Option) *SequenceRepairer {
	r := &SequenceRepairer{scope: scope, settings: defaultSettings()}
	for _, opt := range opts {
		opt(&r.settings)
	}
	return r
}

type scopeTarget struct {
	key    sequence.ScopeKey
	scope  sequence.Scope
	tenant uuid.UUID
}

func resolve(key sequence.ScopeKey) (scopeTarget, error) {
	if err := key.Validate(); err != nil {
		return scopeTarget{}, err
	}
	scope, err := key.Parse()
	if err != nil {
		return scopeTarget{}, err
	}
	tenantID, err := uuid.Parse(scope.StoreID)
	if err != nil {
		return scopeTarget{}, shared.NewValidationError("Scope key store must be a store ID: " + scope.StoreID)
	}
	return scopeTarget{key: key, scope: scope, tenant: tenantID}, nil
}

func documentsFor(repos unitofwork.TransactionalRepositories, docType sequence.DocumentType) sequence.NumberedDocumentRepository {
	if docType == sequence.DocumentTypeReturn {
		return repos.PurchaseReturns()
	}
	return repos.Purchases()
}

// scan groups the scope's documents by number and finds the highest
// sequence in use. Numbers that do not parse are ignored.
func (r *SequenceRepairer) scan(ctx context.Context, repos unitofwork.TransactionalRepositories, t scopeTarget) (*DuplicateReport, error) {
	docs, err := documentsFor(repos, t.scope.DocumentType).FindByNumberPrefix(ctx, t.tenant, t.scope.NumberPrefix())
	if err != nil {
		return nil, err
	}

	report := &DuplicateReport{ScopeKey: t.key.String(), DocumentCount: len(docs), Groups: make([]DuplicateGroup, 0)}
	byNumber := make(map[string][]DocumentRef)
	var numbers []string
	for _, d := range docs {
		seq, err := t.scope.ParseNumberSequence(d.Number)
		if err != nil {
			logger.FromContextOr(ctx, r.logger).Warn("Skipping unparseable document number",
				zap.String("scope_key", t.key.String()),
				zap.String("document_id", d.ID.String()),
				zap.String("number", d.Number))
			continue
		}
		if seq > report.MaxObserved {
			report.MaxObserved = seq
		}
		if _, ok := byNumber[d.Number]; !ok {
			numbers = append(numbers, d.Number)
		}
		byNumber[d.Number] = append(byNumber[d.Number], DocumentRef{ID: d.ID, Number: d.Number, CreatedAt: d.CreatedAt})
	}

	sort.Strings(numbers)
	for _, n := range numbers {
		refs := byNumber[n]
		if len(refs) < 2 {
			continue
		}
		sortByCreation(refs)
		report.Groups = append(report.Groups, DuplicateGroup{Number: n, Keeper: refs[0], Stragglers: refs[1:]})
	}
	return report, nil
}

func sortByCreation(refs []DocumentRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
			return refs[i].CreatedAt.Before(refs[j].CreatedAt)
		}
		return refs[i].ID.String() < refs[j].ID.String()
	})
}

// FindDuplicates reports colliding numbers without changing anything
func (r *SequenceRepairer) FindDuplicates(ctx context.Context, key sequence.ScopeKey) (*DuplicateReport, error) {
	t, err := resolve(key)
	if err != nil {
		return nil, err
	}
	var report *DuplicateReport
	err = r.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		report, err = r.scan(ctx, repos, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// VerifyCounter compares the scope's counter with the highest issued number
func (r *SequenceRepairer) VerifyCounter(ctx context.Context, key sequence.ScopeKey) (*CounterReport, error) {
	t, err := resolve(key)
	if err != nil {
		return nil, err
	}
	var report *CounterReport
	err = r.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		dups, err := r.scan(ctx, repos, t)
		if err != nil {
			return err
		}
		current, err := repos.Counters().Current(ctx, t.key)
		if err != nil {
			return err
		}
		report = &CounterReport{
			ScopeKey:      t.key.String(),
			Counter:       current,
			MaxObserved:   dups.MaxObserved,
			DocumentCount: dups.DocumentCount,
			Behind:        current < dups.MaxObserved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// RepairDuplicates keeps the earliest holder of every duplicated number and
// gives each later holder a freshly minted number. The counter row is locked
// before the scan and only ever raised, first to the highest sequence in
// use so the new numbers cannot collide. Everything, including one audit
// row, commits in a single transaction.
func (r *SequenceRepairer) RepairDuplicates(ctx context.Context, key sequence.ScopeKey, actorID *uuid.UUID) (*SequenceRepairResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "repair_duplicates",
		telemetry.SpanAttrScopeKey, key.String())
	defer span.End()

	t, err := resolve(key)
	if err != nil {
		return nil, err
	}

	var result *SequenceRepairResult
	err = r.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		before, err := repos.Counters().Lock(ctx, t.key)
		if err != nil {
			return err
		}
		report, err := r.scan(ctx, repos, t)
		if err != nil {
			return err
		}
		result = &SequenceRepairResult{
			DuplicateReport: *report,
			Reassignments:   make([]Reassignment, 0),
			CounterBefore:   before,
			CounterAfter:    before,
		}
		if !report.HasDuplicates() && before >= report.MaxObserved {
			return nil
		}

		counter, err := repos.Counters().RaiseTo(ctx, t.key, report.MaxObserved)
		if err != nil {
			return err
		}

		var stragglers []DocumentRef
		for _, g := range report.Groups {
			stragglers = append(stragglers, g.Stragglers...)
		}
		sortByCreation(stragglers)

		docs := documentsFor(repos, t.scope.DocumentType)
		for _, s := range stragglers {
			seq, err := repos.Counters().Next(ctx, t.key)
			if err != nil {
				return err
			}
			number := t.scope.FormatNumber(seq)
			if err := docs.ReassignNumber(ctx, t.tenant, s.ID, number); err != nil {
				return err
			}
			counter = seq
			result.Reassignments = append(result.Reassignments, Reassignment{DocumentID: s.ID, OldNumber: s.Number, NewNumber: number})
		}

		result.CounterAfter = counter

		details, err := json.Marshal(result.Reassignments)
		if err != nil {
			return err
		}
		audit := partner.NewSequenceRepairAudit(t.tenant, t.key.String(), string(details), actorID,
			"reassigned duplicate document numbers and re-seeded counter")
		if err := repos.Audits().Append(ctx, audit); err != nil {
			return err
		}
		result.AuditID = &audit.ID
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if result.AuditID != nil {
		logger.FromContextOr(ctx, r.logger).Warn("Duplicate document numbers repaired",
			zap.String("scope_key", key.String()),
			zap.Int("reassigned", len(result.Reassignments)),
			zap.Int64("counter_before", result.CounterBefore),
			zap.Int64("counter_after", result.CounterAfter))
	}
	return result, nil
}
