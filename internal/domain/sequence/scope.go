// Package sequence models per-scope document numbering.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// DocumentType is a kind of numbered document
type DocumentType string

const (
	DocumentTypePurchase DocumentType = "purchase"
	DocumentTypeReturn   DocumentType = "return"
)

// Prefix returns the document number prefix for the type
func (d DocumentType) Prefix() string {
	switch d {
	case DocumentTypePurchase:
		return "PO"
	case DocumentTypeReturn:
		return "PR"
	}
	return ""
}

// IsValid returns true if the document type is known
func (d DocumentType) IsValid() bool {
	return d.Prefix() != ""
}

// ScopeKey identifies one counter: "<store>:<document type>:<yyyy>:<mm>"
type ScopeKey string

// Scope is the parsed form of a ScopeKey
type Scope struct {
	StoreID      string
	DocumentType DocumentType
	Year         int
	Month        int
}

// NewScopeKey builds the scope key for documents of docType created at the given time
func NewScopeKey(storeID string, docType DocumentType, at time.Time) ScopeKey {
	return Scope{StoreID: storeID, DocumentType: docType, Year: at.Year(), Month: int(at.Month())}.Key()
}

// Key renders the scope as a ScopeKey
func (s Scope) Key() ScopeKey {
	return ScopeKey(fmt.Sprintf("%s:%s:%04d:%02d", s.StoreID, s.DocumentType, s.Year, s.Month))
}

// String implements fmt.Stringer
func (k ScopeKey) String() string {
	return string(k)
}

// Validate checks that the key is non-empty and has no surrounding whitespace
func (k ScopeKey) Validate() error {
	if strings.TrimSpace(string(k)) == "" {
		return shared.NewValidationError("Scope key cannot be empty")
	}
	if strings.TrimSpace(string(k)) != string(k) {
		return shared.NewValidationError("Scope key cannot have surrounding whitespace")
	}
	if len(k) > 200 {
		return shared.NewValidationError("Scope key cannot exceed 200 characters")
	}
	return nil
}

// Parse splits a structured scope key. Counters accept any opaque key; only
// document-backed scopes need to parse.
func (k ScopeKey) Parse() (Scope, error) {
	parts := strings.Split(string(k), ":")
	if len(parts) != 4 {
		return Scope{}, shared.NewValidationError("Scope key must look like store:type:yyyy:mm")
	}
	docType := DocumentType(parts[1])
	if !docType.IsValid() {
		return Scope{}, shared.NewValidationError("Unknown document type in scope key: " + parts[1])
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 2000 || year > 9999 {
		return Scope{}, shared.NewValidationError("Invalid year in scope key: " + parts[2])
	}
	month, err := strconv.Atoi(parts[3])
	if err != nil || month < 1 || month > 12 {
		return Scope{}, shared.NewValidationError("Invalid month in scope key: " + parts[3])
	}
	if parts[0] == "" {
		return Scope{}, shared.NewValidationError("Scope key is missing the store")
	}
	return Scope{StoreID: parts[0], DocumentType: docType, Year: year, Month: month}, nil
}

// NumberPrefix is the part of every document number in the scope before the sequence
func (s Scope) NumberPrefix() string {
	return fmt.Sprintf("%s-%04d%02d-", s.DocumentType.Prefix(), s.Year, s.Month)
}

// FormatNumber renders a document number, e.g. PR-202403-0001
func (s Scope) FormatNumber(seq int64) string {
	return fmt.Sprintf("%s%04d", s.NumberPrefix(), seq)
}

var documentNumberPattern = regexp.MustCompile(`^([A-Z]{2})-(\d{4})(\d{2})-(\d{4,})$`)

// ParseNumberSequence extracts the sequence from a document number that
// belongs to this scope.
func (s Scope) ParseNumberSequence(number string) (int64, error) {
	m := documentNumberPattern.FindStringSubmatch(number)
	if m == nil || !strings.HasPrefix(number, s.NumberPrefix()) {
		return 0, shared.NewValidationError(fmt.Sprintf("Document number %q does not belong to scope %s", number, s.Key()))
	}
	seq, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return 0, shared.NewValidationError(fmt.Sprintf("Invalid sequence in document number %q", number))
	}
	return seq, nil
}
