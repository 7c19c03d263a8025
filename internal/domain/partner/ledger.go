package partner

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortLedger orders entries in commit order: by the balance version each
// entry produced, then by transaction date and creation time.
func SortLedger(txs []*LedgerTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if a.BalanceVersion != b.BalanceVersion {
			return a.BalanceVersion < b.BalanceVersion
		}
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// FoldBalance sums the balance changes of all entries
func FoldBalance(txs []*LedgerTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.BalanceChange)
	}
	return total
}

// ChainBreak describes consecutive entries whose balances do not link up
type ChainBreak struct {
	TransactionID    uuid.UUID       `json:"transaction_id"`
	BalanceVersion   int             `json:"balance_version"`
	ExpectedPrevious decimal.Decimal `json:"expected_previous"`
	ActualPrevious   decimal.Decimal `json:"actual_previous"`
}

// FindChainBreaks walks sorted entries and reports every entry whose
// PreviousBalance differs from the NewBalance of the entry before it. The
// first entry is expected to start from zero.
func FindChainBreaks(txs []*LedgerTransaction) []ChainBreak {
	var breaks []ChainBreak
	expected := decimal.Zero
	for _, tx := range txs {
		if !tx.PreviousBalance.Equal(expected) {
			breaks = append(breaks, ChainBreak{
				TransactionID:    tx.ID,
				BalanceVersion:   tx.BalanceVersion,
				ExpectedPrevious: expected,
				ActualPrevious:   tx.PreviousBalance,
			})
		}
		expected = tx.NewBalance
	}
	return breaks
}
