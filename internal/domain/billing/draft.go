package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Totals is the fold of the current line items. It is always recomputed
// from scratch after a mutation, never patched incrementally, so it can
// not drift from the items.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Equals compares two totals value-wise
func (t Totals) Equals(other Totals) bool {
	return t.Subtotal.Equal(other.Subtotal) &&
		t.Tax.Equal(other.Tax) &&
		t.Total.Equal(other.Total)
}

// DraftInvoiceState is the editable set of line items for one booking
// prior to the completion commit, together with its derived totals.
// Items preserve insertion order for display.
type DraftInvoiceState struct {
	RemoteVersion int64      `json:"remote_version"`
	Items         []LineItem `json:"items"`
	Totals        Totals     `json:"totals"`
}

// NewDraftInvoiceState creates an empty draft
func NewDraftInvoiceState() DraftInvoiceState {
	return DraftInvoiceState{
		Items:  make([]LineItem, 0),
		Totals: foldTotals(nil),
	}
}

// IsEmpty reports whether the draft has no line items
func (s *DraftInvoiceState) IsEmpty() bool {
	return len(s.Items) == 0
}

// ItemByID returns the index of the item with the given id, or -1
func (s *DraftInvoiceState) ItemByID(id uuid.UUID) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy usable as a rollback snapshot
func (s *DraftInvoiceState) Clone() DraftInvoiceState {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return DraftInvoiceState{
		RemoteVersion: s.RemoteVersion,
		Items:         items,
		Totals:        s.Totals,
	}
}

// recomputeTotals folds the current items into fresh totals
func (s *DraftInvoiceState) recomputeTotals() {
	s.Totals = foldTotals(s.Items)
}

func foldTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	total := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].Amount)
		tax = tax.Add(items[i].TaxAmount)
		total = total.Add(items[i].LineTotal)
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: total}
}
