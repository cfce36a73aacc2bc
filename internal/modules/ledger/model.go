// README: Admin ledger entries and period summaries.
package ledger

import (
	"time"

	"taxihub/internal/types"
)

type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type Entry struct {
	ID         types.ID  `json:"id"`
	Kind       Kind      `json:"kind" binding:"required,oneof=income expense"`
	Category   string    `json:"category" binding:"required,max=64"`
	Amount     int64     `json:"amount_paise" binding:"required,gt=0"`
	Currency   string    `json:"currency"`
	Note       string    `json:"note,omitempty" binding:"max=500"`
	BookingRef *string   `json:"booking_ref,omitempty"`
	EntryDate  time.Time `json:"entry_date" binding:"required"`
	CreatedAt  time.Time `json:"created_at"`
}

type Summary struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Income   int64     `json:"income_paise"`
	Expense  int64     `json:"expense_paise"`
	Net      int64     `json:"net_paise"`
	Entries  int       `json:"entries"`
	Currency string    `json:"currency"`
}
