package audit

import "time"

type Action string

const (
	ActionVaultIn       Action = "vault_in"
	ActionVaultOut      Action = "vault_out"
	ActionLoanCreated   Action = "loan_created"
	ActionPriceQuoteSet Action = "price_quote_set"
)

// Entry is append-only. Details holds a JSON object.
type Entry struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EntryID   string    `gorm:"column:entry_id;type:char(36);not null;uniqueIndex:ux_audit_entries_entry_id" json:"entry_id"`
	Action    Action    `gorm:"column:action;size:32;not null" json:"action"`
	LoanID    *string   `gorm:"column:loan_id;type:char(32);index:idx_audit_entries_loan" json:"loan_id,omitempty"`
	ActorID   string    `gorm:"column:actor_id;size:32" json:"actor_id"`
	Details   string    `gorm:"column:details;type:text" json:"details"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (Entry) TableName() string { return "audit_entries" }
