package vault

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInVault  Status = "in_vault"
	StatusReleased Status = "released"
	// Operator overrides; no protocol operation produces these.
	StatusMissing Status = "missing"
	StatusDamaged Status = "damaged"
)

// Item is one physical gold item under custody. Entry evidence is written
// once by vault-in; exit evidence stays nil until vault-out.
type Item struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	ItemID      string          `gorm:"column:item_id;type:char(32);not null;uniqueIndex:ux_vault_items_item_id"`
	LoanID      string          `gorm:"column:loan_id;type:char(32);not null;uniqueIndex:ux_vault_items_loan_id"`
	Barcode     *string         `gorm:"column:barcode;size:64;uniqueIndex:ux_vault_items_barcode"`
	Location    string          `gorm:"column:location;size:64;not null;index:idx_vault_items_location"`
	Description string          `gorm:"column:description;type:text"`
	Purity      string          `gorm:"column:purity;size:8"`
	WeightGrams decimal.Decimal `gorm:"column:weight_grams;type:decimal(12,3);not null"`
	Status      Status          `gorm:"column:status;type:varchar(16);not null;index:idx_vault_items_status"`

	InApprover1ID string    `gorm:"column:in_approver1_id;size:32;not null"`
	InApprover2ID string    `gorm:"column:in_approver2_id;size:32;not null"`
	InSignature1  string    `gorm:"column:in_signature1;type:mediumtext;not null"`
	InSignature2  string    `gorm:"column:in_signature2;type:mediumtext;not null"`
	VaultedAt     time.Time `gorm:"column:vaulted_at;not null"`

	OutApprover1ID *string    `gorm:"column:out_approver1_id;size:32"`
	OutApprover2ID *string    `gorm:"column:out_approver2_id;size:32"`
	OutSignature1  *string    `gorm:"column:out_signature1;type:mediumtext"`
	OutSignature2  *string    `gorm:"column:out_signature2;type:mediumtext"`
	ReleasedAt     *time.Time `gorm:"column:released_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Item) TableName() string { return "vault_items" }

// ExitEvidence is what vault-out writes onto an in_vault item.
type ExitEvidence struct {
	Approver1ID string
	Approver2ID string
	Signature1  string
	Signature2  string
	ReleasedAt  time.Time
}

type ListFilter struct {
	Status   Status
	Location string
	Limit    int
	Offset   int
}
