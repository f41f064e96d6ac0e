package vault

import (
	"strings"
	"time"

	domain "rahnu-backend/internal/domain/vault"
	"rahnu-backend/internal/usecase/valuation"
)

type VaultInInput struct {
	LoanID      string
	Barcode     string // optional
	Location    string
	Approver1ID string
	Approver2ID string
	Signature1  string // opaque, usually base64
	Signature2  string
	ActorID     string // authenticated caller, for the audit trail
}

func (in *VaultInInput) normalize() {
	in.LoanID = strings.TrimSpace(in.LoanID)
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.Location = strings.TrimSpace(in.Location)
	in.Approver1ID = strings.TrimSpace(in.Approver1ID)
	in.Approver2ID = strings.TrimSpace(in.Approver2ID)
}

type VaultOutInput struct {
	LoanID      string
	Approver1ID string
	Approver2ID string
	Signature1  string
	Signature2  string
	ActorID     string
}

func (in *VaultOutInput) normalize() {
	in.LoanID = strings.TrimSpace(in.LoanID)
	in.Approver1ID = strings.TrimSpace(in.Approver1ID)
	in.Approver2ID = strings.TrimSpace(in.Approver2ID)
}

type ApprovalDTO struct {
	Approver1ID string    `json:"approver1_id"`
	Approver2ID string    `json:"approver2_id"`
	Signature1  string    `json:"signature1"`
	Signature2  string    `json:"signature2"`
	At          time.Time `json:"at"`
}

type VaultItemDTO struct {
	ItemID      string       `json:"item_id"`
	LoanID      string       `json:"loan_id"`
	Barcode     *string      `json:"barcode,omitempty"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Purity      string       `json:"purity"`
	WeightGrams string       `json:"weight_grams"`
	Status      string       `json:"status"`
	Entry       ApprovalDTO  `json:"entry"`
	Exit        *ApprovalDTO `json:"exit,omitempty"`
}

func toDTO(it *domain.Item) *VaultItemDTO {
	dto := &VaultItemDTO{
		ItemID:      it.ItemID,
		LoanID:      it.LoanID,
		Barcode:     it.Barcode,
		Location:    it.Location,
		Description: it.Description,
		Purity:      it.Purity,
		WeightGrams: valuation.RoundWeight(it.WeightGrams).StringFixed(3),
		Status:      string(it.Status),
		Entry: ApprovalDTO{
			Approver1ID: it.InApprover1ID,
			Approver2ID: it.InApprover2ID,
			Signature1:  it.InSignature1,
			Signature2:  it.InSignature2,
			At:          it.VaultedAt.UTC(),
		},
	}
	if it.ReleasedAt != nil {
		dto.Exit = &ApprovalDTO{
			Approver1ID: deref(it.OutApprover1ID),
			Approver2ID: deref(it.OutApprover2ID),
			Signature1:  deref(it.OutSignature1),
			Signature2:  deref(it.OutSignature2),
			At:          it.ReleasedAt.UTC(),
		}
	}
	return dto
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
