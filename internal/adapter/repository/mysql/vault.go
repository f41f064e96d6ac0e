package mysql

import (
	"context"
	"errors"
	"fmt"

	vaultDomain "rahnu-backend/internal/domain/vault"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type VaultRepository struct{ db *gorm.DB }

func NewVaultRepository(db *gorm.DB) *VaultRepository { return &VaultRepository{db: db} }

// Create relies on ux_vault_items_loan_id as the last line of defence
// against two concurrent vault-ins for the same loan.
func (r *VaultRepository) Create(ctx context.Context, it *vaultDomain.Item) error {
	err := r.db.WithContext(ctx).Create(it).Error
	if err == nil {
		return nil
	}
	if !isDuplicate(err) {
		return err
	}
	if _, getErr := r.GetByLoanID(ctx, it.LoanID); getErr == nil {
		return fmt.Errorf("%w: %w", vaultDomain.ErrAlreadyVaulted, err)
	}
	if it.Barcode != nil {
		return fmt.Errorf("%w: %w", vaultDomain.ErrBarcodeInUse, err)
	}
	return fmt.Errorf("%w: %w", vaultDomain.ErrAlreadyVaulted, err)
}

func (r *VaultRepository) GetByLoanID(ctx context.Context, loanID string) (*vaultDomain.Item, error) {
	var out vaultDomain.Item
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, vaultDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *VaultRepository) GetByBarcode(ctx context.Context, barcode string) (*vaultDomain.Item, error) {
	var out vaultDomain.Item
	res := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, vaultDomain.ErrNotFound)
	}
	return &out, nil
}

// TransitionToReleased is a compare-and-set on status. Two racing callers
// both issue the UPDATE; only one sees RowsAffected == 1.
func (r *VaultRepository) TransitionToReleased(ctx context.Context, loanID string, ev vaultDomain.ExitEvidence) (*vaultDomain.Item, error) {
	res := r.db.WithContext(ctx).
		Model(&vaultDomain.Item{}).
		Where("loan_id = ? AND status = ?", loanID, vaultDomain.StatusInVault).
		Updates(map[string]any{
			"status":           vaultDomain.StatusReleased,
			"out_approver1_id": ev.Approver1ID,
			"out_approver2_id": ev.Approver2ID,
			"out_signature1":   ev.Signature1,
			"out_signature2":   ev.Signature2,
			"released_at":      ev.ReleasedAt,
			"updated_at":       ev.ReleasedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, vaultDomain.ErrNotInVault
	}
	it, err := r.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, vaultDomain.ErrNotFound) {
			return nil, vaultDomain.ErrNotInVault
		}
		return nil, err
	}
	return it, nil
}

func (r *VaultRepository) List(ctx context.Context, f vaultDomain.ListFilter) ([]vaultDomain.Item, error) {
	q := r.db.WithContext(ctx).Model(&vaultDomain.Item{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Location != "" {
		q = q.Where("location = ?", f.Location)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	var out []vaultDomain.Item
	err := q.Order("id DESC").Limit(limit).Offset(max(f.Offset, 0)).Find(&out).Error
	return out, err
}
