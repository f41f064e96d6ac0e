// Package vault implements dual-approval custody of pawned gold: vault-in
// creates the custody record, vault-out releases it. Each call is one
// transaction covering the state change and its audit entry.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rahnu-backend/internal/domain/audit"
	"rahnu-backend/internal/domain/loan"
	"rahnu-backend/internal/domain/uow"
	domain "rahnu-backend/internal/domain/vault"
	"rahnu-backend/internal/metrics"
	"rahnu-backend/pkg/id"

	"github.com/rs/zerolog"
)

const (
	opVaultIn  = "vault_in"
	opVaultOut = "vault_out"

	defaultTimeout = 5 * time.Second
)

var ErrMissingApprover = errors.New("both approver ids are required")

type Usecase struct {
	uow     uow.UnitOfWork
	log     zerolog.Logger
	metrics *metrics.Vault
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Usecase)

func WithLogger(l zerolog.Logger) Option { return func(u *Usecase) { u.log = l } }
func WithMetrics(m *metrics.Vault) Option { return func(u *Usecase) { u.metrics = m } }
func WithTimeout(d time.Duration) Option { return func(u *Usecase) { u.timeout = d } }
func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func NewUsecase(tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		uow:     tx,
		log:     zerolog.Nop(),
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// VaultIn checks, in order: loan exists, loan has no vault record,
// approvers differ, both signatures present. First failure wins.
func (u *Usecase) VaultIn(ctx context.Context, in VaultInInput) (dto *VaultItemDTO, err error) {
	start := time.Now()
	defer func() { u.metrics.Observe(opVaultIn, outcome(err), start) }()

	if u.uow == nil {
		return nil, domain.ErrStorageUnavailable
	}
	in.normalize()
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var created *domain.Item
	// Concurrent vault-ins for one loan queue up on the loan row lock.
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		switch _, err := r.Vault.GetByLoanID(ctx, l.LoanID); {
		case err == nil:
			return domain.ErrAlreadyVaulted
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		if err := checkEvidence(in.Approver1ID, in.Approver2ID, in.Signature1, in.Signature2); err != nil {
			return err
		}

		var barcode *string
		if in.Barcode != "" {
			switch _, err := r.Vault.GetByBarcode(ctx, in.Barcode); {
			case err == nil:
				return domain.ErrBarcodeInUse
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			barcode = &in.Barcode
		}

		now := u.stamp()
		it := &domain.Item{
			ItemID:        id.NewID32(),
			LoanID:        l.LoanID,
			Barcode:       barcode,
			Location:      in.Location,
			Description:   l.Description,
			Purity:        l.Purity,
			WeightGrams:   l.WeightGrams,
			Status:        domain.StatusInVault,
			InApprover1ID: in.Approver1ID,
			InApprover2ID: in.Approver2ID,
			InSignature1:  in.Signature1,
			InSignature2:  in.Signature2,
			VaultedAt:     now,
		}
		if err := r.Vault.Create(ctx, it); err != nil {
			return err
		}

		entry, err := audit.New(audit.ActionVaultIn, l.LoanID, actor(in.ActorID, in.Approver1ID), map[string]any{
			"item_id":      it.ItemID,
			"approver1_id": in.Approver1ID,
			"approver2_id": in.Approver2ID,
			"location":     in.Location,
			"barcode":      in.Barcode,
		}, now)
		if err != nil {
			return err
		}
		if err := r.Audit.Create(ctx, entry); err != nil {
			return fmt.Errorf("write audit entry: %w", err)
		}
		created = it
		return nil
	})
	if errors.Is(err, loan.ErrNotFound) {
		err = domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, u.classify(opVaultIn, in.LoanID, err)
	}

	u.log.Info().
		Str("op", opVaultIn).
		Str("loan_id", created.LoanID).
		Str("item_id", created.ItemID).
		Str("location", created.Location).
		Msg("item vaulted")
	return toDTO(created), nil
}

// VaultOut checks, in order: an in_vault record exists, approvers differ,
// both signatures present. The release itself is a conditional update, so
// only one of several racing calls can succeed.
func (u *Usecase) VaultOut(ctx context.Context, in VaultOutInput) (dto *VaultItemDTO, err error) {
	start := time.Now()
	defer func() { u.metrics.Observe(opVaultOut, outcome(err), start) }()

	if u.uow == nil {
		return nil, domain.ErrStorageUnavailable
	}
	in.normalize()
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var released *domain.Item
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		cur, err := r.Vault.GetByLoanID(ctx, in.LoanID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotInVault
			}
			return err
		}
		if cur.Status != domain.StatusInVault {
			return domain.ErrNotInVault
		}

		if err := checkEvidence(in.Approver1ID, in.Approver2ID, in.Signature1, in.Signature2); err != nil {
			return err
		}

		now := u.stamp()
		it, err := r.Vault.TransitionToReleased(ctx, in.LoanID, domain.ExitEvidence{
			Approver1ID: in.Approver1ID,
			Approver2ID: in.Approver2ID,
			Signature1:  in.Signature1,
			Signature2:  in.Signature2,
			ReleasedAt:  now,
		})
		if err != nil {
			return err
		}

		entry, err := audit.New(audit.ActionVaultOut, in.LoanID, actor(in.ActorID, in.Approver1ID), map[string]any{
			"item_id":      it.ItemID,
			"approver1_id": in.Approver1ID,
			"approver2_id": in.Approver2ID,
		}, now)
		if err != nil {
			return err
		}
		if err := r.Audit.Create(ctx, entry); err != nil {
			return fmt.Errorf("write audit entry: %w", err)
		}
		released = it
		return nil
	})
	if err != nil {
		return nil, u.classify(opVaultOut, in.LoanID, err)
	}

	u.log.Info().
		Str("op", opVaultOut).
		Str("loan_id", released.LoanID).
		Str("item_id", released.ItemID).
		Msg("item released")
	return toDTO(released), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*VaultItemDTO, error) {
	if u.uow == nil {
		return nil, domain.ErrStorageUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var it *domain.Item
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		it, err = r.Vault.GetByLoanID(ctx, strings.TrimSpace(loanID))
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, u.classify("vault_get", loanID, err)
	}
	return toDTO(it), nil
}

func (u *Usecase) List(ctx context.Context, f domain.ListFilter) ([]VaultItemDTO, error) {
	if u.uow == nil {
		return nil, domain.ErrStorageUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var items []domain.Item
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		items, err = r.Vault.List(ctx, f)
		return err
	})
	if err != nil {
		return nil, u.classify("vault_list", "", err)
	}
	out := make([]VaultItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *toDTO(&items[i]))
	}
	return out, nil
}

// checkEvidence: duplicate approver is reported before a missing signature.
func checkEvidence(a1, a2, sig1, sig2 string) error {
	if a1 == a2 {
		return domain.ErrDuplicateApprover
	}
	if a1 == "" || a2 == "" {
		return ErrMissingApprover
	}
	if strings.TrimSpace(sig1) == "" || strings.TrimSpace(sig2) == "" {
		return domain.ErrMissingSignature
	}
	return nil
}

// stamp is the server-side event time, truncated to what MySQL DATETIME(3) keeps.
func (u *Usecase) stamp() time.Time { return u.now().UTC().Truncate(time.Millisecond) }

func actor(callerID, fallback string) string {
	if callerID != "" {
		return callerID
	}
	return fallback
}

var expected = []error{
	domain.ErrLoanNotFound,
	domain.ErrAlreadyVaulted,
	domain.ErrNotInVault,
	domain.ErrDuplicateApprover,
	domain.ErrMissingSignature,
	domain.ErrBarcodeInUse,
	domain.ErrStorageUnavailable,
	ErrMissingApprover,
}

func isExpected(err error) bool {
	for _, e := range expected {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// classify passes protocol errors through untouched. Anything else is a
// storage failure (driver fault, deadline, cancellation): logged with
// context and reported as ErrStorageUnavailable.
func (u *Usecase) classify(op, loanID string, err error) error {
	if isExpected(err) {
		return err
	}
	u.log.Error().Err(err).Str("op", op).Str("loan_id", loanID).Msg("vault storage failure")
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, domain.ErrLoanNotFound):
		return "loan_not_found"
	case errors.Is(err, domain.ErrAlreadyVaulted):
		return "already_vaulted"
	case errors.Is(err, domain.ErrNotInVault):
		return "not_in_vault"
	case errors.Is(err, domain.ErrDuplicateApprover):
		return "duplicate_approver"
	case errors.Is(err, domain.ErrMissingSignature), errors.Is(err, ErrMissingApprover):
		return "missing_evidence"
	case errors.Is(err, domain.ErrBarcodeInUse):
		return "barcode_in_use"
	default:
		return "error"
	}
}
