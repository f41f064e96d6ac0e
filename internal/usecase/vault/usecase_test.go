package vault

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rahnu-backend/internal/adapter/repository/mysql"
	"rahnu-backend/internal/domain/audit"
	"rahnu-backend/internal/domain/loan"
	"rahnu-backend/internal/domain/uow"
	domain "rahnu-backend/internal/domain/vault"
	"rahnu-backend/internal/metrics"
	"rahnu-backend/internal/testutil/auditmock"
	"rahnu-backend/internal/testutil/loanmock"
	"rahnu-backend/internal/testutil/testdb"
	"rahnu-backend/internal/testutil/uowmock"
	"rahnu-backend/internal/testutil/vaultmock"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)

func clock() time.Time { return fixedNow }

func activeLoan(id string) *loan.Loan {
	return &loan.Loan{
		LoanID:      id,
		Branch:      "KL01",
		Description: "22k bangle",
		Purity:      "916",
		WeightGrams: decimal.RequireFromString("25.5"),
		State:       loan.StateActive,
	}
}

type fixture struct {
	loans *loanmock.Repo
	items *vaultmock.Repo
	audit *auditmock.Repo
	uc    *Usecase
}

func newFixture(loans ...*loan.Loan) *fixture {
	byID := map[string]*loan.Loan{}
	for _, l := range loans {
		byID[l.LoanID] = l
	}
	f := &fixture{
		loans: &loanmock.Repo{
			GetByLoanIDForUpdateFn: func(_ context.Context, id string) (*loan.Loan, error) {
				if l, ok := byID[id]; ok {
					return l, nil
				}
				return nil, loan.ErrNotFound
			},
		},
		items: &vaultmock.Repo{},
		audit: &auditmock.Repo{},
	}
	f.uc = NewUsecase(uowmock.Passthrough(uow.Repos{Loans: f.loans, Vault: f.items, Audit: f.audit}), WithClock(clock))
	return f
}

func goodIn(loanID string) VaultInInput {
	return VaultInInput{
		LoanID:      loanID,
		Location:    "SAFE-A/3",
		Approver1ID: "EMP-1",
		Approver2ID: "EMP-2",
		Signature1:  "c2lnMQ==",
		Signature2:  "c2lnMg==",
	}
}

func goodOut(loanID string) VaultOutInput {
	return VaultOutInput{
		LoanID:      loanID,
		Approver1ID: "EMP-3",
		Approver2ID: "EMP-4",
		Signature1:  "b3V0MQ==",
		Signature2:  "b3V0Mg==",
	}
}

func TestVaultIn_Success_WritesItemAndAudit(t *testing.T) {
	f := newFixture(activeLoan("LN-1"))
	var stored *domain.Item
	f.items.CreateFn = func(_ context.Context, it *domain.Item) error {
		stored = it
		return nil
	}

	dto, err := f.uc.VaultIn(context.Background(), goodIn("LN-1"))
	require.NoError(t, err)

	require.NotNil(t, stored)
	require.Equal(t, domain.StatusInVault, stored.Status)
	require.Equal(t, "SAFE-A/3", stored.Location)
	require.Equal(t, "916", stored.Purity)
	require.True(t, stored.WeightGrams.Equal(decimal.RequireFromString("25.5")))
	require.Nil(t, stored.Barcode)
	require.Len(t, stored.ItemID, 32)
	require.Equal(t, fixedNow.Truncate(time.Millisecond), stored.VaultedAt)

	require.Equal(t, "LN-1", dto.LoanID)
	require.Equal(t, "25.500", dto.WeightGrams)
	require.Equal(t, "EMP-1", dto.Entry.Approver1ID)
	require.Nil(t, dto.Exit)

	require.Len(t, f.audit.Entries, 1)
	e := f.audit.Entries[0]
	require.Equal(t, audit.ActionVaultIn, e.Action)
	require.Equal(t, "LN-1", *e.LoanID)
	require.Contains(t, e.Details, `"approver1_id":"EMP-1"`)
	require.Contains(t, e.Details, `"approver2_id":"EMP-2"`)
	require.Contains(t, e.Details, `"location":"SAFE-A/3"`)
}

func TestVaultIn_DuplicateApprover_NoWrites(t *testing.T) {
	f := newFixture(activeLoan("LN-1"))
	in := goodIn("LN-1")
	in.Approver2ID = " EMP-1 "

	_, err := f.uc.VaultIn(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrDuplicateApprover)
	require.False(t, f.items.Wrote())
	require.Empty(t, f.audit.Entries)
}

func TestVaultIn_PreconditionOrder(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*VaultInInput)
		vaulted bool
		loan    bool
		want    error
	}{
		{"missing loan beats duplicate approvers", func(in *VaultInInput) { in.Approver2ID = in.Approver1ID }, false, false, domain.ErrLoanNotFound},
		{"already vaulted beats duplicate approvers", func(in *VaultInInput) { in.Approver2ID = in.Approver1ID }, true, true, domain.ErrAlreadyVaulted},
		{"duplicate approvers beat missing signature", func(in *VaultInInput) { in.Approver2ID = in.Approver1ID; in.Signature1 = "" }, false, true, domain.ErrDuplicateApprover},
		{"empty signature", func(in *VaultInInput) { in.Signature2 = "" }, false, true, domain.ErrMissingSignature},
		{"whitespace signature", func(in *VaultInInput) { in.Signature1 = "  \t" }, false, true, domain.ErrMissingSignature},
		{"missing approver", func(in *VaultInInput) { in.Approver1ID = "" }, false, true, ErrMissingApprover},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f *fixture
			if tc.loan {
				f = newFixture(activeLoan("LN-1"))
			} else {
				f = newFixture()
			}
			if tc.vaulted {
				f.items.GetByLoanIDFn = func(context.Context, string) (*domain.Item, error) {
					return &domain.Item{LoanID: "LN-1", Status: domain.StatusInVault}, nil
				}
			}
			in := goodIn("LN-1")
			tc.mutate(&in)

			_, err := f.uc.VaultIn(context.Background(), in)
			require.ErrorIs(t, err, tc.want)
			require.False(t, f.items.Wrote())
			require.Empty(t, f.audit.Entries)
		})
	}
}

func TestVaultIn_BarcodeInUse(t *testing.T) {
	f := newFixture(activeLoan("LN-1"))
	f.items.GetByBarcodeFn = func(_ context.Context, bc string) (*domain.Item, error) {
		return &domain.Item{LoanID: "LN-9", Barcode: &bc}, nil
	}
	in := goodIn("LN-1")
	in.Barcode = "BC-42"

	_, err := f.uc.VaultIn(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrBarcodeInUse)
	require.False(t, f.items.Wrote())
}

func TestVaultIn_StorageFailureIsUnavailable(t *testing.T) {
	boom := errors.New("connection reset")
	f := newFixture(activeLoan("LN-1"))
	f.items.CreateFn = func(context.Context, *domain.Item) error { return boom }

	_, err := f.uc.VaultIn(context.Background(), goodIn("LN-1"))
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	require.ErrorIs(t, err, boom)
}

func TestVaultIn_AuditFailureAbortsOperation(t *testing.T) {
	f := newFixture(activeLoan("LN-1"))
	f.audit.CreateFn = func(context.Context, *audit.Entry) error { return errors.New("audit table locked") }

	_, err := f.uc.VaultIn(context.Background(), goodIn("LN-1"))
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestVaultIn_DeadlineIsUnavailable(t *testing.T) {
	tx := uowmock.New().WithWithinLoanTx(func(ctx context.Context, _ string, _ func(uow.Repos, *loan.Loan) error) error {
		<-ctx.Done()
		return ctx.Err()
	})
	uc := NewUsecase(tx, WithTimeout(10*time.Millisecond))

	_, err := uc.VaultIn(context.Background(), goodIn("LN-1"))
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVaultIn_NilUnitOfWork(t *testing.T) {
	uc := NewUsecase(nil)
	_, err := uc.VaultIn(context.Background(), goodIn("LN-1"))
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = uc.VaultOut(context.Background(), goodOut("LN-1"))
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestVaultOut_PreconditionOrder(t *testing.T) {
	released := &domain.Item{LoanID: "LN-1", Status: domain.StatusReleased}
	inVault := &domain.Item{LoanID: "LN-1", Status: domain.StatusInVault}

	cases := []struct {
		name   string
		item   *domain.Item
		mutate func(*VaultOutInput)
		want   error
	}{
		{"no record", nil, func(*VaultOutInput) {}, domain.ErrNotInVault},
		{"already released beats duplicate approvers", released, func(in *VaultOutInput) { in.Approver2ID = in.Approver1ID }, domain.ErrNotInVault},
		{"duplicate approvers", inVault, func(in *VaultOutInput) { in.Approver2ID = in.Approver1ID }, domain.ErrDuplicateApprover},
		{"missing signature", inVault, func(in *VaultOutInput) { in.Signature2 = " " }, domain.ErrMissingSignature},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			if tc.item != nil {
				f.items.GetByLoanIDFn = func(context.Context, string) (*domain.Item, error) { return tc.item, nil }
			}
			in := goodOut("LN-1")
			tc.mutate(&in)

			_, err := f.uc.VaultOut(context.Background(), in)
			require.ErrorIs(t, err, tc.want)
			require.False(t, f.items.Wrote())
			require.Empty(t, f.audit.Entries)
		})
	}
}

func TestVaultOut_Success(t *testing.T) {
	f := newFixture()
	cur := &domain.Item{ItemID: "IT-1", LoanID: "LN-1", Status: domain.StatusInVault, InApprover1ID: "EMP-1", InApprover2ID: "EMP-2"}
	f.items.GetByLoanIDFn = func(context.Context, string) (*domain.Item, error) { return cur, nil }
	f.items.TransitionToReleasedFn = func(_ context.Context, loanID string, ev domain.ExitEvidence) (*domain.Item, error) {
		require.Equal(t, "LN-1", loanID)
		out := *cur
		out.Status = domain.StatusReleased
		out.OutApprover1ID, out.OutApprover2ID = &ev.Approver1ID, &ev.Approver2ID
		out.OutSignature1, out.OutSignature2 = &ev.Signature1, &ev.Signature2
		out.ReleasedAt = &ev.ReleasedAt
		return &out, nil
	}

	// Exit approvers may repeat the entry approvers.
	in := goodOut("LN-1")
	in.Approver1ID, in.Approver2ID = "EMP-1", "EMP-2"
	dto, err := f.uc.VaultOut(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "released", dto.Status)
	require.NotNil(t, dto.Exit)
	require.Equal(t, "EMP-1", dto.Exit.Approver1ID)
	require.Equal(t, fixedNow.Truncate(time.Millisecond), dto.Exit.At)

	require.Len(t, f.audit.Entries, 1)
	require.Equal(t, audit.ActionVaultOut, f.audit.Entries[0].Action)
}

func TestVaultOut_LostRaceIsNotInVault(t *testing.T) {
	f := newFixture()
	f.items.GetByLoanIDFn = func(context.Context, string) (*domain.Item, error) {
		return &domain.Item{LoanID: "LN-1", Status: domain.StatusInVault}, nil
	}
	// default TransitionToReleased reports no row matched
	_, err := f.uc.VaultOut(context.Background(), goodOut("LN-1"))
	require.ErrorIs(t, err, domain.ErrNotInVault)
	require.Empty(t, f.audit.Entries)
}

func TestMetrics_RecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewVault(reg)
	f := newFixture(activeLoan("LN-1"))
	f.uc.metrics = m

	_, err := f.uc.VaultIn(context.Background(), goodIn("LN-1"))
	require.NoError(t, err)
	_, _ = f.uc.VaultIn(context.Background(), goodIn("LN-404"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(opVaultIn, "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(opVaultIn, "loan_not_found")))
}

// sqlite-backed

func seedLoan(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, mysql.NewLoanRepository(db).Create(context.Background(), activeLoan(id)))
}

func TestIntegration_VaultInOut_RoundTrip(t *testing.T) {
	db := testdb.Open(t)
	seedLoan(t, db, "LN-1")
	uc := NewUsecase(mysql.NewGormUoW(db), WithClock(clock))
	ctx := context.Background()

	in, err := uc.VaultIn(ctx, goodIn("LN-1"))
	require.NoError(t, err)

	_, err = uc.VaultIn(ctx, goodIn("LN-1"))
	require.ErrorIs(t, err, domain.ErrAlreadyVaulted)

	out, err := uc.VaultOut(ctx, goodOut("LN-1"))
	require.NoError(t, err)
	require.Equal(t, in.ItemID, out.ItemID)
	require.Equal(t, in.Entry.Signature1, out.Entry.Signature1)
	require.Equal(t, in.Entry.Approver2ID, out.Entry.Approver2ID)
	require.True(t, in.Entry.At.Equal(out.Entry.At))

	_, err = uc.VaultOut(ctx, goodOut("LN-1"))
	require.ErrorIs(t, err, domain.ErrNotInVault)

	// Re-vaulting a released item is not supported.
	_, err = uc.VaultIn(ctx, goodIn("LN-1"))
	require.ErrorIs(t, err, domain.ErrAlreadyVaulted)

	entries, err := mysql.NewAuditRepository(db).ListByLoanID(ctx, "LN-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, audit.ActionVaultIn, entries[0].Action)
	require.Equal(t, audit.ActionVaultOut, entries[1].Action)

	got, err := uc.Get(ctx, "LN-1")
	require.NoError(t, err)
	require.Equal(t, "released", got.Status)

	list, err := uc.List(ctx, domain.ListFilter{Status: domain.StatusReleased})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestIntegration_VaultIn_FailureLeavesNoAudit(t *testing.T) {
	db := testdb.Open(t)
	seedLoan(t, db, "LN-1")
	uc := NewUsecase(mysql.NewGormUoW(db))
	ctx := context.Background()

	in := goodIn("LN-1")
	in.Approver2ID = in.Approver1ID
	_, err := uc.VaultIn(ctx, in)
	require.ErrorIs(t, err, domain.ErrDuplicateApprover)

	entries, err := mysql.NewAuditRepository(db).ListByLoanID(ctx, "LN-1")
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = uc.Get(ctx, "LN-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegration_ConcurrentVaultOut_OneWinner(t *testing.T) {
	db := testdb.Open(t)
	seedLoan(t, db, "LN-1")
	uc := NewUsecase(mysql.NewGormUoW(db))
	ctx := context.Background()

	_, err := uc.VaultIn(ctx, goodIn("LN-1"))
	require.NoError(t, err)

	var ok, lost atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := uc.VaultOut(ctx, goodOut("LN-1"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrNotInVault):
				lost.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, 7, lost.Load())

	entries, err := mysql.NewAuditRepository(db).ListByLoanID(ctx, "LN-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestIntegration_ConcurrentVaultIn_OneWinner(t *testing.T) {
	db := testdb.Open(t)
	seedLoan(t, db, "LN-1")
	uc := NewUsecase(mysql.NewGormUoW(db))
	ctx := context.Background()

	var ok, dup atomic.Int32
	var g errgroup.Group
	for i := 0; i < 6; i++ {
		g.Go(func() error {
			_, err := uc.VaultIn(ctx, goodIn("LN-1"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrAlreadyVaulted):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, 5, dup.Load())
}

func TestVaultIn_RunsUnderLoanLock(t *testing.T) {
	f := newFixture(activeLoan("LN-1"))
	tx := uowmock.Passthrough(uow.Repos{Loans: f.loans, Vault: f.items, Audit: f.audit})
	var locked []string
	inner := tx.WithinLoanTxFn
	tx.WithinLoanTxFn = func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
		locked = append(locked, loanID)
		return inner(ctx, loanID, fn)
	}
	tx.WithinTxFn = nil

	_, err := NewUsecase(tx, WithClock(clock)).VaultIn(context.Background(), goodIn(" LN-1 "))
	require.NoError(t, err)
	require.Equal(t, []string{"LN-1"}, locked)
}

// readBarrier holds every GetByLoanID caller until all expected readers
// have read, so each of them sees the item before anyone updates it.
type readBarrier struct {
	domain.Repository
	reads sync.WaitGroup
}

func (b *readBarrier) GetByLoanID(ctx context.Context, loanID string) (*domain.Item, error) {
	it, err := b.Repository.GetByLoanID(ctx, loanID)
	b.reads.Done()
	b.reads.Wait()
	return it, err
}

func TestIntegration_VaultOut_InterleavedReadsOneWinner(t *testing.T) {
	db := testdb.Open(t)
	seedLoan(t, db, "LN-1")
	ctx := context.Background()

	_, err := NewUsecase(mysql.NewGormUoW(db)).VaultIn(ctx, goodIn("LN-1"))
	require.NoError(t, err)

	const callers = 2
	items := &readBarrier{Repository: mysql.NewVaultRepository(db)}
	items.reads.Add(callers)
	uc := NewUsecase(uowmock.Passthrough(uow.Repos{
		Loans: mysql.NewLoanRepository(db),
		Vault: items,
		Audit: mysql.NewAuditRepository(db),
	}))

	var ok, lost atomic.Int32
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			_, err := uc.VaultOut(ctx, goodOut("LN-1"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrNotInVault):
				lost.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, 1, lost.Load())

	entries, err := mysql.NewAuditRepository(db).ListByLoanID(ctx, "LN-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, audit.ActionVaultOut, entries[1].Action)
}

func TestIntegration_VaultItemKeepsLoanSnapshot(t *testing.T) {
	db := testdb.Open(t)
	seedLoan(t, db, "LN-1")
	uc := NewUsecase(mysql.NewGormUoW(db))
	ctx := context.Background()

	in, err := uc.VaultIn(ctx, goodIn("LN-1"))
	require.NoError(t, err)
	require.Equal(t, "22k bangle", in.Description)
	require.Equal(t, "25.500", in.WeightGrams)

	require.NoError(t, db.Model(&loan.Loan{}).Where("loan_id = ?", "LN-1").Updates(map[string]any{
		"description":  "18k ring",
		"purity":       "750",
		"weight_grams": decimal.RequireFromString("3.2"),
	}).Error)

	got, err := uc.Get(ctx, "LN-1")
	require.NoError(t, err)
	require.Equal(t, "22k bangle", got.Description)
	require.Equal(t, "916", got.Purity)
	require.Equal(t, "25.500", got.WeightGrams)

	out, err := uc.VaultOut(ctx, goodOut("LN-1"))
	require.NoError(t, err)
	require.Equal(t, "22k bangle", out.Description)
	require.Equal(t, "25.500", out.WeightGrams)
}
