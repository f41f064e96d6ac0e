package vault

import "errors"

var (
	ErrLoanNotFound       = errors.New("loan not found")
	ErrAlreadyVaulted     = errors.New("loan already has a vault record")
	ErrNotInVault         = errors.New("vault item not found or already released")
	ErrDuplicateApprover  = errors.New("two different approvers required")
	ErrMissingSignature   = errors.New("both approver signatures are required")
	ErrBarcodeInUse       = errors.New("barcode already assigned to another vault item")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is the repository-level miss for reads.
	ErrNotFound = errors.New("vault item not found")
)
