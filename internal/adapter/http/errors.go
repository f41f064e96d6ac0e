package http

import (
	"errors"
	"net/http"

	"rahnu-backend/internal/domain/goldprice"
	"rahnu-backend/internal/domain/loan"
	"rahnu-backend/internal/domain/vault"
	"rahnu-backend/internal/usecase/valuation"
	vaultuc "rahnu-backend/internal/usecase/vault"

	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	target  error
	status  int
	message string // empty: use err.Error()
}

// Checked in order; storage first so a wrapped cause never leaks a 4xx.
var errorTable = []errorMapping{
	{vault.ErrStorageUnavailable, http.StatusServiceUnavailable, "Storage unavailable, retry later"},
	{loan.ErrStorageUnavailable, http.StatusServiceUnavailable, "Storage unavailable, retry later"},
	{vault.ErrLoanNotFound, http.StatusNotFound, "Loan not found"},
	{loan.ErrNotFound, http.StatusNotFound, "Loan not found"},
	{vault.ErrAlreadyVaulted, http.StatusConflict, "Loan already has a vault record"},
	{vault.ErrBarcodeInUse, http.StatusConflict, "Barcode already in use"},
	{vault.ErrNotInVault, http.StatusNotFound, "Vault item not found or already released"},
	{vault.ErrNotFound, http.StatusNotFound, "Vault item not found"},
	{vault.ErrDuplicateApprover, http.StatusBadRequest, "Two different approvers required"},
	{vaultuc.ErrMissingApprover, http.StatusBadRequest, "Both approver ids required"},
	{vault.ErrMissingSignature, http.StatusBadRequest, "Both approver signatures required"},
	{valuation.ErrInvalidMargin, http.StatusBadRequest, ""},
	{valuation.ErrInvalidWeight, http.StatusBadRequest, ""},
	{valuation.ErrInvalidPrice, http.StatusBadRequest, ""},
	{goldprice.ErrNoActivePrice, http.StatusNotFound, "No active gold price for purity"},
	{goldprice.ErrInvalidQuote, http.StatusBadRequest, ""},
	{loan.ErrInvalidInput, http.StatusBadRequest, ""},
}

// writeError maps a usecase error to its HTTP status and message.
func writeError(c echo.Context, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			return c.JSON(m.status, ErrorResponse{Error: msg})
		}
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
}
