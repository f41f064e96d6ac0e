package http

import (
	"net/http"
	"strconv"

	"rahnu-backend/internal/domain/access"
	"rahnu-backend/internal/domain/vault"
	vaultuc "rahnu-backend/internal/usecase/vault"

	"github.com/labstack/echo/v4"
)

type VaultHandler struct {
	uc    *vaultuc.Usecase
	loans *LoanHandler
}

func NewVaultHandler(uc *vaultuc.Usecase, loans *LoanHandler) *VaultHandler {
	return &VaultHandler{uc: uc, loans: loans}
}

// Signatures are checked by the protocol, not here, so a duplicate
// approver is still reported ahead of a missing signature.
type vaultInReq struct {
	Barcode     string `json:"barcode"      validate:"omitempty,max=64"`
	Location    string `json:"location"     validate:"required,max=64"`
	Approver1ID string `json:"approver1_id" validate:"required,max=32"`
	Approver2ID string `json:"approver2_id" validate:"required,max=32"`
	Signature1  string `json:"signature1"`
	Signature2  string `json:"signature2"`
}

type vaultOutReq struct {
	Approver1ID string `json:"approver1_id" validate:"required,max=32"`
	Approver2ID string `json:"approver2_id" validate:"required,max=32"`
	Signature1  string `json:"signature1"`
	Signature2  string `json:"signature2"`
}

func (h *VaultHandler) VaultIn(c echo.Context) error {
	var req vaultInReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	l, ok, err := h.loans.authorizedLoan(c)
	if !ok {
		return err
	}
	caller, _ := access.CallerFrom(c.Request().Context())

	dto, err := h.uc.VaultIn(c.Request().Context(), vaultuc.VaultInInput{
		LoanID:      l.LoanID,
		Barcode:     req.Barcode,
		Location:    req.Location,
		Approver1ID: req.Approver1ID,
		Approver2ID: req.Approver2ID,
		Signature1:  req.Signature1,
		Signature2:  req.Signature2,
		ActorID:     caller.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *VaultHandler) VaultOut(c echo.Context) error {
	var req vaultOutReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	l, ok, err := h.loans.authorizedLoan(c)
	if !ok {
		return err
	}
	caller, _ := access.CallerFrom(c.Request().Context())

	dto, err := h.uc.VaultOut(c.Request().Context(), vaultuc.VaultOutInput{
		LoanID:      l.LoanID,
		Approver1ID: req.Approver1ID,
		Approver2ID: req.Approver2ID,
		Signature1:  req.Signature1,
		Signature2:  req.Signature2,
		ActorID:     caller.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *VaultHandler) GetItem(c echo.Context) error {
	l, ok, err := h.loans.authorizedLoan(c)
	if !ok {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), l.LoanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type listItemsQuery struct {
	Status   string `validate:"omitempty,oneof=in_vault released missing damaged"`
	Location string `validate:"omitempty,max=64"`
	Limit    int    `validate:"gte=0,lte=200"`
	Offset   int    `validate:"gte=0"`
}

func (h *VaultHandler) ListItems(c echo.Context) error {
	q := listItemsQuery{
		Status:   c.QueryParam("status"),
		Location: c.QueryParam("location"),
	}
	var err error
	if q.Limit, err = intParam(c, "limit"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
	}
	if q.Offset, err = intParam(c, "offset"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "offset must be an integer"})
	}
	if err := c.Validate(&q); err != nil {
		return validationFailed(c, err)
	}

	items, err := h.uc.List(c.Request().Context(), vault.ListFilter{
		Status:   vault.Status(q.Status),
		Location: q.Location,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
