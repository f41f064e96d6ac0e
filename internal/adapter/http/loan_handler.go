package http

import (
	"context"
	"net/http"

	"rahnu-backend/internal/domain/access"
	"rahnu-backend/internal/domain/audit"
	"rahnu-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	CustomerID       string `json:"customer_id"        validate:"required,hex32"`
	Branch           string `json:"branch"             validate:"omitempty,max=32"`
	Description      string `json:"description"        validate:"required,max=500"`
	Purity           string `json:"purity"             validate:"required,max=8"`
	WeightGrams      string `json:"weight_grams"       validate:"required,posdec,dec3"`
	MarginPercent    string `json:"margin_percent"     validate:"required,decimal,dec2"`
	UjrahRatePercent string `json:"ujrah_rate_percent" validate:"required,decimal"`
	TenureMonths     int    `json:"tenure_months"      validate:"required,gte=1,lte=60"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	caller, _ := access.CallerFrom(c.Request().Context())
	// Loans are booked in the caller's branch unless an admin says otherwise.
	branch := caller.Branch
	if req.Branch != "" {
		if !access.CanAccessBranch(caller, req.Branch) {
			return forbidden(c)
		}
		branch = req.Branch
	}

	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		CustomerID:       req.CustomerID,
		Branch:           branch,
		Description:      req.Description,
		Purity:           req.Purity,
		WeightGrams:      dec(req.WeightGrams),
		MarginPercent:    dec(req.MarginPercent),
		UjrahRatePercent: dec(req.UjrahRatePercent),
		TenureMonths:     req.TenureMonths,
		ActorID:          caller.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, ok, err := h.authorizedLoan(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, dto)
}

// authorizedLoan loads the path loan and applies the branch rule. When ok
// is false the response has already been written.
func (h *LoanHandler) authorizedLoan(c echo.Context) (*loan.LoanDTO, bool, error) {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return nil, false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	dto, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return nil, false, writeError(c, err)
	}
	caller, _ := access.CallerFrom(c.Request().Context())
	if !access.CanAccessBranch(caller, dto.Branch) {
		return nil, false, forbidden(c)
	}
	return dto, true, nil
}

// AuditReader is the read side of the audit trail.
type AuditReader interface {
	ListByLoanID(ctx context.Context, loanID string) ([]audit.Entry, error)
}

type AuditHandler struct {
	loans *LoanHandler
	trail AuditReader
}

func NewAuditHandler(loans *LoanHandler, trail AuditReader) *AuditHandler {
	return &AuditHandler{loans: loans, trail: trail}
}

func (h *AuditHandler) ListForLoan(c echo.Context) error {
	dto, ok, err := h.loans.authorizedLoan(c)
	if !ok {
		return err
	}
	entries, err := h.trail.ListByLoanID(c.Request().Context(), dto.LoanID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Storage unavailable, retry later"})
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": dto.LoanID, "entries": entries})
}
