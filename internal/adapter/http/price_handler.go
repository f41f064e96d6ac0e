package http

import (
	"net/http"

	"rahnu-backend/internal/domain/access"
	"rahnu-backend/internal/domain/goldprice"
	priceuc "rahnu-backend/internal/usecase/goldprice"
	"rahnu-backend/internal/usecase/valuation"

	"github.com/labstack/echo/v4"
)

type PriceHandler struct{ uc *priceuc.Usecase }

func NewPriceHandler(uc *priceuc.Usecase) *PriceHandler { return &PriceHandler{uc: uc} }

type setQuoteReq struct {
	BuyPrice  string `json:"buy_price_per_gram"  validate:"required,posdec,dec2"`
	SellPrice string `json:"sell_price_per_gram" validate:"required,posdec,dec2"`
}

func (h *PriceHandler) List(c echo.Context) error {
	quotes, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if quotes == nil {
		quotes = []goldprice.Quote{}
	}
	return c.JSON(http.StatusOK, map[string]any{"quotes": quotes})
}

func (h *PriceHandler) Get(c echo.Context) error {
	q, err := h.uc.Active(c.Request().Context(), c.Param("purity"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *PriceHandler) Set(c echo.Context) error {
	var req setQuoteReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	caller, _ := access.CallerFrom(c.Request().Context())
	q, err := h.uc.SetQuote(c.Request().Context(), priceuc.SetQuoteInput{
		Purity:    c.Param("purity"),
		BuyPrice:  dec(req.BuyPrice),
		SellPrice: dec(req.SellPrice),
		ActorID:   caller.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

type ValuationHandler struct{ appraiser *valuation.Appraiser }

func NewValuationHandler(a *valuation.Appraiser) *ValuationHandler {
	return &ValuationHandler{appraiser: a}
}

type valuationReq struct {
	Purity        string `json:"purity"         validate:"required,max=8"`
	WeightGrams   string `json:"weight_grams"   validate:"required,decimal,dec3"`
	MarginPercent string `json:"margin_percent" validate:"required,decimal,dec2"`
}

type valuationResp struct {
	Purity        string `json:"purity"`
	QuoteID       string `json:"quote_id"`
	WeightGrams   string `json:"weight_grams"`
	PricePerGram  string `json:"price_per_gram"`
	MarketValue   string `json:"market_value"`
	MarginPercent string `json:"margin_percent"`
	Principal     string `json:"principal"`
}

// Quote prices collateral without booking anything.
func (h *ValuationHandler) Quote(c echo.Context) error {
	var req valuationReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	a, err := h.appraiser.Appraise(c.Request().Context(), req.Purity, dec(req.WeightGrams), dec(req.MarginPercent))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, valuationResp{
		Purity:        a.Purity,
		QuoteID:       a.QuoteID,
		WeightGrams:   valuation.RoundWeight(a.WeightGrams).StringFixed(3),
		PricePerGram:  valuation.RoundMoney(a.PricePerGram).StringFixed(2),
		MarketValue:   valuation.RoundMoney(a.MarketValue).StringFixed(2),
		MarginPercent: a.MarginPercent.StringFixed(2),
		Principal:     valuation.RoundMoney(a.Principal).StringFixed(2),
	})
}
