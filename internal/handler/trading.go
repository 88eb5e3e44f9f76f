package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

// FanHandler covers the trading surface: purchases with their two-phase
// variants, transfers and the portfolio view.  JWT authentication ran
// in middleware; purchases and transfers are open to both roles since
// an artist may buy into other artists' songs.
type FanHandler struct {
	Purchase  *usecase.PurchaseShares
	Transfer  *usecase.TransferShares
	Portfolio *usecase.Portfolio
}

// NewFanHandler constructs the handler; all dependencies must be
// non-nil.
func NewFanHandler(purchase *usecase.PurchaseShares, transfer *usecase.TransferShares, portfolio *usecase.Portfolio) *FanHandler {
	if purchase == nil || transfer == nil || portfolio == nil {
		panic("nil dependency passed to NewFanHandler")
	}
	return &FanHandler{Purchase: purchase, Transfer: transfer, Portfolio: portfolio}
}

type purchaseReq struct {
	Quantity uint64 `json:"quantity"`
	// Reserve stops the order at RESERVED; the buyer settles it later
	// via the confirm endpoint or abandons it.
	Reserve bool `json:"reserve"`
}

type transactionResp struct {
	ID            string  `json:"id"`
	SongID        uint64  `json:"song_id"`
	Shares        uint64  `json:"shares"`
	PricePerShare float64 `json:"price_per_share"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
}

func toTransactionResp(t model.ShareTransaction) transactionResp {
	return transactionResp{
		ID:            t.ID,
		SongID:        t.SongID,
		Shares:        t.SharesQuantity,
		PricePerShare: t.PricePerShare,
		Type:          t.Type,
		Status:        t.Status,
	}
}

type ownershipResp struct {
	SongID      uint64  `json:"song_id"`
	SharesOwned uint64  `json:"shares_owned"`
	Percentage  float64 `json:"percentage"`
	CostBasis   float64 `json:"cost_basis"`
}

func purchaseResultJSON(r *usecase.PurchaseResult) echo.Map {
	out := echo.Map{"transaction": toTransactionResp(r.Transaction)}
	if r.Ownership != nil {
		out["ownership"] = ownershipResp{
			SongID:      r.Ownership.SongID,
			SharesOwned: r.Ownership.SharesOwned,
			Percentage:  r.Ownership.Percentage,
			CostBasis:   r.Ownership.PurchasePrice,
		}
	}
	if r.Song != nil {
		out["current_price_per_share"] = r.Song.CurrentPricePerShare
	}
	return out
}

// PurchaseShares handles POST /v1/songs/:id/purchase.  By default the
// whole saga runs in one call; with "reserve": true the order stops at
// RESERVED.
func (h *FanHandler) PurchaseShares(c echo.Context) error {
	buyerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	result, err := h.Purchase.Execute(c.Request().Context(), usecase.PurchaseInput{
		BuyerID:     buyerID,
		SongID:      songID,
		Quantity:    req.Quantity,
		AutoConfirm: !req.Reserve,
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	status := http.StatusOK
	if req.Reserve {
		status = http.StatusCreated
	}
	return c.JSON(status, purchaseResultJSON(result))
}

// ConfirmPurchase handles POST /v1/songs/:id/purchases/:txn/confirm.
func (h *FanHandler) ConfirmPurchase(c echo.Context) error {
	buyerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	txnID := strings.TrimSpace(c.Param("txn"))
	if txnID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	result, err := h.Purchase.Confirm(c.Request().Context(), buyerID, songID, txnID)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, purchaseResultJSON(result))
}

// CancelPurchase handles DELETE /v1/songs/:id/purchases/:txn.
func (h *FanHandler) CancelPurchase(c echo.Context) error {
	buyerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	txnID := strings.TrimSpace(c.Param("txn"))
	if txnID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	txn, err := h.Purchase.Cancel(c.Request().Context(), buyerID, songID, txnID)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transaction": toTransactionResp(*txn)})
}

type transferReq struct {
	ToUserID   uint64  `json:"to_user_id"`
	Percentage float64 `json:"percentage"`
	// TransferPrice is the agreed per-share price; omitted or zero
	// means the song's current price.
	TransferPrice float64 `json:"transfer_price"`
}

// TransferShares handles POST /v1/songs/:id/transfer.
func (h *FanHandler) TransferShares(c echo.Context) error {
	fromID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req transferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ToUserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_user_id is required"})
	}
	txn, err := h.Transfer.Execute(c.Request().Context(), usecase.TransferInput{
		FromUserID:    fromID,
		SongID:        songID,
		ToUserID:      req.ToUserID,
		Percentage:    req.Percentage,
		TransferPrice: req.TransferPrice,
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transaction": toTransactionResp(*txn)})
}

// GetPortfolio handles GET /v1/portfolio.
func (h *FanHandler) GetPortfolio(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Portfolio.Get(c.Request().Context(), userID)
	if err != nil {
		return writeDomainErr(c, err)
	}
	var invested, value, revenue float64
	for _, e := range entries {
		invested += e.CostBasis
		value += e.CurrentValue
		revenue += e.RevenueToDate
	}
	return c.JSON(http.StatusOK, echo.Map{
		"portfolio": entries,
		"totals": echo.Map{
			"cost_basis":      invested,
			"current_value":   value,
			"revenue_to_date": revenue,
		},
	})
}

// GetSongRevenue handles GET /v1/songs/:id/revenue: the caller's
// earnings from one song across all settled periods.
func (h *FanHandler) GetSongRevenue(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	revenue, err := h.Portfolio.RevenueForSong(c.Request().Context(), userID, songID)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"song_id": songID, "revenue_to_date": revenue})
}
