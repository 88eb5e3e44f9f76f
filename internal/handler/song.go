package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

// ArtistHandler covers everything an artist does with a song: the
// initial tokenization, the lifecycle switches and revenue reporting.
// All methods assume JWT authentication and the ARTIST role check ran
// in middleware.
type ArtistHandler struct {
	Create     *usecase.CreateSong
	Manage     *usecase.ManageSong
	Distribute *usecase.DistributeRevenue
	Store      *repository.OwnershipStore
}

// NewArtistHandler constructs the handler; all dependencies must be
// non-nil.
func NewArtistHandler(create *usecase.CreateSong, manage *usecase.ManageSong, distribute *usecase.DistributeRevenue, store *repository.OwnershipStore) *ArtistHandler {
	if create == nil || manage == nil || distribute == nil || store == nil {
		panic("nil dependency passed to NewArtistHandler")
	}
	return &ArtistHandler{Create: create, Manage: manage, Distribute: distribute, Store: store}
}

type createSongReq struct {
	Title              string  `json:"title"`
	TotalShares        uint64  `json:"total_shares"`
	InitialPrice       float64 `json:"initial_price"`
	ReservedPercentage float64 `json:"reserved_percentage"`
	Activate           bool    `json:"activate"`
}

type songResp struct {
	ID                   uint64  `json:"id"`
	ArtistID             uint64  `json:"artist_id"`
	Title                string  `json:"title"`
	TotalShares          uint64  `json:"total_shares"`
	ArtistReservedShares uint64  `json:"artist_reserved_shares"`
	AvailableShares      uint64  `json:"available_shares"`
	CurrentPricePerShare float64 `json:"current_price_per_share"`
	Status               string  `json:"status"`
	TradingDisabled      bool    `json:"trading_disabled"`
}

func toSongResp(s *model.FractionalSong) songResp {
	return songResp{
		ID:                   s.ID,
		ArtistID:             s.ArtistID,
		Title:                s.Title,
		TotalShares:          s.TotalShares,
		ArtistReservedShares: s.ArtistReservedShares,
		AvailableShares:      s.AvailableShares,
		CurrentPricePerShare: s.CurrentPricePerShare,
		Status:               s.Status,
		TradingDisabled:      s.TradingDisabled,
	}
}

// CreateSong handles POST /v1/songs.  It tokenizes a new song for the
// authenticated artist.
func (h *ArtistHandler) CreateSong(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSongReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	song, err := h.Create.Execute(c.Request().Context(), usecase.CreateSongInput{
		ArtistID:           artistID,
		Title:              req.Title,
		TotalShares:        req.TotalShares,
		InitialPrice:       req.InitialPrice,
		ReservedPercentage: req.ReservedPercentage,
		Activate:           req.Activate,
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusCreated, toSongResp(song))
}

// Activate handles POST /v1/songs/:id/activate.
func (h *ArtistHandler) Activate(c echo.Context) error {
	return h.lifecycle(c, h.Manage.Activate)
}

// Terminate handles POST /v1/songs/:id/terminate.
func (h *ArtistHandler) Terminate(c echo.Context) error {
	return h.lifecycle(c, h.Manage.Terminate)
}

func (h *ArtistHandler) lifecycle(c echo.Context, op func(ctx context.Context, artistID, songID uint64) (*model.FractionalSong, error)) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	song, err := op(c.Request().Context(), artistID, songID)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, toSongResp(song))
}

// SetTrading handles PATCH /v1/songs/:id/trading with {"enabled": bool}.
func (h *ArtistHandler) SetTrading(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	song, err := h.Manage.SetTrading(c.Request().Context(), artistID, songID, req.Enabled)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, toSongResp(song))
}

type distributeReq struct {
	Amount float64 `json:"amount"`
	Period string  `json:"period"`
}

type payoutResp struct {
	HolderID    uint64 `json:"holder_id"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

type distributionResp struct {
	ID                string       `json:"id"`
	SongID            uint64       `json:"song_id"`
	Period            string       `json:"period"`
	TotalRevenueCents int64        `json:"total_revenue_cents"`
	Payouts           []payoutResp `json:"payouts"`
}

func toDistributionResp(d model.RevenueDistribution) distributionResp {
	out := distributionResp{
		ID:                d.ID,
		SongID:            d.SongID,
		Period:            d.Period,
		TotalRevenueCents: d.TotalRevenueCents,
		Payouts:           make([]payoutResp, 0, len(d.Payouts)),
	}
	for _, p := range d.Payouts {
		out.Payouts = append(out.Payouts, payoutResp{HolderID: p.HolderID, AmountCents: p.AmountCents, Status: p.Status})
	}
	return out
}

// DistributeRevenue handles POST /v1/songs/:id/distributions.
func (h *ArtistHandler) DistributeRevenue(c echo.Context) error {
	artistID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req distributeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Period = strings.TrimSpace(req.Period)
	if req.Period == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "period is required"})
	}
	dist, err := h.Distribute.Execute(c.Request().Context(), usecase.DistributeInput{
		ArtistID: artistID,
		SongID:   songID,
		Amount:   req.Amount,
		Period:   req.Period,
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusCreated, toDistributionResp(*dist))
}

// ListDistributions handles GET /v1/songs/:id/distributions.
func (h *ArtistHandler) ListDistributions(c echo.Context) error {
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	dists, err := h.Store.ListDistributions(c.Request().Context(), songID)
	if err != nil {
		return writeDomainErr(c, err)
	}
	out := make([]distributionResp, 0, len(dists))
	for _, d := range dists {
		out = append(out, toDistributionResp(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"distributions": out})
}
