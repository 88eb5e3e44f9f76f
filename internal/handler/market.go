package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/repository"
)

// MarketHandler serves the public, unauthenticated market views: the
// list of songs open for trading and a single song's cap table.
type MarketHandler struct {
	Store *repository.OwnershipStore
}

// NewMarketHandler constructs the handler.
func NewMarketHandler(store *repository.OwnershipStore) *MarketHandler {
	if store == nil {
		panic("nil store passed to NewMarketHandler")
	}
	return &MarketHandler{Store: store}
}

// ListSongs handles GET /v1/songs.
func (h *MarketHandler) ListSongs(c echo.Context) error {
	songs, err := h.Store.ListActiveSongs(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]songResp, 0, len(songs))
	for i := range songs {
		out = append(out, toSongResp(&songs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"songs": out})
}

type holderResp struct {
	UserID      uint64  `json:"user_id"`
	SharesOwned uint64  `json:"shares_owned"`
	Percentage  float64 `json:"percentage"`
}

// GetSong handles GET /v1/songs/:id.  The response includes the cap
// table so buyers can see how concentrated a song already is.
func (h *MarketHandler) GetSong(c echo.Context) error {
	songID, err := songIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	agg, err := h.Store.LoadAggregate(c.Request().Context(), songID)
	if err != nil {
		return writeDomainErr(c, err)
	}
	holders := make([]holderResp, 0)
	for _, hld := range agg.Holdings() {
		holders = append(holders, holderResp{
			UserID:      hld.UserID,
			SharesOwned: hld.SharesOwned,
			Percentage:  hld.Percentage,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"song":    toSongResp(agg.Song),
		"holders": holders,
	})
}
