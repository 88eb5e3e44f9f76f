package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/handler"
	"github.com/iliyamo/song-share-ledger/internal/middleware"
)

// RegisterTrading registers the trading endpoints under /v1.  Both
// roles are allowed: fans buy into songs, and artists may buy into
// other artists' songs (purchasing one's own song is rejected in the
// domain layer).
func RegisterTrading(e *echo.Echo, f *handler.FanHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ARTIST", "FAN"),
	)

	// ---- Purchases ----
	g.POST("/songs/:id/purchase", f.PurchaseShares)
	g.POST("/songs/:id/purchases/:txn/confirm", f.ConfirmPurchase)
	g.DELETE("/songs/:id/purchases/:txn", f.CancelPurchase)

	// ---- Transfers ----
	g.POST("/songs/:id/transfer", f.TransferShares)

	// ---- Portfolio ----
	g.GET("/portfolio", f.GetPortfolio)
	g.GET("/songs/:id/revenue", f.GetSongRevenue)
}
