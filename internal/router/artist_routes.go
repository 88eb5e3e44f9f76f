package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/handler"
	"github.com/iliyamo/song-share-ledger/internal/middleware"
)

// RegisterArtist registers ARTIST-scoped endpoints under /v1.
// All routes require a valid JWT and ARTIST role.
func RegisterArtist(e *echo.Echo, a *handler.ArtistHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ARTIST"),
	)

	// ---- Tokenization and lifecycle ----
	g.POST("/songs", a.CreateSong)
	g.POST("/songs/:id/activate", a.Activate)
	g.POST("/songs/:id/terminate", a.Terminate)
	g.PATCH("/songs/:id/trading", a.SetTrading)

	// ---- Revenue ----
	g.POST("/songs/:id/distributions", a.DistributeRevenue)
	g.GET("/songs/:id/distributions", a.ListDistributions)
}
