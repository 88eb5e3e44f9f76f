package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/handler"
	"github.com/iliyamo/song-share-ledger/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication; it accepts either a
	// refresh_token body or a bearer header.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ARTIST", "FAN"))
	auth.GET("/me", a.Me)

	// Alias outside the auth group so a refresh token alone can end a
	// session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterMarket registers the unauthenticated market browse endpoints.
// Guests can inspect active songs and their cap tables before signing
// up.  Optional middleware (typically the response cache) applies to
// these routes only.
func RegisterMarket(e *echo.Echo, m *handler.MarketHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/songs", m.ListSongs, mw...)
	e.GET("/v1/songs/:id", m.GetSong, mw...)
}
