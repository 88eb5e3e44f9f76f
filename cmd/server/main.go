package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/config"
	"github.com/iliyamo/song-share-ledger/internal/database"
	"github.com/iliyamo/song-share-ledger/internal/handler"
	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/middleware"
	"github.com/iliyamo/song-share-ledger/internal/queue"
	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/router"
	"github.com/iliyamo/song-share-ledger/internal/service"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
	"github.com/iliyamo/song-share-ledger/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("database: %v", err)
	}

	policy := ledger.Policy{
		MaxUserOwnershipPct: cfg.MaxUserOwnershipPct,
		PriceSlope:          cfg.PriceSlope,
	}

	// Repositories.
	store := repository.NewOwnershipStore(db, policy)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	payouts := repository.NewPayoutRepo(db)
	outbox := repository.NewOutboxRepo(db)
	mints := repository.NewMintJobRepo(db)

	// Outbound services.
	payments := service.NewPaymentClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey)
	publisher := service.NewEventPublisher(cfg.RabbitURL)

	// Use cases.
	createSong := usecase.NewCreateSong(store, policy)
	manageSong := usecase.NewManageSong(store)
	purchase := usecase.NewPurchaseShares(store, payments)
	transfer := usecase.NewTransferShares(store)
	distribute := usecase.NewDistributeRevenue(store)
	portfolio := usecase.NewPortfolio(store)

	// HTTP surface.
	e := echo.New()
	e.HideBanner = true
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		router.RegisterMarket(e, handler.NewMarketHandler(store),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
		router.RegisterMarket(e, handler.NewMarketHandler(store))
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterArtist(e, handler.NewArtistHandler(createSong, manageSong, distribute, store), cfg.JWTSecret)
	router.RegisterTrading(e, handler.NewFanHandler(purchase, transfer, portfolio), cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background loops.
	go worker.NewOutboxDrainer(outbox, publisher).Run(ctx)
	go worker.NewPayoutWorker(payouts, payments).Run(ctx)
	if cfg.SolanaRPC != "" {
		minter, err := service.NewSolanaMinter(cfg.SolanaRPC, cfg.SolanaFeePayer, cfg.SolanaMint, cfg.SolanaCustody)
		if err != nil {
			log.Fatalf("solana: %v", err)
		}
		go worker.NewMintWorker(mints, minter).Run(ctx)
	} else {
		log.Println("solana not configured; mint worker disabled")
	}
	go func() { _ = queue.StartActivityConsumer("share.purchased") }()
	go func() { _ = queue.StartActivityConsumer("share.transferred") }()
	go func() { _ = queue.StartActivityConsumer("revenue.distributed") }()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
