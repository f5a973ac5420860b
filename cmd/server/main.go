package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/realtime-auction/internal/auction"
	"github.com/iliyamo/realtime-auction/internal/bidcache"
	"github.com/iliyamo/realtime-auction/internal/config"
	"github.com/iliyamo/realtime-auction/internal/database"
	"github.com/iliyamo/realtime-auction/internal/handler"
	"github.com/iliyamo/realtime-auction/internal/middleware"
	"github.com/iliyamo/realtime-auction/internal/queue"
	"github.com/iliyamo/realtime-auction/internal/realtime"
	"github.com/iliyamo/realtime-auction/internal/repository"
	"github.com/iliyamo/realtime-auction/internal/router"
	queue_publisher "github.com/iliyamo/realtime-auction/internal/service"
	"github.com/iliyamo/realtime-auction/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithFields(log.Fields{"error": err}).Warn("could not read .env")
	}
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Fatal("open database")
	}
	defer db.Close()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		log.WithFields(log.Fields{"error": err}).Fatal("migrate database")
	}
	cancelMigrate()

	ledger := repository.NewLedger(db)
	rdb := config.NewRedisClient() // nil when Redis is unreachable

	cacheCfg := config.LoadBidCacheConfig()
	var (
		backend   bidcache.Backend
		cachePing handler.Pinger
	)
	switch {
	case cacheCfg.Backend != "memory" && rdb != nil:
		backend = bidcache.NewRedisBackend(rdb)
		cachePing = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	case cacheCfg.Backend == "redis":
		log.Fatal("BID_CACHE_BACKEND=redis but Redis is unreachable")
	default:
		log.Warn("highest-bid cache is process-local")
		backend = bidcache.NewMemoryBackend(nil)
	}
	cache := bidcache.New(backend, ledger, cacheCfg.TTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	publisher := queue_publisher.NewPublisher(cfg.RabbitURL)
	go publisher.Run(ctx)
	go queue.StartAuctionConsumer(cfg.RabbitURL)

	events := auction.Broadcasters{hub, publisher}
	lifecycle := auction.NewLifecycle(ledger, nil)
	engine := auction.NewEngine(ledger, lifecycle, cache, events)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORS())

	router.RegisterRoutes(e, handler.NewHealthHandler(db, cachePing, hub.Connected))
	router.RegisterRealtime(e, hub.ServeWS)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, ledger.UserRepo, repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterAuctions(e, handler.NewAuctionHandler(engine), cfg.JWTSecret)
	router.RegisterBids(e, handler.NewBidHandler(engine, events), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithFields(log.Fields{"error": err}).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithFields(log.Fields{"error": err}).Error("shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
