package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/private-chef-marketplace/internal/config"
	"github.com/iliyamo/private-chef-marketplace/internal/database"
	"github.com/iliyamo/private-chef-marketplace/internal/handler"
	"github.com/iliyamo/private-chef-marketplace/internal/jobs"
	"github.com/iliyamo/private-chef-marketplace/internal/logger"
	"github.com/iliyamo/private-chef-marketplace/internal/middleware"
	"github.com/iliyamo/private-chef-marketplace/internal/payment"
	"github.com/iliyamo/private-chef-marketplace/internal/queue"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/router"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

func main() {
	cfg := config.Load()
	if rotator := logger.Setup(cfg.Log); rotator != nil {
		defer rotator.Close()
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logrus.WithError(err).Fatal("migrate database")
		}
	}

	// nil when Redis is down; cache and rate limit then pass through.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	chefs := repository.NewChefRepo(db)
	bookings := repository.NewBookingRepo(db)
	reviews := repository.NewReviewRepo(db)
	payments := repository.NewPaymentRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.Broker.Enabled {
		pub := queue.NewPublisher(cfg.Broker.URL, cfg.Broker.Queue)
		defer pub.Close()
		events = pub
		audit := logger.NewFileLogger(cfg.Broker.AuditLog)
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.Broker.URL, cfg.Broker.Queue, audit); err != nil {
				logrus.WithError(err).Error("booking consumer stopped")
			}
		}()
	}

	var gateway service.PaymentGateway
	if cfg.Payment.SecretKey != "" {
		gateway = payment.NewStripe(cfg.Payment.SecretKey, cfg.Payment.WebhookSecret)
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set, payment endpoints disabled")
	}

	gate := service.NewGate(cfg.JWTSecret, users)
	accountSvc := service.NewAccountService(users, tokens, service.TokenSettings{
		Secret:         cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})
	bookingSvc := service.NewBookingService(bookings, chefs, users, events)
	chefSvc := service.NewChefService(chefs)
	reviewSvc := service.NewReviewService(reviews, bookings, chefs)
	paymentSvc := service.NewPaymentService(bookings, payments, gateway)

	scheduler, err := jobs.NewScheduler(cfg.RatingJobSchedule, reviewSvc, time.Minute)
	if err != nil {
		logrus.WithError(err).WithField("schedule", cfg.RatingJobSchedule).Fatal("invalid rating job schedule")
	}
	scheduler.Start()

	var purge handler.CachePurger
	checks := map[string]handler.Pinger{"mysql": db}
	if rdb != nil {
		purge = func(ctx context.Context) error {
			return middleware.PurgeCache(ctx, rdb, cfg.Cache.Prefix)
		}
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.CORS(cfg.CORS))
	e.Use(middleware.OptionalAuth(gate))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(accountSvc, gate),
		Users:    handler.NewUserHandler(accountSvc),
		Chefs:    handler.NewChefHandler(chefSvc, purge),
		Bookings: handler.NewBookingHandler(bookingSvc),
		Reviews:  handler.NewReviewHandler(reviewSvc, purge),
		Payments: handler.NewPaymentHandler(paymentSvc),
		Ready:    handler.Ready(checks),
		Gate:     gate,
		Cache:    middleware.NewRedisCache(cfg.Cache, rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("http shutdown")
	}
	scheduler.Stop(shutdownCtx)
}
