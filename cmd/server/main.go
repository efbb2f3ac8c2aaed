package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/logger"
	"github.com/iliyamo/table-reservation/internal/metrics"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/payment"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/router"
	"github.com/iliyamo/table-reservation/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load() // Load environment config
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis and RabbitMQ are optional: without them caching is off, rate
	// limiting is per process and events are dropped.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unavailable, using in-process rate limiter and no cache")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub, err := queue.DialPublisher(cfg.AMQPURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, booking events disabled")
		} else {
			defer pub.Close()
			events = pub
		}
	}

	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty, payment intents will fail")
	}

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		return err
	}

	m := metrics.New()
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	auth := service.NewAuthService(users, tokens, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost: cfg.BcryptCost,
	}, log)
	catalog := service.NewCatalogService(restaurants, bookingRepo, cfg.Booking.Slots, cfg.Booking.SlotCapacity)
	bookings := service.NewBookingService(bookingRepo, events, service.BookingPolicy{
		PricePerGuest: cfg.Booking.PricePerGuest,
		MaxGuests:     cfg.Booking.MaxGuests,
		SlotCapacity:  cfg.Booking.SlotCapacity,
		InitialStatus: model.BookingStatus(cfg.Booking.InitialStatus),
		Location:      loc,
	}, m, log)
	payments := service.NewPaymentService(payment.NewStripe(cfg.StripeSecretKey), bookingRepo, cfg.PaymentCurrency, m, log)
	reports := service.NewReportService(bookingRepo)

	timeout := cfg.DB.QueryTimeout
	e := router.New(router.Deps{
		Log:          log,
		Metrics:      m,
		CORSOrigins:  cfg.CORSOrigins,
		Production:   cfg.IsProduction(),
		RateLimit:    middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		CatalogCache: middleware.NewRedisCache(cfg.Cache, rdb),
		Verifier:     auth,
		DB:           db,
		Auth:         handler.NewAuthHandler(auth, timeout),
		Restaurants:  handler.NewRestaurantHandler(catalog, timeout),
		Bookings:     handler.NewBookingHandler(bookings, timeout),
		Admin:        handler.NewAdminHandler(bookings, reports, timeout),
		Payment:      handler.NewPaymentHandler(payments, timeout),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
