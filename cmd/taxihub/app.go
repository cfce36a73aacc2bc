package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taxihub/internal/config"
	"taxihub/internal/events"
	"taxihub/internal/infra"
	"taxihub/internal/maps"
	"taxihub/internal/modules/booking"
	"taxihub/internal/modules/fare"
	"taxihub/internal/modules/ledger"
	"taxihub/internal/modules/payment"
	"taxihub/internal/modules/pooling"
	"taxihub/internal/modules/pricing"
	"taxihub/internal/modules/tripfare"
	"taxihub/internal/modules/vehicle"
	"taxihub/internal/notify"
)

// app holds every wired service. Optional collaborators stay nil when unconfigured.
type app struct {
	db    *pgxpool.Pool
	redis *redis.Client
	bus   *events.Bus

	pricing  *pricing.Service
	fares    *fare.Service
	vehicles *vehicle.Service
	bookings *booking.Service
	pool     *pooling.Service
	ledger   *ledger.Service
	payments *payment.Service
	routes   *maps.RouteService
	fetcher  *tripfare.Fetcher
	notifier *notify.Notifier

	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{bus: events.NewBus(log.Named("bus"))}

	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	// Redis is optional: without it fetched fares live in memory and events stay in-process.
	var priceStore tripfare.PriceStore = tripfare.NewMemoryPriceStore()
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Warn("redis unavailable, continuing without it", zap.Error(err))
		} else {
			a.redis = rdb
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			priceStore = tripfare.NewRedisPriceStore(rdb)
			if cfg.Redis.EventChannel != "" {
				a.closers = append(a.closers, events.NewRedisRelay(rdb, cfg.Redis.EventChannel, log).Attach(a.bus))
			}
		}
	}

	a.pricing = pricing.NewService(pricing.NewStore(db), a.bus)
	a.fares = fare.NewService(fare.NewCache(cfg.Fares.CacheTTL), a.pricing, a.pricing, a.bus, log.Named("fare"))
	a.closers = append(a.closers, a.fares.Close)

	a.vehicles = vehicle.NewService(vehicle.NewStore(db), a.bus, log.Named("vehicle"))
	a.bookings = booking.NewService(booking.NewStore(db), a.fares, a.bus, log.Named("booking"))
	a.pool = pooling.NewService(pooling.NewStore(db), a.bus, log.Named("pool"))
	a.ledger = ledger.NewService(ledger.NewStore(db), a.bus, log.Named("ledger"))
	a.closers = append(a.closers, a.ledger.Close)

	var gateway payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.Stripe.SecretKey)
	}
	a.payments = payment.NewService(gateway, a.bookings, a.pool, payment.Options{
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
	}, log.Named("payment"))

	if cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.routes = routes
	}

	if cfg.Legacy.BaseURL != "" {
		a.fetcher = tripfare.NewFetcher(
			tripfare.NewHTTPClient(cfg.Legacy.BaseURL, cfg.Legacy.Timeout),
			priceStore,
			tripfare.Options{
				ThrottleWindow: cfg.Fares.ThrottleWindow,
				RequestDelay:   cfg.Fares.RequestDelay,
				StoreTTL:       cfg.Fares.PriceStoreTTL,
			},
			a.bus, log.Named("tripfare"))
		a.closers = append(a.closers, a.fetcher.Close)
	}

	var (
		mailer notify.Mailer
		texter notify.Texter
	)
	if cfg.Notify.SendGridKey != "" && cfg.Notify.FromEmail != "" {
		mailer = notify.NewSendGridMailer(cfg.Notify.SendGridKey, cfg.Notify.FromEmail, cfg.Notify.FromName)
	}
	if cfg.Notify.TwilioSID != "" && cfg.Notify.TwilioToken != "" && cfg.Notify.TwilioFrom != "" {
		texter = notify.NewTwilioTexter(cfg.Notify.TwilioSID, cfg.Notify.TwilioToken, cfg.Notify.TwilioFrom)
	}
	if mailer != nil || texter != nil {
		a.notifier = notify.NewNotifier(mailer, texter, a.bus, log.Named("notify"))
		a.closers = append(a.closers, a.notifier.Close)
	} else {
		log.Info("notifications disabled: no sendgrid or twilio credentials")
	}

	if err := a.vehicles.Refresh(ctx); err != nil {
		log.Warn("initial fleet load failed", zap.Error(err))
	}
	return a, nil
}

// verifier chains Firebase (customers and providers) with the admin JWT verifier.
func (a *app) verifier(ctx context.Context, cfg config.Config) (infra.TokenVerifier, error) {
	var chain infra.ChainVerifier
	if cfg.Auth.FirebaseProjectID != "" {
		fb, err := infra.NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredsFile)
		if err != nil {
			return nil, fmt.Errorf("firebase init: %w", err)
		}
		chain = append(chain, fb)
	}
	if cfg.Auth.JWTSecret != "" {
		chain = append(chain, infra.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: set auth.firebase_project_id or auth.jwt_secret", infra.ErrNoVerifier)
	}
	return chain, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
