// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxihub/internal/http/handlers"
	"taxihub/internal/http/middleware"
	"taxihub/internal/infra"
	"taxihub/internal/logging"
)

// Deps are the services behind the routes. Places may be nil when no maps key is configured;
// Distance may be nil for the same reason.
type Deps struct {
	Verifier infra.TokenVerifier
	Vehicles handlers.VehicleService
	Fares    handlers.FareService
	Distance handlers.DistanceFinder
	Places   handlers.PlaceSuggester
	Bookings handlers.BookingService
	Pool     handlers.PoolService
	Payments interface {
		handlers.Checkouts
		handlers.WebhookHandler
	}
	Rates          handlers.RateAdmin
	Ledger         handlers.LedgerService
	AllowedOrigins []string
	Log            *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	log := logging.OrNop(d.Log)
	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Recovery(log))
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	auth := middleware.Auth(d.Verifier)
	optional := middleware.OptionalAuth(d.Verifier)

	vehicles := handlers.NewVehicleHandler(d.Vehicles)
	fares := handlers.NewFareHandler(d.Fares, d.Vehicles, d.Distance)
	bookings := handlers.NewBookingHandler(d.Bookings, d.Payments)
	pool := handlers.NewPoolHandler(d.Pool, d.Payments)
	payments := handlers.NewPaymentHandler(d.Payments)
	admin := handlers.NewAdminHandler(d.Rates, d.Ledger)

	api := r.Group("/api")
	api.GET("/vehicles", vehicles.List)
	api.GET("/vehicles/:id", vehicles.Get)
	api.GET("/fares/quote", fares.Quote)
	api.GET("/fares/local-package", fares.LocalPackage)
	if d.Places != nil {
		api.GET("/places/autocomplete", handlers.NewPlacesHandler(d.Places).Autocomplete)
	}
	api.POST("/payments/webhook", payments.Webhook)

	pub := api.Group("", optional)
	pub.POST("/bookings", bookings.Create)
	pub.GET("/bookings/:id", bookings.Get)
	pub.GET("/bookings/:id/cancellation", bookings.Cancellation)
	pub.POST("/bookings/:id/cancel", bookings.Cancel)
	pub.POST("/bookings/:id/checkout", bookings.Checkout)
	pub.GET("/bookings/:id/receipt", bookings.Receipt)
	pub.GET("/pool/rides", pool.Search)
	pub.GET("/pool/rides/:id", pool.GetRide)
	pub.POST("/pool/rides/:id/requests", pool.RequestSeats)
	pub.GET("/pool/requests/:id", pool.GetRequest)
	pub.POST("/pool/requests/:id/cancel", pool.Cancel)
	pub.POST("/pool/requests/:id/checkout", pool.Checkout)

	me := api.Group("/me", auth)
	me.GET("/bookings", bookings.Mine)

	provider := api.Group("/pool", auth, middleware.RequireRole(middleware.RoleProvider, middleware.RoleAdmin))
	provider.POST("/rides", pool.Publish)
	provider.POST("/rides/:id/cancel", pool.CancelRide)
	provider.POST("/requests/:id/approve", pool.Approve)
	provider.POST("/requests/:id/reject", pool.Reject)

	adm := api.Group("/admin", auth, middleware.RequireRole(middleware.RoleAdmin))
	adm.GET("/vehicles", vehicles.AdminList)
	adm.POST("/vehicles", vehicles.Upsert)
	adm.DELETE("/vehicles/:id", vehicles.Deactivate)
	adm.PUT("/fares/local/:vehicle", admin.UpdateLocalRate)
	adm.PUT("/fares/outstation/:vehicle", admin.UpdateOutstationRate)
	adm.PUT("/fares/airport/:vehicle", admin.UpdateAirportRate)
	adm.GET("/bookings", bookings.AdminList)
	adm.POST("/bookings/:id/approve", bookings.Approve)
	adm.POST("/bookings/:id/reject", bookings.Reject)
	adm.POST("/bookings/:id/complete", bookings.Complete)
	adm.GET("/ledger", admin.ListEntries)
	adm.GET("/ledger/summary", admin.Summary)
	adm.POST("/ledger", admin.RecordEntry)

	return r
}
