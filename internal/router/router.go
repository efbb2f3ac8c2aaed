package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/metrics"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// Deps carries everything the HTTP edge needs. RateLimit and CatalogCache
// may be nil.
type Deps struct {
	Log         zerolog.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	Production  bool

	RateLimit    echo.MiddlewareFunc
	CatalogCache echo.MiddlewareFunc

	Verifier    middleware.TokenVerifier
	DB          handler.Pinger
	Auth        *handler.AuthHandler
	Restaurants *handler.RestaurantHandler
	Bookings    *handler.BookingHandler
	Admin       *handler.AdminHandler
	Payment     *handler.PaymentHandler
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	// RequestLogger renders handler errors, so Recover must sit inside it.
	e.Use(
		middleware.RequestID(),
		middleware.RequestLogger(d.Log, d.Metrics),
		middleware.Recover(d.Log),
		middleware.CORS(d.CORSOrigins),
		middleware.SecurityHeaders(d.Production),
	)
	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes registers every route group on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// Liveness and readiness for load balancers; metrics for Prometheus.
	e.GET("/healthz", handler.Health)
	if d.DB != nil {
		e.GET("/readyz", handler.Ready(d.DB))
	}
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")
	if d.RateLimit != nil {
		// Group middleware runs before route-level JWTAuth, so the caller
		// is resolved here for user-based rate keys.
		if d.Verifier != nil {
			api.Use(middleware.IdentifyCaller(d.Verifier))
		}
		api.Use(d.RateLimit)
	}
	RegisterAuth(api, d.Auth, d.Verifier)
	RegisterPublic(api, d.Restaurants, d.CatalogCache)
	RegisterCustomer(api, d.Bookings, d.Verifier)
	RegisterAdmin(api, d.Admin, d.Verifier)
	RegisterPayment(api, d.Payment, d.Verifier)
}

// RegisterAuth registers authentication routes. Signup, login, refresh and
// logout need no access token; logout without a refresh token in the body
// revokes every session of the bearer.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, v middleware.TokenVerifier) {
	g := api.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.OptionalJWT(v))
	g.GET("/me", a.Me, middleware.JWTAuth(v))
}

// RegisterPublic registers the unauthenticated catalog. List and detail go
// through the response cache; time slots change with every booking and
// are never cached.
func RegisterPublic(api *echo.Group, r *handler.RestaurantHandler, cache echo.MiddlewareFunc) {
	var cached []echo.MiddlewareFunc
	if cache != nil {
		cached = append(cached, cache)
	}
	api.GET("/restaurants", r.List, cached...)
	api.GET("/restaurants/:id", r.Get, cached...)
	api.GET("/restaurants/:id/timeslots", r.TimeSlots)
}

// RegisterPayment registers the payment intent proxy. A bearer token is
// optional and only required when the intent is bound to a booking.
func RegisterPayment(api *echo.Group, p *handler.PaymentHandler, v middleware.TokenVerifier) {
	api.POST("/payment/create-payment-intent", p.CreateIntent, middleware.OptionalJWT(v))
}
