package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ride/internal/eventbus"
	"ride/internal/handler"
	"ride/internal/idempotency"
	"ride/internal/middleware"
)

// Rate limit classes: general 100/15min/client, location updates
// 120/min/driver, payment creation 10/15min/client.
const (
	generalRateLimit   = 100
	generalWindow      = 15 * time.Minute
	locationRateLimit  = 120
	locationWindow     = time.Minute
	paymentRateLimit   = 10
	paymentWindow      = 15 * time.Minute
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler    *handler.UserHandler
	RideHandler    *handler.RideHandler
	DriverHandler  *handler.DriverHandler
	TripHandler    *handler.TripHandler
	PaymentHandler *handler.PaymentHandler
	EventHub       *eventbus.Hub
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	idemCache := idempotency.NewCache(deps.RedisClient)
	generalLimiter := middleware.NewRateLimiter(deps.RedisClient, "general", generalRateLimit, generalWindow, middleware.ByClientID("rider_id"))
	locationLimiter := middleware.NewRateLimiter(deps.RedisClient, "location", locationRateLimit, locationWindow, middleware.ByDriverID)
	paymentLimiter := middleware.NewRateLimiter(deps.RedisClient, "payment", paymentRateLimit, paymentWindow, middleware.ByClientID("rider_id"))

	router.Use(generalLimiter.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/v1/events", gin.WrapH(deps.EventHub))

	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("/:id", deps.UserHandler.GetUser)
		}

		rides := v1.Group("/rides")
		rides.Use(middleware.IdempotencyMiddleware(idemCache, "rides"))
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", middleware.IdempotencyMiddleware(idemCache, "drivers"), deps.DriverHandler.Register)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.GET("", deps.DriverHandler.ListDrivers)
			drivers.POST("/:id/location", locationLimiter.Middleware(), deps.DriverHandler.UpdateLocation)
			drivers.POST("/:id/status", deps.DriverHandler.UpdateStatus)
			drivers.POST("/:id/accept", middleware.IdempotencyMiddleware(idemCache, "drivers"), deps.DriverHandler.AcceptRide)
		}

		trips := v1.Group("/trips")
		trips.Use(middleware.IdempotencyMiddleware(idemCache, "trips"))
		{
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/receipt", deps.TripHandler.GetReceipt)
			trips.POST("/:id/start", deps.TripHandler.Start)
			trips.POST("/:id/pause", deps.TripHandler.Pause)
			trips.POST("/:id/resume", deps.TripHandler.Resume)
			trips.POST("/:id/cancel", deps.TripHandler.Cancel)
			// end() is what actually creates a payment, so the payment
			// creation rate limit is enforced here rather than on a
			// client-facing /payments route that does not exist — payments
			// are only ever created as a side effect of ending a trip.
			trips.POST("/:id/end", paymentLimiter.Middleware(), deps.TripHandler.End)
		}

		payments := v1.Group("/payments")
		{
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
			payments.POST("/webhook", deps.PaymentHandler.Webhook)
		}
	}

	return router
}
