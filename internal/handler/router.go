package handler

import (
	"net/http"
	"time"

	"github.com/edgeandco/service-booking/internal/application"
	"github.com/edgeandco/service-booking/internal/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var defaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// RouterConfig carries everything NewRouter wires into the engine.
type RouterConfig struct {
	Bookings    *application.BookingService
	Earnings    *application.EarningsService
	Logger      *zap.Logger
	Verifier    *auth.Verifier // nil disables auth on write routes
	CORSOrigins []string
}

// NewRouter builds the gin engine with middleware and every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(cfg.Logger))
	router.Use(LoggerMiddleware(cfg.Logger))
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.NoRoute(func(c *gin.Context) {
		respondDetail(c, http.StatusNotFound, "Not Found")
	})

	NewHealthHandler(cfg.Bookings).RegisterRoutes(router)

	writeMW := AuthMiddleware(cfg.Verifier)
	NewAdminBookingHandler(cfg.Bookings).RegisterRoutes(&router.RouterGroup)
	NewBookingHandler(cfg.Bookings).RegisterRoutes(&router.RouterGroup, writeMW)
	NewEarningsHandler(cfg.Earnings).RegisterRoutes(&router.RouterGroup)

	return router
}
