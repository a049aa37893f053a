// Package httpapi wires the optional HTTP surface (cmd/zkscaapi): gin
// router, CORS, rate limiting, structured logging, metrics, and health
// checks around the prove/verify handlers, in the teacher's
// backend/prover and backend/attester service idiom.
package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/liminaltech/zk-sca/httpapi/middleware"
	"github.com/liminaltech/zk-sca/internal/config"
	"github.com/liminaltech/zk-sca/internal/health"
	"github.com/liminaltech/zk-sca/internal/obslog"
	"github.com/liminaltech/zk-sca/internal/obsmetrics"
)

const serviceName = "zkscaapi"

// NewRouter builds the gin engine for the zkscaapi service.
func NewRouter(cfg config.Config) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(obslog.GinLogger())
	router.Use(obslog.GinRecovery())
	router.Use(middleware.Security())
	router.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodyBytes))
	router.Use(obsmetrics.HTTPMiddleware())

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	router.Use(limiter.Middleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	healthCfg := health.Config{
		ServiceName: serviceName,
		Version:     version,
		Checks: map[string]health.Checker{
			"pipeline": func() health.CheckResult {
				return health.CheckResult{Status: "healthy"}
			},
		},
	}
	router.GET("/health", health.Handler(healthCfg))
	router.GET("/health/ready", health.ReadinessHandler())
	router.GET("/health/live", health.LivenessHandler())
	router.GET("/metrics", gin.WrapH(obsmetrics.Handler()))

	h := &handlers{cfg: cfg}
	v1 := router.Group("/v1")
	v1.POST("/prove", h.prove)
	v1.POST("/verify", h.verify)

	return router
}

// version is the service build version reported on /health.
const version = "0.1.0"
