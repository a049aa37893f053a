// Command zkscaapi runs the optional HTTP surface around the prove/verify
// pipeline: POST /v1/prove, POST /v1/verify, health checks, and metrics.
package main

import (
	"fmt"
	"os"

	"github.com/liminaltech/zk-sca/httpapi"
	"github.com/liminaltech/zk-sca/internal/config"
	"github.com/liminaltech/zk-sca/internal/obslog"
	"github.com/liminaltech/zk-sca/internal/obsmetrics"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := obslog.Initialize(obslog.Config{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Service:     "zkscaapi",
		Version:     "0.1.0",
	}); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer obslog.Sync()

	obsmetrics.Initialize(obsmetrics.Config{ServiceName: "zkscaapi"})

	router := httpapi.NewRouter(cfg)

	obslog.Info("starting zksca HTTP API", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		obslog.Fatal("failed to start server", zap.Error(err))
	}
}
