package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/pointdeck/pointdeck/internal/infrastructure/configs"
	"github.com/pointdeck/pointdeck/internal/infrastructure/metrics"
	"github.com/pointdeck/pointdeck/internal/infrastructure/ratelimiter"
	"github.com/pointdeck/pointdeck/internal/infrastructure/repository"
	"github.com/pointdeck/pointdeck/internal/infrastructure/tracing"
	"github.com/pointdeck/pointdeck/internal/infrastructure/ws"
	"github.com/pointdeck/pointdeck/internal/presentation/api"
	"github.com/pointdeck/pointdeck/internal/presentation/handler/health"
	"github.com/pointdeck/pointdeck/internal/presentation/handler/rooms"
	"go.uber.org/zap"
)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			logger.Fatalw("failed to init tracing", "err", err)
		}
		defer shutdown(context.Background())
	}

	store := repository.NewRoomStore(cfg.RoomStore.Capacity, cfg.RoomStore.IdleGrace)
	manager := ws.NewConnectionManager(logger)
	gateway := ws.NewGateway(store, manager, cfg.WS, logger)

	store.StartReaper(context.Background(), cfg.RoomStore.ReapInterval, manager, logger)
	metrics.RegisterRoomGauge(store.Len)

	roomHandler := rooms.NewHandler(store, gateway, logger)
	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(*cfg, roomHandler, health.NewHandler(), logger, rateLimiter)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
