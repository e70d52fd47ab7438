package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pointdeck/pointdeck/internal/infrastructure/configs"
	"github.com/pointdeck/pointdeck/internal/infrastructure/ratelimiter"
	healthHandler "github.com/pointdeck/pointdeck/internal/presentation/handler/health"
	roomHandler "github.com/pointdeck/pointdeck/internal/presentation/handler/rooms"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Application struct {
	config        configs.Config
	roomHandler   *roomHandler.Handler
	healthHandler *healthHandler.Handler
	logger        *zap.SugaredLogger
	ratelimiter   ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	roomHandler *roomHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger *zap.SugaredLogger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:        config,
		roomHandler:   roomHandler,
		healthHandler: healthHandler,
		logger:        logger,
		ratelimiter:   ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(app.rateLimiterMiddleware)
		r.Use(app.enableCors)

		r.Post("/create_room", app.roomHandler.CreateRoomHandler)
		r.Route("/room/{roomId}", func(r chi.Router) {
			r.Get("/", app.roomHandler.GetRoomHandler)
			r.Get("/mean", app.roomHandler.MeanHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
	})

	// Long-lived session socket; no request timeout here, clients hold
	// the connection open and reconnect on a fixed 3s backoff.
	r.Get("/ws", app.roomHandler.SessionHandler)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/debug/vars", expvar.Handler())

	return otelhttp.NewHandler(r, "http")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)

	return nil
}
