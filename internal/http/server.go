package http

import (
	"context"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/preferredrecruit/intake-gateway/internal/config"
	"github.com/preferredrecruit/intake-gateway/internal/http/middleware"
	"github.com/preferredrecruit/intake-gateway/internal/metrics"
	"github.com/preferredrecruit/intake-gateway/internal/repository"
	"github.com/preferredrecruit/intake-gateway/internal/service/intake"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	athletesRepo := repository.NewAthletesRepository(mysqlDB)
	outboxRepo := repository.NewOutboxRepository(mysqlDB)

	// repos (ClickHouse)
	deliveriesRepo := repository.NewDeliveriesRepository(clickhouseDB)

	// services
	intakeSvc := intake.New(
		mysqlDB,
		athletesRepo,
		outboxRepo,
		deliveriesRepo,
		rds,
		intake.Secrets{
			Kickoff:    cfg.Tally.KickoffSecret,
			Onboarding: cfg.Tally.OnboardingSecret,
			Poster:     cfg.Tally.PosterSecret,
		},
	)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// the poll route is public and hit once per second per waiting athlete
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:poll:",
		RetryAfterHint: true,
	})

	// routes
	e.POST("/webhooks/tally/:form", webhookHandler(intakeSvc))
	e.GET("/api/onboarding-redirect", statusHandler(intakeSvc), rlMW)
	e.GET("/v1/reports/deliveries", listDeliveriesHandler(deliveriesRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
