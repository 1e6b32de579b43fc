// Package server wires the HTTP surface in front of the routing core.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/dispatchsense/ai"
	"github.com/hrygo/dispatchsense/internal/profile"
	"github.com/hrygo/dispatchsense/plugin/auditstream"
	"github.com/hrygo/dispatchsense/routing"
	apiv1 "github.com/hrygo/dispatchsense/server/router/api/v1"
	"github.com/hrygo/dispatchsense/store"
)

type Server struct {
	echoServer *echo.Echo
	profile    *profile.Profile
	store      *store.Store

	kafkaSink *auditstream.KafkaSink
}

// NewServer assembles the routing engine and its HTTP API. The advisor and
// the Kafka audit stream are optional; the engine degrades without either.
func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store) (*Server, error) {
	if err := st.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{
		echoServer: e,
		profile:    profile,
		store:      st,
	}

	adapter := routing.NewStoreAdapter(st)

	var advisor routing.Advisor
	if profile.IsAdvisorEnabled() {
		llm, err := ai.NewLLMService(&ai.LLMConfig{
			Provider: profile.AdvisorProvider,
			Model:    profile.AdvisorModel,
			APIKey:   profile.AdvisorAPIKey,
			BaseURL:  profile.AdvisorBaseURL,
			Timeout:  profile.AdvisorTimeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create advisor llm service")
		}
		advisor = ai.NewAdvisor(ai.AdvisorConfig{
			LLM:               llm,
			RequestsPerSecond: profile.AdvisorRPS,
		})
		slog.Info("routing advisor enabled",
			"provider", profile.AdvisorProvider,
			"model", profile.AdvisorModel)
	} else {
		slog.Info("routing advisor disabled (no API key configured)")
	}

	auditSinks := []routing.AuditLog{adapter}
	if profile.IsAuditStreamEnabled() {
		s.kafkaSink = auditstream.NewKafkaSink(profile.KafkaBrokers, profile.KafkaAuditTopic)
		auditSinks = append(auditSinks, s.kafkaSink)
		slog.Info("audit stream enabled",
			"brokers", profile.KafkaBrokers,
			"topic", profile.KafkaAuditTopic)
	}

	metrics := routing.NewMetrics(routing.DefaultMetricsConfig())
	engine := routing.NewEngine(routing.Config{
		RuleStore:      adapter,
		TicketStore:    adapter,
		Advisor:        advisor,
		AuditLog:       routing.NewMultiLog(auditSinks...),
		Metrics:        metrics,
		ValidAssignees: profile.ValidAssignees,
	})

	apiService := apiv1.NewAPIV1Service(profile, st, engine, advisor, adapter)
	apiService.RegisterRoutes(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": profile.Version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return s, nil
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server started", "address", address, "mode", s.profile.Mode)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down http server", "error", err)
		}
		if s.kafkaSink != nil {
			if err := s.kafkaSink.Close(); err != nil {
				slog.Error("failed to close kafka audit sink", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// requestLogger logs one structured line per request.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	})
}
