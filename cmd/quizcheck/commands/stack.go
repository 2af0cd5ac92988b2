package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/config"
	"github.com/moolen/quizcheck/internal/lifecycle"
	"github.com/moolen/quizcheck/internal/logging"
	"github.com/moolen/quizcheck/internal/metrics"
	"github.com/moolen/quizcheck/internal/quizhost"
	"github.com/moolen/quizcheck/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 15 * time.Second

// stack holds the long-running components shared by the browser commands:
// tracing, the quiz host and the Chromium session.
type stack struct {
	manager *lifecycle.Manager
	tracing *tracing.Provider
	host    *quizhost.Server // nil when server.enabled is false
	browser *browser.Session
	metrics *metrics.Metrics // nil when metrics.enabled is false
}

// newStack builds and registers the components without starting them.
// opts are the browser options; callers derive them from cfg and may
// override the viewport or slow motion.
func newStack(cfg *config.Config, opts browser.Options) (*stack, error) {
	logger := logging.GetLogger("quizcheck")

	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		TLSCAPath:   cfg.Tracing.TLSCAPath,
		TLSInsecure: cfg.Tracing.TLSInsecure,
		Version:     Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing provider: %w", err)
	}

	s := &stack{
		manager: lifecycle.NewManager(),
		tracing: tp,
		browser: browser.NewSession(opts),
	}
	s.manager.SetShutdownTimeout(shutdownTimeout)

	if err := s.manager.Register(tp); err != nil {
		return nil, fmt.Errorf("failed to register tracing provider: %w", err)
	}

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		s.metrics = metrics.NewMetrics(registry)
	}

	browserDeps := []lifecycle.Component{tp}
	if cfg.Server.Enabled {
		hostOpts := quizhost.Options{
			Root:          cfg.Server.Root,
			Host:          cfg.Server.Host,
			Port:          cfg.Server.Port,
			ReuseExisting: cfg.Server.ReuseExisting,
		}
		if registry != nil {
			hostOpts.Gatherer = registry
		}
		host, err := quizhost.New(hostOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create quiz host: %w", err)
		}
		if err := s.manager.Register(host, tp); err != nil {
			return nil, fmt.Errorf("failed to register quiz host: %w", err)
		}
		s.host = host
		browserDeps = append(browserDeps, host)
		logger.Debug("Quiz host will serve %s on %s:%d", cfg.Server.Root, cfg.Server.Host, cfg.Server.Port)
	}

	if err := s.manager.Register(s.browser, browserDeps...); err != nil {
		return nil, fmt.Errorf("failed to register browser session: %w", err)
	}
	return s, nil
}

func (s *stack) start(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}
	return nil
}

// stop shuts everything down with a fresh deadline so a cancelled command
// context still gets a clean browser exit and a flushed trace exporter.
func (s *stack) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.manager.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop components: %w", err)
	}
	return nil
}

// withStack starts a stack, runs fn and stops the stack again.
func withStack(ctx context.Context, cfg *config.Config, opts browser.Options, fn func(ctx context.Context, s *stack) error) (err error) {
	s, err := newStack(cfg, opts)
	if err != nil {
		return err
	}
	if err := s.start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := s.stop(); stopErr != nil {
			logging.GetLogger("quizcheck").Error("%v", stopErr)
			if err == nil {
				err = stopErr
			}
		}
	}()
	return fn(ctx, s)
}
