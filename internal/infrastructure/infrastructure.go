// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, artifact storage, retention) that
// domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/pkg/artifacts"
	"github.com/foliolabs/folio/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, artifact storage, and artifact retention.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Artifacts artifacts.System
	Reaper    *artifacts.Reaper
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := artifacts.New(&cfg.Artifacts, logger)
	if err != nil {
		return nil, fmt.Errorf("artifacts init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Artifacts: store,
		Reaper:    artifacts.NewReaper(store, &cfg.Artifacts, logger),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Artifact store and reaper hooks are registered for startup and shutdown
// coordination.
func (i *Infrastructure) Start() error {
	if err := i.Artifacts.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("artifacts start failed: %w", err)
	}
	if err := i.Reaper.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("reaper start failed: %w", err)
	}
	return nil
}
