package artifacts

import (
	"log/slog"

	"github.com/foliolabs/folio/pkg/lifecycle"
)

// Reaper periodically sweeps the artifact store, deleting entries older than
// the retention window. It is the safety net for artifacts that escape a
// request's explicit cleanup path (e.g. process crash); the retention window
// is far longer than any single request, so it never races an active write.
type Reaper struct {
	store  System
	cfg    *Config
	logger *slog.Logger
}

// NewReaper creates a Reaper over the given store.
func NewReaper(store System, cfg *Config, logger *slog.Logger) *Reaper {
	return &Reaper{
		store:  store,
		cfg:    cfg,
		logger: logger.With("system", "reaper"),
	}
}

// Start registers the recurring sweep with the lifecycle coordinator.
// The sweep stops when the process shuts down.
func (r *Reaper) Start(lc *lifecycle.Coordinator) error {
	retention := r.cfg.RetentionDuration()

	r.logger.Info(
		"starting artifact reaper",
		"interval", r.cfg.SweepInterval,
		"retention", r.cfg.Retention,
	)

	lc.Periodic(r.cfg.SweepIntervalDuration(), func() {
		removed, err := r.store.Sweep(retention)
		if err != nil {
			r.logger.Error("artifact sweep failed", "error", err)
			return
		}
		if removed > 0 {
			r.logger.Info("artifact sweep complete", "removed", removed)
		}
	})

	return nil
}
