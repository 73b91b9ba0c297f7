// Command sweep runs a one-off retention sweep against an artifact directory,
// for operators reclaiming space without restarting the service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/foliolabs/folio/pkg/artifacts"
)

const (
	envDir       = "FOLIO_ARTIFACTS_DIR"
	envRetention = "FOLIO_ARTIFACTS_RETENTION"
)

func main() {
	var (
		dir       = flag.String("dir", "", "Artifact directory")
		retention = flag.String("retention", "", "Retention window (e.g. 24h); older entries are removed")
		dryRun    = flag.Bool("dry-run", false, "Report what would be removed without deleting")
	)
	flag.Parse()

	if *dir == "" {
		*dir = os.Getenv(envDir)
	}
	if *retention == "" {
		*retention = os.Getenv(envRetention)
	}

	cfg := &artifacts.Config{Dir: *dir, Retention: *retention}
	if err := cfg.Finalize(nil); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	olderThan := cfg.RetentionDuration()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := artifacts.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open artifact store: %v", err)
	}

	if *dryRun {
		result, err := store.List(context.Background(), "", "", artifacts.MaxListCap)
		if err != nil {
			log.Fatalf("failed to list artifacts: %v", err)
		}

		cutoff := time.Now().Add(-olderThan)
		stale := 0
		for _, meta := range result.Artifacts {
			if meta.ModifiedAt.Before(cutoff) {
				stale++
			}
		}
		fmt.Printf("would remove %d artifacts older than %s\n", stale, cfg.Retention)
		return
	}

	removed, err := store.Sweep(olderThan)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	fmt.Printf("removed %d artifacts older than %s\n", removed, cfg.Retention)
}
