package builder

import (
	"context"
	"log"
	"time"

	"github.com/go4it/builder/internal/metrics"
	"github.com/go4it/builder/internal/services"
)

// ReapResult counts what a reaper pass did
type ReapResult struct {
	Destroyed int
	Released  int
	Stopped   int
}

// ReapPreviews destroys expired store previews and stops expired org previews.
// Store previews still used by an org app are released without being destroyed.
func (b *Builder) ReapPreviews(ctx context.Context) (ReapResult, error) {
	var res ReapResult
	if b.deployer == nil {
		return res, nil
	}
	now := b.now()

	gens, err := services.ListExpiredPreviews(ctx, b.db, now)
	if err != nil {
		return res, err
	}
	for _, gen := range gens {
		if b.jobs.IsActive(gen.ID) {
			continue
		}
		appName := *gen.PreviewFlyAppID

		inUse, err := services.FlyAppInUse(ctx, b.db, appName)
		if err != nil {
			return res, err
		}
		if !inUse {
			if err := b.deployer.Destroy(ctx, appName); err != nil {
				log.Printf("Failed to destroy preview %s of %s: %v", appName, gen.ID, err)
				continue
			}
			res.Destroyed++
			metrics.PreviewsReaped.Inc()
		} else {
			res.Released++
		}

		if err := services.ClearPreview(ctx, b.db, gen.ID); err != nil {
			return res, err
		}
		log.Printf("Reaped preview %s of generation %s (destroyed: %t)", appName, gen.ID, !inUse)
	}

	orgApps, err := services.ListExpiredOrgPreviews(ctx, b.db, now)
	if err != nil {
		return res, err
	}
	for _, org := range orgApps {
		if b.jobs.IsActive(deployKey(org.ID)) {
			continue
		}
		if org.FlyAppID != nil && *org.FlyAppID != "" {
			shared, err := services.StorePreviewActive(ctx, b.db, *org.FlyAppID, now)
			if err != nil {
				return res, err
			}
			if !shared {
				if err := b.deployer.Destroy(ctx, *org.FlyAppID); err != nil {
					log.Printf("Failed to destroy org preview %s of %s: %v", *org.FlyAppID, org.ID, err)
					continue
				}
				res.Destroyed++
				metrics.PreviewsReaped.Inc()
			}
		}
		if err := services.StopOrgApp(ctx, b.db, org.ID); err != nil {
			return res, err
		}
		res.Stopped++
		log.Printf("Stopped expired preview of org app %s", org.ID)
	}

	return res, nil
}

// RunReaper calls ReapPreviews every interval until ctx is done
func (b *Builder) RunReaper(ctx context.Context, interval time.Duration) {
	if b.deployer == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.ReapPreviews(ctx); err != nil {
				log.Printf("Preview reaper: %v", err)
			}
		}
	}
}
