package rapports

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupService purge périodiquement les rapports supprimés
type CleanupService struct {
	rapportService RapportService
	interval       time.Duration
	maxAge         time.Duration
	stopCh         chan struct{}
}

func NewCleanupService(rapportService RapportService, interval, maxAge time.Duration) *CleanupService {
	return &CleanupService{
		rapportService: rapportService,
		interval:       interval,
		maxAge:         maxAge,
		stopCh:         make(chan struct{}),
	}
}

func (c *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	logger := log.Ctx(ctx)
	logger.Info().Dur("interval", c.interval).Dur("max_age", c.maxAge).Msg("Cleanup service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Cleanup service stopped due to context cancellation")
			return
		case <-c.stopCh:
			logger.Info().Msg("Cleanup service stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce lance une purge immédiate
func (c *CleanupService) RunOnce(ctx context.Context) int64 {
	purged, err := c.rapportService.PurgeDeleted(ctx, c.maxAge)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Cleanup error")
	}
	if purged > 0 {
		log.Ctx(ctx).Info().Int64("purged", purged).Msg("Cleanup completed")
	}
	return purged
}

func (c *CleanupService) Stop() {
	close(c.stopCh)
}
