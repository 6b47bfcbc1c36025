package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/dogsport-ua/competition-engine/internal/competition"
)

// Closer periodically closes registration for competitions whose start
// date has passed
type Closer struct {
	service  competition.Service
	interval time.Duration
}

// NewCloser creates a new registration closer worker
func NewCloser(service competition.Service, interval time.Duration) *Closer {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Closer{
		service:  service,
		interval: interval,
	}
}

// Start begins the worker in a goroutine
func (c *Closer) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the worker
func (c *Closer) run(ctx context.Context) {
	slog.Info("registration closer started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.close(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("registration closer stopped")
			return
		case <-ticker.C:
			c.close(ctx)
		}
	}
}

func (c *Closer) close(ctx context.Context) {
	slog.Debug("running registration close cycle")

	closed, err := c.service.CloseDueRegistrations(ctx)
	if err != nil {
		slog.Error("failed to close due registrations", "error", err)
		return
	}

	if closed > 0 {
		slog.Info("closed registrations", "count", closed)
	}
}
