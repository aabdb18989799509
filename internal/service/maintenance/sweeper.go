package maintenance

import (
	"context"
	"time"

	"github.com/esavelyev/staffpass/internal/logger"
)

const (
	defaultSweepInterval = time.Hour

	// Revoked sessions are kept this long after revocation. Any refresh
	// token pointing at them is expired by then, so nothing can observe
	// the deletion.
	defaultRevokedRetention = 30 * 24 * time.Hour
)

type sessionStore interface {
	DeleteSessionsRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type revocationLedger interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper drops ledger entries for tokens that expired on their own and
// sessions that were revoked long enough ago. Neither is observable through
// the auth flow, the sweep only keeps the tables from growing forever.
type Sweeper struct {
	interval  time.Duration
	retention time.Duration

	sessions sessionStore
	ledger   revocationLedger
	logger   logger.Logger
}

type Config struct {
	// How often to sweep. Default: hourly.
	Interval time.Duration

	// How long revoked sessions are retained. Must cover the refresh token
	// lifetime. Default: 30 days.
	Retention time.Duration
}

func New(cfg Config, sessions sessionStore, ledger revocationLedger, l logger.Logger) *Sweeper {
	setDefaultDuration := func(d *time.Duration, value time.Duration) {
		if *d == 0 {
			*d = value
		}
	}

	setDefaultDuration(&cfg.Interval, defaultSweepInterval)
	setDefaultDuration(&cfg.Retention, defaultRevokedRetention)

	return &Sweeper{
		interval:  cfg.Interval,
		retention: cfg.Retention,
		sessions:  sessions,
		ledger:    ledger,
		logger:    l,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. The returned channel
// is closed when the sweeper has fully stopped.
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting maintenance sweeper", "interval", s.interval, "retention", s.retention)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweeper stopped by context")
				return

			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	return idleStopped
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()

	tokens, err := s.ledger.DeleteExpiredTokens(ctx, now)
	switch {
	case err != nil:
		s.logger.Error("Failed to sweep expired revoked tokens", "error", err)
	case tokens > 0:
		s.logger.Info("Swept expired revoked tokens", "count", tokens)
	}

	sessions, err := s.sessions.DeleteSessionsRevokedBefore(ctx, now.Add(-s.retention))
	switch {
	case err != nil:
		s.logger.Error("Failed to sweep revoked sessions", "error", err)
	case sessions > 0:
		s.logger.Info("Swept revoked sessions", "count", sessions)
	}
}
