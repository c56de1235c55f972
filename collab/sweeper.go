package collab

import (
	"context"
	"time"

	"collab-server/core"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically purges presence entries whose last-seen timestamp has
// aged past the TTL. Disconnect notification is not fully reliable; the
// sweeper is the backstop that bounds worst-case staleness to roughly
// interval + ttl.
type Sweeper struct {
	registry *Registry
	activity core.ActivityStore // optional
	ttl      time.Duration
	interval time.Duration
}

func NewSweeper(registry *Registry, activity core.ActivityStore, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{registry: registry, activity: activity, ttl: ttl, interval: interval}
}

// Run ticks until ctx is cancelled. Meant to be started as a goroutine by
// the owning process.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"ttl":      s.ttl,
		"interval": s.interval,
	}).Info("Presence sweeper started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Presence sweeper stopped")
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// Sweep runs one maintenance pass.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) {
	evicted := s.registry.SweepExpired(now, s.ttl)
	if len(evicted) == 0 {
		return
	}

	logrus.WithField("rooms", evicted).Info("Swept empty rooms")

	if s.activity == nil {
		return
	}
	for _, roomKey := range evicted {
		if err := s.activity.DeleteRoom(ctx, roomKey); err != nil {
			logrus.WithField("room_key", roomKey).WithError(err).Warn("Failed to delete room activity")
		}
	}
}
