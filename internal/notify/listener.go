package notify

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/emilythestrangee/agora/backend/internal/logger"
)

// Listen subscribes to outbox notifications on Postgres and wakes the
// dispatcher for each one. It blocks until ctx is cancelled.
func Listen(ctx context.Context, dsn string, d *Dispatcher) error {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Log.WithError(err).WithField("event", ev).Warn("outbox listener event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(NotifyChannel); err != nil {
		return errors.Wrapf(err, "listen %s", NotifyChannel)
	}
	logger.Log.WithField("channel", NotifyChannel).Info("outbox listener started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; messages may have been missed
			d.Wake()
			if n != nil {
				logger.Log.WithField("message_id", n.Extra).Debug("outbox notification")
			}
		case <-time.After(90 * time.Second):
			if err := listener.Ping(); err != nil {
				logger.Log.WithError(err).Warn("outbox listener ping failed")
			}
		}
	}
}
