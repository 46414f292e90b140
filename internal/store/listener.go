package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/live"
)

// NotifyChannel is the PostgreSQL channel the change triggers notify on.
// Each payload is the name of the table that changed.
const NotifyChannel = "table_changes"

// Tables with change triggers.
const (
	TableUsers        = "users"
	TableMovieReviews = "movie_reviews"
)

const defaultRetryDelay = time.Second

// Listener forwards table change notifications from the database to a
// live.Publisher. It owns one dedicated connection while running.
type Listener struct {
	store      *Store
	publisher  live.Publisher
	logger     *zap.Logger
	retryDelay time.Duration

	readyOnce sync.Once
	ready     chan struct{}
}

// NewListener builds a listener for st that publishes into pub.
func NewListener(st *Store, pub live.Publisher) *Listener {
	return &Listener{
		store:      st,
		publisher:  pub,
		logger:     st.logger.With(zap.String("component", "listener")),
		retryDelay: defaultRetryDelay,
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the first LISTEN has been issued.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Run listens until ctx ends, reconnecting after failures. Every successful
// (re)connect publishes a change for each table so subscribers re-read
// anything they may have missed while disconnected.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("listen connection lost, retrying", zap.Error(err), zap.Duration("delay", l.retryDelay))

		select {
		case <-time.After(l.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	pooled, err := l.store.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	// The connection leaves the pool so it never serves regular queries
	// while subscribed.
	conn := pooled.Hijack()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	l.logger.Info("listening for table changes", zap.String("channel", NotifyChannel))
	l.readyOnce.Do(func() { close(l.ready) })

	l.publisher.Publish(live.Event{Table: TableUsers})
	l.publisher.Publish(live.Event{Table: TableMovieReviews})

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.logger.Debug("table changed", zap.String("table", n.Payload))
		l.publisher.Publish(live.Event{Table: n.Payload})
	}
}
