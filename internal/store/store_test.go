package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/live"
	"github.com/Clark-Hu/reelrate/internal/store"
	"github.com/Clark-Hu/reelrate/internal/store/storetest"
)

func TestStoreHealthAndMigrateIdempotent(t *testing.T) {
	env := storetest.New(t)

	require.NoError(t, env.Store.HealthCheck(env.Ctx))
	require.NotNil(t, env.Store.Stats())

	// Second run finds nothing to apply.
	require.NoError(t, store.Migrate(env.DSN, zap.NewNop()))

	var exists bool
	err := env.Store.Pool().QueryRow(env.Ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'users_email_key')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "unique email index missing")
}

func TestWithTxCommitsOrRollsBack(t *testing.T) {
	env := storetest.New(t)
	insert := `INSERT INTO users (username, email, password) VALUES ($1, $2, 'pw')`

	err := env.Store.WithTx(env.Ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(env.Ctx, insert, "kept", "kept@x.com")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = env.Store.WithTx(env.Ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(env.Ctx, insert, "dropped", "dropped@x.com"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := env.Store.Pool().Query(env.Ctx, `SELECT email FROM users ORDER BY id`)
	require.NoError(t, err)
	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	assert.Equal(t, []string{"kept@x.com"}, emails)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := store.New(context.Background(), "postgres://user@localhost:notaport/db", store.Options{})
	assert.Error(t, err)
}

func TestListenerForwardsTableChanges(t *testing.T) {
	env := storetest.New(t)

	broker := live.NewBroker(nil)
	defer broker.Close()
	sub := broker.Subscribe(store.TableMovieReviews)
	defer sub.Close()

	ctx, cancel := context.WithCancel(env.Ctx)
	done := make(chan error, 1)
	listener := store.NewListener(env.Store, broker)
	go func() { done <- listener.Run(ctx) }()

	select {
	case <-listener.Ready():
	case <-time.After(10 * time.Second):
		t.Fatal("listener never became ready")
	}

	// Connect-time resync signal.
	expectEvent(t, sub, store.TableMovieReviews)

	_, err := env.Store.Pool().Exec(env.Ctx,
		`INSERT INTO movie_reviews (user_id, imdb_id, movie_title, rating) VALUES (1, 'tt0133093', 'The Matrix', 4)`)
	require.NoError(t, err)
	expectEvent(t, sub, store.TableMovieReviews)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func expectEvent(t *testing.T, sub *live.Subscription, table string) {
	t.Helper()
	select {
	case ev := <-sub.C:
		assert.Equal(t, table, ev.Table)
	case <-time.After(5 * time.Second):
		t.Fatalf("no %s event", table)
	}
}
