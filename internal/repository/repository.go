package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/dao"
	"github.com/Clark-Hu/reelrate/internal/domain"
	"github.com/Clark-Hu/reelrate/internal/live"
	"github.com/Clark-Hu/reelrate/internal/store"
)

// UserStore is the persistence the user repository needs.
type UserStore interface {
	Insert(ctx context.Context, u domain.User) (int64, error)
	Update(ctx context.Context, u domain.User) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByCredentials(ctx context.Context, email, password string) (*domain.User, error)
	FindByEmailExcluding(ctx context.Context, email string, excludeID int64) (*domain.User, error)
}

// ReviewStore is the persistence the review repository needs.
type ReviewStore interface {
	Insert(ctx context.Context, r domain.MovieReview) (int64, error)
	Update(ctx context.Context, r domain.MovieReview) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.MovieReview, error)
	FindByUserAndMovie(ctx context.Context, userID int64, imdbID string) (*domain.MovieReview, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.MovieReview, error)
	ListByMovie(ctx context.Context, imdbID string) ([]domain.MovieReview, error)
	ListAll(ctx context.Context) ([]domain.MovieReview, error)
	AverageRating(ctx context.Context, imdbID string) (*float64, error)
	CountByMovie(ctx context.Context, imdbID string) (int64, error)
}

// Transactor runs fn against stores bound to one transaction. An error from
// fn rolls everything back and is returned unchanged.
type Transactor interface {
	InTx(ctx context.Context, fn func(users UserStore, reviews ReviewStore) error) error
}

type storeTransactor struct {
	st     *store.Store
	logger *zap.Logger
}

func (t storeTransactor) InTx(ctx context.Context, fn func(users UserStore, reviews ReviewStore) error) error {
	return t.st.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(dao.NewUserDAO(tx, t.logger), dao.NewReviewDAO(tx, t.logger))
	})
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users   *UserRepository
	Reviews *MovieReviewRepository
}

// Option customizes New.
type Option func(*options)

type options struct {
	hasher PasswordHasher
}

// WithPasswordHasher stores passwords through h instead of verbatim.
func WithPasswordHasher(h PasswordHasher) Option {
	return func(o *options) { o.hasher = h }
}

// New constructs a Repository backed by the provided store. Live queries
// re-read whenever broker reports a change to their table.
func New(st *store.Store, broker *live.Broker, logger *zap.Logger, opts ...Option) *Repository {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool := st.Pool()
	return &Repository{
		Users:   NewUserRepository(dao.NewUserDAO(pool, logger), storeTransactor{st: st, logger: logger}, broker, logger, o.hasher),
		Reviews: NewMovieReviewRepository(dao.NewReviewDAO(pool, logger), broker, logger),
	}
}
