package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/dao"
	"github.com/Clark-Hu/reelrate/internal/domain"
	"github.com/Clark-Hu/reelrate/internal/live"
	"github.com/Clark-Hu/reelrate/internal/store"
)

// UserRepository manages accounts.
type UserRepository struct {
	users  UserStore
	tx     Transactor
	broker *live.Broker
	hasher PasswordHasher
	log    *zap.Logger
}

// NewUserRepository wires a UserRepository. tx serves operations spanning
// both tables. A nil hasher keeps passwords verbatim and matches them with an
// exact lookup.
func NewUserRepository(users UserStore, tx Transactor, broker *live.Broker, logger *zap.Logger, hasher PasswordHasher) *UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserRepository{
		users:  users,
		tx:     tx,
		broker: broker,
		hasher: hasher,
		log:    logger.With(zap.String("repository", "users")),
	}
}

// Register creates an account. The email must not belong to another user.
func (r *UserRepository) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	existing, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, storeFailure("register", err)
	}
	if existing != nil {
		r.log.Warn("Registration rejected, email taken", zap.String("email", email))
		return domain.User{}, ErrDuplicateEmail
	}

	stored, err := r.storedPassword(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			r.log.Warn("Registration rejected, password too long", zap.String("email", email))
			return domain.User{}, ErrPasswordTooLong
		}
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{Username: username, Email: email, Password: stored}
	id, err := r.users.Insert(ctx, u)
	if err != nil {
		// A concurrent registration won the unique index.
		if dao.IsUniqueViolation(err) {
			r.log.Warn("Registration lost email race", zap.String("email", email))
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, storeFailure("register", err)
	}
	u.ID = id

	r.log.Info("User registered", zap.Int64("user_id", id), zap.String("email", email))
	return u, nil
}

// Login returns the account whose email and password match.
func (r *UserRepository) Login(ctx context.Context, email, password string) (domain.User, error) {
	if r.hasher == nil {
		u, err := r.users.FindByCredentials(ctx, email, password)
		if err != nil {
			return domain.User{}, storeFailure("login", err)
		}
		if u == nil {
			r.log.Warn("Login rejected", zap.String("email", email))
			return domain.User{}, ErrInvalidCredentials
		}
		return *u, nil
	}

	u, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, storeFailure("login", err)
	}
	if u == nil {
		r.log.Warn("Login rejected", zap.String("email", email))
		return domain.User{}, ErrInvalidCredentials
	}
	ok, err := r.hasher.Compare(u.Password, password)
	if err != nil {
		return domain.User{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		r.log.Warn("Login rejected", zap.String("email", email))
		return domain.User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// UpdateUser replaces the stored account with u. The email may not belong to
// any other user.
func (r *UserRepository) UpdateUser(ctx context.Context, u domain.User) error {
	other, err := r.users.FindByEmailExcluding(ctx, u.Email, u.ID)
	if err != nil {
		return storeFailure("update user", err)
	}
	if other != nil {
		r.log.Warn("Update rejected, email in use", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
		return ErrEmailInUse
	}

	n, err := r.users.Update(ctx, u)
	if err != nil {
		if dao.IsUniqueViolation(err) {
			return ErrEmailInUse
		}
		return storeFailure("update user", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}

	r.log.Info("User updated", zap.Int64("user_id", u.ID))
	return nil
}

// DeleteUser removes the account. The user's reviews are left in place.
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	n, err := r.users.Delete(ctx, id)
	if err != nil {
		return storeFailure("delete user", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	r.log.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

// DeleteUserAndReviews removes the account and every review it wrote in one
// transaction and reports how many reviews went with it. On failure neither
// table changes.
func (r *UserRepository) DeleteUserAndReviews(ctx context.Context, id int64) (int64, error) {
	var purged int64
	err := r.tx.InTx(ctx, func(users UserStore, reviews ReviewStore) error {
		n, err := users.Delete(ctx, id)
		if err != nil {
			return storeFailure("delete user", err)
		}
		if n == 0 {
			return ErrUserNotFound
		}
		purged, err = reviews.DeleteByUser(ctx, id)
		if err != nil {
			return storeFailure("delete user reviews", err)
		}
		return nil
	})
	if err != nil {
		var se *StoreError
		if errors.Is(err, ErrUserNotFound) || errors.As(err, &se) {
			return 0, err
		}
		return 0, storeFailure("delete user", err)
	}

	r.log.Info("User deleted with reviews", zap.Int64("user_id", id), zap.Int64("reviews", purged))
	return purged, nil
}

// GetUser loads one account.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := r.users.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, storeFailure("get user", err)
	}
	if u == nil {
		return domain.User{}, ErrUserNotFound
	}
	return *u, nil
}

// WatchUser streams the current state of account id until ctx ends. The
// value is nil while no such row exists.
func (r *UserRepository) WatchUser(ctx context.Context, id int64) <-chan live.Snapshot[*domain.User] {
	return live.Watch(ctx, r.broker, func(ctx context.Context) (*domain.User, error) {
		u, err := r.users.FindByID(ctx, id)
		if err != nil {
			return nil, storeFailure("watch user", err)
		}
		return u, nil
	}, store.TableUsers)
}

func (r *UserRepository) storedPassword(password string) (string, error) {
	if r.hasher == nil {
		return password, nil
	}
	return r.hasher.Hash(password)
}
