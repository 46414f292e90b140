package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/domain"
)

const userColumns = `id, username, email, password`

// UserDAO reads and writes the users table.
type UserDAO struct {
	db  Querier
	log *zap.Logger
}

// NewUserDAO binds a UserDAO to db.
func NewUserDAO(db Querier, log *zap.Logger) *UserDAO {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserDAO{db: db, log: log.With(zap.String("dao", "users"))}
}

// Insert stores u and returns the generated id. u.ID is ignored.
func (d *UserDAO) Insert(ctx context.Context, u domain.User) (int64, error) {
	const query = `
        INSERT INTO users (username, email, password)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	var id int64
	if err := d.db.QueryRow(ctx, query, u.Username, u.Email, u.Password).Scan(&id); err != nil {
		d.log.Error("Failed to insert user", zap.Error(err), zap.String("email", u.Email))
		return 0, fmt.Errorf("insert user %s: %w", u.Email, err)
	}
	return id, nil
}

// Update replaces every column of the row with u.ID and reports how many
// rows matched.
func (d *UserDAO) Update(ctx context.Context, u domain.User) (int64, error) {
	const query = `
        UPDATE users
        SET username = $2, email = $3, password = $4
        WHERE id = $1
    `
	tag, err := d.db.Exec(ctx, query, u.ID, u.Username, u.Email, u.Password)
	if err != nil {
		d.log.Error("Failed to update user", zap.Error(err), zap.Int64("user_id", u.ID))
		return 0, fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the row with id and reports how many rows matched.
func (d *UserDAO) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := d.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		d.log.Error("Failed to delete user", zap.Error(err), zap.Int64("user_id", id))
		return 0, fmt.Errorf("delete user %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// FindByID returns the user with id, or nil.
func (d *UserDAO) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(d.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		d.log.Error("Failed to find user by ID", zap.Error(err), zap.Int64("user_id", id))
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return u, nil
}

// FindByEmail returns the user registered under email, or nil.
func (d *UserDAO) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(d.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		d.log.Error("Failed to find user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}
	return u, nil
}

// FindByCredentials returns the user whose email and stored password both
// match exactly, or nil.
func (d *UserDAO) FindByCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND password = $2`
	u, err := scanUser(d.db.QueryRow(ctx, query, email, password))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		d.log.Error("Failed to find user by credentials", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find user by credentials %s: %w", email, err)
	}
	return u, nil
}

// FindByEmailExcluding returns a user other than excludeID that holds email,
// or nil.
func (d *UserDAO) FindByEmailExcluding(ctx context.Context, email string, excludeID int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND id <> $2`
	u, err := scanUser(d.db.QueryRow(ctx, query, email, excludeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		d.log.Error("Failed to check email owner",
			zap.Error(err),
			zap.String("email", email),
			zap.Int64("excluded_id", excludeID),
		)
		return nil, fmt.Errorf("find user by email %s excluding %d: %w", email, excludeID, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
		return nil, err
	}
	return &u, nil
}
