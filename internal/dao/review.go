package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/domain"
)

const reviewColumns = `
    id,
    user_id,
    imdb_id,
    movie_title,
    movie_poster,
    movie_year,
    rating,
    comment,
    timestamp
`

const reviewOrder = ` ORDER BY timestamp DESC, id DESC`

// ReviewDAO reads and writes the movie_reviews table.
type ReviewDAO struct {
	db  Querier
	log *zap.Logger
}

// NewReviewDAO binds a ReviewDAO to db.
func NewReviewDAO(db Querier, log *zap.Logger) *ReviewDAO {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewDAO{db: db, log: log.With(zap.String("dao", "movie_reviews"))}
}

// Insert stores r and returns the generated id. r.ID is ignored.
func (d *ReviewDAO) Insert(ctx context.Context, r domain.MovieReview) (int64, error) {
	const query = `
        INSERT INTO movie_reviews (user_id, imdb_id, movie_title, movie_poster, movie_year, rating, comment, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	var id int64
	err := d.db.QueryRow(ctx, query,
		r.UserID, r.ImdbID, r.MovieTitle, r.MoviePoster, r.MovieYear, r.Rating, r.Comment, r.Timestamp,
	).Scan(&id)
	if err != nil {
		d.log.Error("Failed to insert review",
			zap.Error(err),
			zap.Int64("user_id", r.UserID),
			zap.String("imdb_id", r.ImdbID),
		)
		return 0, fmt.Errorf("insert review for %s: %w", r.ImdbID, err)
	}
	return id, nil
}

// Update replaces every column of the row with r.ID and reports how many
// rows matched.
func (d *ReviewDAO) Update(ctx context.Context, r domain.MovieReview) (int64, error) {
	const query = `
        UPDATE movie_reviews
        SET user_id = $2, imdb_id = $3, movie_title = $4, movie_poster = $5,
            movie_year = $6, rating = $7, comment = $8, timestamp = $9
        WHERE id = $1
    `
	tag, err := d.db.Exec(ctx, query,
		r.ID, r.UserID, r.ImdbID, r.MovieTitle, r.MoviePoster, r.MovieYear, r.Rating, r.Comment, r.Timestamp,
	)
	if err != nil {
		d.log.Error("Failed to update review", zap.Error(err), zap.Int64("review_id", r.ID))
		return 0, fmt.Errorf("update review %d: %w", r.ID, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the review with id and reports how many rows matched.
func (d *ReviewDAO) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := d.db.Exec(ctx, `DELETE FROM movie_reviews WHERE id = $1`, id)
	if err != nil {
		d.log.Error("Failed to delete review", zap.Error(err), zap.Int64("review_id", id))
		return 0, fmt.Errorf("delete review %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByUser removes every review written by userID.
func (d *ReviewDAO) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := d.db.Exec(ctx, `DELETE FROM movie_reviews WHERE user_id = $1`, userID)
	if err != nil {
		d.log.Error("Failed to delete reviews of user", zap.Error(err), zap.Int64("user_id", userID))
		return 0, fmt.Errorf("delete reviews of user %d: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

// FindByID returns the review with id, or nil.
func (d *ReviewDAO) FindByID(ctx context.Context, id int64) (*domain.MovieReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM movie_reviews WHERE id = $1`
	r, err := scanReview(d.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		d.log.Error("Failed to find review", zap.Error(err), zap.Int64("review_id", id))
		return nil, fmt.Errorf("find review %d: %w", id, err)
	}
	return &r, nil
}

// FindByUserAndMovie returns the newest review userID wrote for imdbID, or
// nil.
func (d *ReviewDAO) FindByUserAndMovie(ctx context.Context, userID int64, imdbID string) (*domain.MovieReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM movie_reviews WHERE user_id = $1 AND imdb_id = $2` + reviewOrder + ` LIMIT 1`
	r, err := scanReview(d.db.QueryRow(ctx, query, userID, imdbID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		d.log.Error("Failed to find review of user for movie",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("imdb_id", imdbID),
		)
		return nil, fmt.Errorf("find review of user %d for %s: %w", userID, imdbID, err)
	}
	return &r, nil
}

// ListByUser returns userID's reviews, newest first.
func (d *ReviewDAO) ListByUser(ctx context.Context, userID int64) ([]domain.MovieReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM movie_reviews WHERE user_id = $1` + reviewOrder
	reviews, err := d.list(ctx, query, userID)
	if err != nil {
		d.log.Error("Failed to list reviews by user", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("list reviews of user %d: %w", userID, err)
	}
	return reviews, nil
}

// ListByMovie returns the reviews for imdbID, newest first.
func (d *ReviewDAO) ListByMovie(ctx context.Context, imdbID string) ([]domain.MovieReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM movie_reviews WHERE imdb_id = $1` + reviewOrder
	reviews, err := d.list(ctx, query, imdbID)
	if err != nil {
		d.log.Error("Failed to list reviews by movie", zap.Error(err), zap.String("imdb_id", imdbID))
		return nil, fmt.Errorf("list reviews of %s: %w", imdbID, err)
	}
	return reviews, nil
}

// ListAll returns every review, newest first.
func (d *ReviewDAO) ListAll(ctx context.Context) ([]domain.MovieReview, error) {
	reviews, err := d.list(ctx, `SELECT `+reviewColumns+` FROM movie_reviews`+reviewOrder)
	if err != nil {
		d.log.Error("Failed to list reviews", zap.Error(err))
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// AverageRating returns the mean rating of imdbID, or nil when the movie has
// no reviews.
func (d *ReviewDAO) AverageRating(ctx context.Context, imdbID string) (*float64, error) {
	var avg *float64
	err := d.db.QueryRow(ctx, `SELECT AVG(rating) FROM movie_reviews WHERE imdb_id = $1`, imdbID).Scan(&avg)
	if err != nil {
		d.log.Error("Failed to average ratings", zap.Error(err), zap.String("imdb_id", imdbID))
		return nil, fmt.Errorf("average rating of %s: %w", imdbID, err)
	}
	return avg, nil
}

// CountByMovie returns how many reviews imdbID has.
func (d *ReviewDAO) CountByMovie(ctx context.Context, imdbID string) (int64, error) {
	var n int64
	err := d.db.QueryRow(ctx, `SELECT COUNT(*) FROM movie_reviews WHERE imdb_id = $1`, imdbID).Scan(&n)
	if err != nil {
		d.log.Error("Failed to count reviews", zap.Error(err), zap.String("imdb_id", imdbID))
		return 0, fmt.Errorf("count reviews of %s: %w", imdbID, err)
	}
	return n, nil
}

func (d *ReviewDAO) list(ctx context.Context, query string, args ...any) ([]domain.MovieReview, error) {
	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.MovieReview{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func scanReview(row pgx.Row) (domain.MovieReview, error) {
	var r domain.MovieReview
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.ImdbID,
		&r.MovieTitle,
		&r.MoviePoster,
		&r.MovieYear,
		&r.Rating,
		&r.Comment,
		&r.Timestamp,
	)
	return r, err
}
