package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/domain"
	"github.com/Clark-Hu/reelrate/internal/live"
	"github.com/Clark-Hu/reelrate/internal/store"
)

// MovieReviewRepository manages star ratings and comments.
type MovieReviewRepository struct {
	reviews ReviewStore
	broker  *live.Broker
	log     *zap.Logger
	now     func() time.Time
}

// NewMovieReviewRepository wires a MovieReviewRepository.
func NewMovieReviewRepository(reviews ReviewStore, broker *live.Broker, logger *zap.Logger) *MovieReviewRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovieReviewRepository{
		reviews: reviews,
		broker:  broker,
		log:     logger.With(zap.String("repository", "movie_reviews")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddReview stores review and returns its id. A user may review the same
// movie more than once. A zero timestamp is replaced with the current time.
func (r *MovieReviewRepository) AddReview(ctx context.Context, review domain.MovieReview) (int64, error) {
	if !validRating(review.Rating) {
		return 0, ErrInvalidRating
	}
	if review.Timestamp.IsZero() {
		review.Timestamp = r.now()
	}
	id, err := r.reviews.Insert(ctx, review)
	if err != nil {
		return 0, storeFailure("add review", err)
	}
	r.log.Info("Review added",
		zap.Int64("review_id", id),
		zap.Int64("user_id", review.UserID),
		zap.String("imdb_id", review.ImdbID),
	)
	return id, nil
}

// GetReview loads one review.
func (r *MovieReviewRepository) GetReview(ctx context.Context, id int64) (domain.MovieReview, error) {
	review, err := r.reviews.FindByID(ctx, id)
	if err != nil {
		return domain.MovieReview{}, storeFailure("get review", err)
	}
	if review == nil {
		return domain.MovieReview{}, ErrReviewNotFound
	}
	return *review, nil
}

// ListReviewsByUser returns userID's reviews, newest first.
func (r *MovieReviewRepository) ListReviewsByUser(ctx context.Context, userID int64) ([]domain.MovieReview, error) {
	reviews, err := r.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeFailure("list reviews by user", err)
	}
	return reviews, nil
}

// ListReviewsByMovie returns the reviews of imdbID, newest first.
func (r *MovieReviewRepository) ListReviewsByMovie(ctx context.Context, imdbID string) ([]domain.MovieReview, error) {
	reviews, err := r.reviews.ListByMovie(ctx, imdbID)
	if err != nil {
		return nil, storeFailure("list reviews by movie", err)
	}
	return reviews, nil
}

// ListAllReviews returns every review, newest first.
func (r *MovieReviewRepository) ListAllReviews(ctx context.Context) ([]domain.MovieReview, error) {
	reviews, err := r.reviews.ListAll(ctx)
	if err != nil {
		return nil, storeFailure("list reviews", err)
	}
	return reviews, nil
}

// WatchReviewsByUser streams ListReviewsByUser after every review change.
func (r *MovieReviewRepository) WatchReviewsByUser(ctx context.Context, userID int64) <-chan live.Snapshot[[]domain.MovieReview] {
	return r.watch(ctx, func(ctx context.Context) ([]domain.MovieReview, error) {
		return r.ListReviewsByUser(ctx, userID)
	})
}

// WatchReviewsByMovie streams ListReviewsByMovie after every review change.
func (r *MovieReviewRepository) WatchReviewsByMovie(ctx context.Context, imdbID string) <-chan live.Snapshot[[]domain.MovieReview] {
	return r.watch(ctx, func(ctx context.Context) ([]domain.MovieReview, error) {
		return r.ListReviewsByMovie(ctx, imdbID)
	})
}

// WatchAllReviews streams ListAllReviews after every review change.
func (r *MovieReviewRepository) WatchAllReviews(ctx context.Context) <-chan live.Snapshot[[]domain.MovieReview] {
	return r.watch(ctx, r.ListAllReviews)
}

// GetUserReviewForMovie returns the newest review userID wrote for imdbID,
// or nil when there is none.
func (r *MovieReviewRepository) GetUserReviewForMovie(ctx context.Context, userID int64, imdbID string) (*domain.MovieReview, error) {
	review, err := r.reviews.FindByUserAndMovie(ctx, userID, imdbID)
	if err != nil {
		return nil, storeFailure("get user review for movie", err)
	}
	return review, nil
}

// UpdateReview replaces the stored review with review. The last write wins.
// A zero timestamp is replaced with the current time.
func (r *MovieReviewRepository) UpdateReview(ctx context.Context, review domain.MovieReview) error {
	if !validRating(review.Rating) {
		return ErrInvalidRating
	}
	if review.Timestamp.IsZero() {
		review.Timestamp = r.now()
	}
	n, err := r.reviews.Update(ctx, review)
	if err != nil {
		return storeFailure("update review", err)
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	r.log.Info("Review updated", zap.Int64("review_id", review.ID))
	return nil
}

// DeleteReview removes review id.
func (r *MovieReviewRepository) DeleteReview(ctx context.Context, id int64) error {
	n, err := r.reviews.Delete(ctx, id)
	if err != nil {
		return storeFailure("delete review", err)
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	r.log.Info("Review deleted", zap.Int64("review_id", id))
	return nil
}

// DeleteReviewsByUser removes every review userID wrote and returns how many
// were removed.
func (r *MovieReviewRepository) DeleteReviewsByUser(ctx context.Context, userID int64) (int64, error) {
	n, err := r.reviews.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, storeFailure("delete reviews by user", err)
	}
	r.log.Info("Reviews of user deleted", zap.Int64("user_id", userID), zap.Int64("count", n))
	return n, nil
}

// GetAverageRating returns the mean rating of imdbID, or 0 when it has no
// reviews.
func (r *MovieReviewRepository) GetAverageRating(ctx context.Context, imdbID string) (float64, error) {
	avg, err := r.reviews.AverageRating(ctx, imdbID)
	if err != nil {
		return 0, storeFailure("average rating", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// GetMovieStats returns the average rating and review count of imdbID.
func (r *MovieReviewRepository) GetMovieStats(ctx context.Context, imdbID string) (domain.MovieStats, error) {
	avg, err := r.GetAverageRating(ctx, imdbID)
	if err != nil {
		return domain.MovieStats{}, err
	}
	count, err := r.reviews.CountByMovie(ctx, imdbID)
	if err != nil {
		return domain.MovieStats{}, storeFailure("count reviews", err)
	}
	return domain.MovieStats{Average: avg, Count: count}, nil
}

func (r *MovieReviewRepository) watch(ctx context.Context, fetch live.Fetcher[[]domain.MovieReview]) <-chan live.Snapshot[[]domain.MovieReview] {
	return live.Watch(ctx, r.broker, fetch, store.TableMovieReviews)
}

func validRating(v float64) bool {
	return v >= domain.MinRating && v <= domain.MaxRating
}
