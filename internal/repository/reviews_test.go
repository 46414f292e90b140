package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/reelrate/internal/domain"
	"github.com/Clark-Hu/reelrate/internal/live"
)

var fixedNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

func newReviewRepo(t *testing.T) (*MovieReviewRepository, *mockReviewStore, *live.Broker) {
	t.Helper()
	reviews := new(mockReviewStore)
	broker := live.NewBroker(nil)
	t.Cleanup(broker.Close)
	repo := NewMovieReviewRepository(reviews, broker, nil)
	repo.now = func() time.Time { return fixedNow }
	return repo, reviews, broker
}

func TestAddReview_DefaultsTimestamp(t *testing.T) {
	repo, reviews, _ := newReviewRepo(t)
	ctx := context.Background()

	in := domain.MovieReview{UserID: 1, ImdbID: "tt001", MovieTitle: "Movie", Rating: 5}
	want := in
	want.Timestamp = fixedNow
	reviews.On("Insert", ctx, want).Return(int64(10), nil).Once()

	id, err := repo.AddReview(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
	reviews.AssertExpectations(t)
}

func TestAddReview_KeepsGivenTimestamp(t *testing.T) {
	repo, reviews, _ := newReviewRepo(t)
	ctx := context.Background()

	at := fixedNow.Add(-48 * time.Hour)
	in := domain.MovieReview{UserID: 1, ImdbID: "tt001", Rating: 3, Timestamp: at}
	reviews.On("Insert", ctx, in).Return(int64(11), nil).Once()

	_, err := repo.AddReview(ctx, in)
	require.NoError(t, err)
	reviews.AssertExpectations(t)
}

func TestAddReview_RejectsOutOfRangeRating(t *testing.T) {
	repo, reviews, _ := newReviewRepo(t)

	for _, rating := range []float64{-1, 5.5, 10} {
		_, err := repo.AddReview(context.Background(), domain.MovieReview{Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %v", rating)
	}
	reviews.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestGetAverageRating(t *testing.T) {
	repo, reviews, _ := newReviewRepo(t)
	ctx := context.Background()

	four := 4.0
	reviews.On("AverageRating", ctx, "tt-empty").Return(nil, nil).Once()
	reviews.On("AverageRating", ctx, "tt-rated").Return(&four, nil).Once()
	reviews.On("AverageRating", ctx, "tt-broken").Return(nil, errors.New("io")).Once()

	avg, err := repo.GetAverageRating(ctx, "tt-empty")
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)

	avg, err = repo.GetAverageRating(ctx, "tt-rated")
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg)

	_, err = repo.GetAverageRating(ctx, "tt-broken")
	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestGetMovieStats(t *testing.T) {
	repo, reviews, _ := newReviewRepo(t)
	ctx := context.Background()

	avg := 3.5
	reviews.On("AverageRating", ctx, "tt001").Return(&avg, nil).Once()
	reviews.On("CountByMovie", ctx, "tt001").Return(int64(2), nil).Once()

	stats, err := repo.GetMovieStats(ctx, "tt001")
	require.NoError(t, err)
	assert.Equal(t, domain.MovieStats{Average: 3.5, Count: 2}, stats)
}

func TestUpdateAndDeleteReview_NotFound(t *testing.T) {
	repo, reviews, _ := newReviewRepo(t)
	ctx := context.Background()

	r := domain.MovieReview{ID: 9, Rating: 2, Timestamp: fixedNow}
	reviews.On("Update", ctx, r).Return(int64(0), nil).Once()
	reviews.On("Delete", ctx, int64(9)).Return(int64(0), nil).Once()
	reviews.On("FindByID", ctx, int64(9)).Return(nil, nil).Once()

	assert.ErrorIs(t, repo.UpdateReview(ctx, r), ErrReviewNotFound)
	assert.ErrorIs(t, repo.DeleteReview(ctx, 9), ErrReviewNotFound)
	_, err := repo.GetReview(ctx, 9)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestGetUserReviewForMovie_Absent(t *testing.T) {
	repo, reviews, _ := newReviewRepo(t)
	ctx := context.Background()

	reviews.On("FindByUserAndMovie", ctx, int64(1), "tt001").Return(nil, nil).Once()

	got, err := repo.GetUserReviewForMovie(ctx, 1, "tt001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWatchReviewsByMovie_RefreshesOnChange(t *testing.T) {
	repo, reviews, broker := newReviewRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	one := []domain.MovieReview{{ID: 1, ImdbID: "tt001", Rating: 5}}
	two := []domain.MovieReview{{ID: 2, ImdbID: "tt001", Rating: 2}, one[0]}
	reviews.On("ListByMovie", mock.Anything, "tt001").Return(one, nil).Once()
	reviews.On("ListByMovie", mock.Anything, "tt001").Return(two, nil).Once()

	snaps := repo.WatchReviewsByMovie(ctx, "tt001")
	first := <-snaps
	require.NoError(t, first.Err)
	assert.Len(t, first.Value, 1)

	// Changes to other tables are ignored.
	broker.Publish(live.Event{Table: "users"})
	broker.Publish(live.Event{Table: "movie_reviews"})

	second := <-snaps
	require.NoError(t, second.Err)
	assert.Equal(t, two, second.Value)
}
