package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Clark-Hu/reelrate/internal/domain"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Insert(ctx context.Context, u domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserStore) Update(ctx context.Context, u domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserStore) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserStore) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserStore) FindByCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserStore) FindByEmailExcluding(ctx context.Context, email string, excludeID int64) (*domain.User, error) {
	args := m.Called(ctx, email, excludeID)
	return userArg(args, 0), args.Error(1)
}

func userArg(args mock.Arguments, i int) *domain.User {
	u, _ := args.Get(i).(*domain.User)
	return u
}

type mockReviewStore struct {
	mock.Mock
}

func (m *mockReviewStore) Insert(ctx context.Context, r domain.MovieReview) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReviewStore) Update(ctx context.Context, r domain.MovieReview) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReviewStore) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReviewStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReviewStore) FindByID(ctx context.Context, id int64) (*domain.MovieReview, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.MovieReview)
	return r, args.Error(1)
}

func (m *mockReviewStore) FindByUserAndMovie(ctx context.Context, userID int64, imdbID string) (*domain.MovieReview, error) {
	args := m.Called(ctx, userID, imdbID)
	r, _ := args.Get(0).(*domain.MovieReview)
	return r, args.Error(1)
}

func (m *mockReviewStore) ListByUser(ctx context.Context, userID int64) ([]domain.MovieReview, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]domain.MovieReview)
	return r, args.Error(1)
}

func (m *mockReviewStore) ListByMovie(ctx context.Context, imdbID string) ([]domain.MovieReview, error) {
	args := m.Called(ctx, imdbID)
	r, _ := args.Get(0).([]domain.MovieReview)
	return r, args.Error(1)
}

func (m *mockReviewStore) ListAll(ctx context.Context) ([]domain.MovieReview, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]domain.MovieReview)
	return r, args.Error(1)
}

func (m *mockReviewStore) AverageRating(ctx context.Context, imdbID string) (*float64, error) {
	args := m.Called(ctx, imdbID)
	r, _ := args.Get(0).(*float64)
	return r, args.Error(1)
}

func (m *mockReviewStore) CountByMovie(ctx context.Context, imdbID string) (int64, error) {
	args := m.Called(ctx, imdbID)
	return args.Get(0).(int64), args.Error(1)
}

// stubTx hands its stores to fn without a real transaction.
type stubTx struct {
	users   UserStore
	reviews ReviewStore
}

func (s stubTx) InTx(ctx context.Context, fn func(users UserStore, reviews ReviewStore) error) error {
	return fn(s.users, s.reviews)
}
