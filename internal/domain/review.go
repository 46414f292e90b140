package domain

import "time"

// Rating bounds in whole stars.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// MovieReview is a user's star rating and comment for a movie. Title, poster
// and year are copied from the search API when the review is created and are
// never refreshed afterwards.
type MovieReview struct {
	ID          int64
	UserID      int64
	ImdbID      string
	MovieTitle  string
	MoviePoster string
	MovieYear   string
	Rating      float64
	Comment     string
	Timestamp   time.Time
}

// MovieStats provides average and count for a movie's reviews.
type MovieStats struct {
	Average float64
	Count   int64
}
