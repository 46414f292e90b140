package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/reelrate/internal/domain"
)

// Whole stars only.
var allowedRatings = map[float64]struct{}{
	1.0: {}, 2.0: {}, 3.0: {}, 4.0: {}, 5.0: {},
}

type createReviewRequest struct {
	ImdbID      string  `json:"imdbId" validate:"required,max=20"`
	MovieTitle  string  `json:"movieTitle" validate:"max=300"`
	MoviePoster string  `json:"moviePoster" validate:"max=2048"`
	MovieYear   string  `json:"movieYear" validate:"max=20"`
	Rating      float64 `json:"rating"`
	Comment     string  `json:"comment" validate:"max=2000"`
}

type updateReviewRequest struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment" validate:"max=2000"`
}

type reviewResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	ImdbID      string    `json:"imdbId"`
	MovieTitle  string    `json:"movieTitle"`
	MoviePoster string    `json:"moviePoster"`
	MovieYear   string    `json:"movieYear"`
	Rating      float64   `json:"rating"`
	Comment     string    `json:"comment"`
	Timestamp   time.Time `json:"timestamp"`
}

func toReviewResponse(r domain.MovieReview) reviewResponse {
	return reviewResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		ImdbID:      r.ImdbID,
		MovieTitle:  r.MovieTitle,
		MoviePoster: r.MoviePoster,
		MovieYear:   r.MovieYear,
		Rating:      r.Rating,
		Comment:     r.Comment,
		Timestamp:   r.Timestamp.UTC(),
	}
}

func toReviewResponses(reviews []domain.MovieReview) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(r))
	}
	return out
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.repo.Reviews.ListAllReviews(r.Context())
	if err != nil {
		s.respondFailure(w, "list reviews", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponses(reviews))
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid X-User-Id header")
		return
	}

	var req createReviewRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := allowedRatings[req.Rating]; !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be one of {1.0, 2.0, 3.0, 4.0, 5.0}")
		return
	}

	review := domain.MovieReview{
		UserID:      caller,
		ImdbID:      strings.TrimSpace(req.ImdbID),
		MovieTitle:  strings.TrimSpace(req.MovieTitle),
		MoviePoster: strings.TrimSpace(req.MoviePoster),
		MovieYear:   strings.TrimSpace(req.MovieYear),
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
	}
	if review.MovieTitle == "" {
		if err := s.fillMovieFields(r.Context(), &review); err != nil {
			s.respondFailure(w, "look up movie", err)
			return
		}
	}

	id, err := s.repo.Reviews.AddReview(r.Context(), review)
	if err != nil {
		s.respondFailure(w, "add review", err)
		return
	}
	stored, err := s.repo.Reviews.GetReview(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "add review", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toReviewResponse(stored))
}

// fillMovieFields copies title, poster and year from OMDb into review.
func (s *Server) fillMovieFields(ctx context.Context, review *domain.MovieReview) error {
	ctx, cancel := s.omdbContext(ctx)
	defer cancel()

	details, err := s.movies.Details(ctx, review.ImdbID)
	if err != nil {
		return err
	}
	review.MovieTitle = details.Title
	review.MoviePoster = details.Poster
	review.MovieYear = details.Year
	return nil
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	review, ok := s.ownedReview(w, r)
	if !ok {
		return
	}

	var req updateReviewRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := allowedRatings[req.Rating]; !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be one of {1.0, 2.0, 3.0, 4.0, 5.0}")
		return
	}

	review.Rating = req.Rating
	review.Comment = strings.TrimSpace(req.Comment)
	// Editing moves the review to the top of its lists.
	review.Timestamp = time.Time{}

	if err := s.repo.Reviews.UpdateReview(r.Context(), review); err != nil {
		s.respondFailure(w, "update review", err)
		return
	}
	updated, err := s.repo.Reviews.GetReview(r.Context(), review.ID)
	if err != nil {
		s.respondFailure(w, "update review", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(updated))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	review, ok := s.ownedReview(w, r)
	if !ok {
		return
	}
	if err := s.repo.Reviews.DeleteReview(r.Context(), review.ID); err != nil {
		s.respondFailure(w, "delete review", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedReview loads the review named in the path and checks the caller wrote
// it.
func (s *Server) ownedReview(w http.ResponseWriter, r *http.Request) (domain.MovieReview, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return domain.MovieReview{}, false
	}
	caller, ok := callerID(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid X-User-Id header")
		return domain.MovieReview{}, false
	}

	review, err := s.repo.Reviews.GetReview(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "load review", err)
		return domain.MovieReview{}, false
	}
	if review.UserID != caller {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Cannot modify another user's review")
		return domain.MovieReview{}, false
	}
	return review, true
}
