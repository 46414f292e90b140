package httpserver

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/reelrate/internal/domain"
)

type searchResultResponse struct {
	ImdbID string `json:"imdbId"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Type   string `json:"type"`
	Poster string `json:"poster"`
}

type movieDetailsResponse struct {
	ImdbID     string `json:"imdbId"`
	Title      string `json:"title"`
	Year       string `json:"year"`
	Rated      string `json:"rated,omitempty"`
	Released   string `json:"released,omitempty"`
	Runtime    string `json:"runtime,omitempty"`
	Genre      string `json:"genre"`
	Director   string `json:"director"`
	Writer     string `json:"writer,omitempty"`
	Actors     string `json:"actors,omitempty"`
	Plot       string `json:"plot"`
	Language   string `json:"language,omitempty"`
	Country    string `json:"country,omitempty"`
	Poster     string `json:"poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes,omitempty"`
	Type       string `json:"type,omitempty"`
}

type ratingAggregateResponse struct {
	ImdbID  string  `json:"imdbId"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

func (s *Server) handleSearchMovies(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "q is required")
		return
	}

	ctx, cancel := s.omdbContext(r.Context())
	defer cancel()

	results, err := s.movies.Search(ctx, q)
	if err != nil {
		s.respondFailure(w, "search movies", err)
		return
	}

	items := make([]searchResultResponse, 0, len(results))
	for _, m := range results {
		items = append(items, searchResultResponse{
			ImdbID: m.ImdbID,
			Title:  m.Title,
			Year:   m.Year,
			Type:   m.Type,
			Poster: m.Poster,
		})
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	imdbID, err := imdbParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	ctx, cancel := s.omdbContext(r.Context())
	defer cancel()

	details, err := s.movies.Details(ctx, imdbID)
	if err != nil {
		s.respondFailure(w, "fetch movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieDetailsResponse(*details))
}

func (s *Server) handleMovieReviews(w http.ResponseWriter, r *http.Request) {
	imdbID, err := imdbParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	reviews, err := s.repo.Reviews.ListReviewsByMovie(r.Context(), imdbID)
	if err != nil {
		s.respondFailure(w, "list movie reviews", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponses(reviews))
}

func (s *Server) handleMovieRating(w http.ResponseWriter, r *http.Request) {
	imdbID, err := imdbParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	stats, err := s.repo.Reviews.GetMovieStats(r.Context(), imdbID)
	if err != nil {
		s.respondFailure(w, "fetch rating", err)
		return
	}
	s.respondJSON(w, http.StatusOK, ratingAggregateResponse{
		ImdbID:  imdbID,
		Average: roundToOneDecimal(stats.Average),
		Count:   stats.Count,
	})
}

func (s *Server) omdbContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OMDBTimeoutSecs <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(s.cfg.OMDBTimeoutSecs)*time.Second)
}

func toMovieDetailsResponse(d domain.MovieDetails) movieDetailsResponse {
	return movieDetailsResponse{
		ImdbID:     d.ImdbID,
		Title:      d.Title,
		Year:       d.Year,
		Rated:      d.Rated,
		Released:   d.Released,
		Runtime:    d.Runtime,
		Genre:      d.Genre,
		Director:   d.Director,
		Writer:     d.Writer,
		Actors:     d.Actors,
		Plot:       d.Plot,
		Language:   d.Language,
		Country:    d.Country,
		Poster:     d.Poster,
		ImdbRating: d.ImdbRating,
		ImdbVotes:  d.ImdbVotes,
		Type:       d.Type,
	}
}

func roundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10.0
}
