package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/domain"
	"github.com/Clark-Hu/reelrate/internal/live"
)

const streamKeepAlive = 25 * time.Second

// handleStreamReviews serves a live review list as server-sent events. Each
// "reviews" event carries the complete current list; an "error" event reports
// a failed re-read and the stream stays open.
func (s *Server) handleStreamReviews(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Streaming unsupported")
		return
	}

	query := r.URL.Query()
	userParam := strings.TrimSpace(query.Get("userId"))
	imdbID := strings.TrimSpace(query.Get("imdbId"))
	if userParam != "" && imdbID != "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "userId and imdbId are mutually exclusive")
		return
	}

	ctx := r.Context()
	var snaps <-chan live.Snapshot[[]domain.MovieReview]
	switch {
	case userParam != "":
		userID, err := strconv.ParseInt(userParam, 10, 64)
		if err != nil || userID <= 0 {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid userId value")
			return
		}
		snaps = s.repo.Reviews.WatchReviewsByUser(ctx, userID)
	case imdbID != "":
		snaps = s.repo.Reviews.WatchReviewsByMovie(ctx, imdbID)
	default:
		snaps = s.repo.Reviews.WatchAllReviews(ctx)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := writeSnapshot(w, snap); err != nil {
				s.logger.Debug("review stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeSnapshot(w http.ResponseWriter, snap live.Snapshot[[]domain.MovieReview]) error {
	event := "reviews"
	var payload interface{} = toReviewResponses(snap.Value)
	if snap.Err != nil {
		event = "error"
		payload = errorResponse{Code: "INTERNAL_ERROR", Message: "Failed to load reviews"}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
