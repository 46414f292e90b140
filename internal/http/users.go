package httpserver

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/domain"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Email    string `json:"email" validate:"required,email"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := s.repo.Users.Register(r.Context(), strings.TrimSpace(req.Username), normalizeEmail(req.Email), req.Password)
	if err != nil {
		s.respondFailure(w, "register", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := s.repo.Users.Login(r.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		s.respondFailure(w, "login", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	u, err := s.repo.Users.GetUser(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "get user", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireSelf(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := s.repo.Users.GetUser(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "update user", err)
		return
	}
	u.Username = strings.TrimSpace(req.Username)
	u.Email = normalizeEmail(req.Email)

	if err := s.repo.Users.UpdateUser(r.Context(), u); err != nil {
		s.respondFailure(w, "update user", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireSelf(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("purgeReviews") == "true" {
		n, err := s.repo.Users.DeleteUserAndReviews(r.Context(), id)
		if err != nil {
			s.respondFailure(w, "delete user", err)
			return
		}
		s.logger.Info("purged reviews of deleted user", zap.Int64("user_id", id), zap.Int64("count", n))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.repo.Users.DeleteUser(r.Context(), id); err != nil {
		s.respondFailure(w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	reviews, err := s.repo.Reviews.ListReviewsByUser(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "list user reviews", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponses(reviews))
}

func (s *Server) handleUserReviewForMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	imdbID, err := imdbParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	review, err := s.repo.Reviews.GetUserReviewForMovie(r.Context(), id, imdbID)
	if err != nil {
		s.respondFailure(w, "get user review", err)
		return
	}
	if review == nil {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "review not found")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(*review))
}

// requireSelf checks that the caller acts on their own account.
func (s *Server) requireSelf(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return 0, false
	}
	caller, ok := callerID(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid X-User-Id header")
		return 0, false
	}
	if caller != id {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Cannot modify another user's account")
		return 0, false
	}
	return id, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
