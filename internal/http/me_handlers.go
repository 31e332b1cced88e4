package httpapi

import (
	"net/http"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	user, err := s.Service.Me(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]*models.User{"user": user})
}

func (s *Server) PointsHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.PointsHistory(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.PointsEntry]{Items: items})
}

func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	p := CurrentPrincipal(r)
	if err := s.Service.TouchLastSeen(r.Context(), p.ID); err != nil {
		s.Log.Warn("touch_last_seen_failed", zap.String("user_id", p.ID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Leaderboard(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.Leaderboard(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[services.LeaderboardEntry]{Items: items})
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListUsers(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.User]{Items: items})
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Service.GetUser(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}
