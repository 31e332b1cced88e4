package httpapi

import (
	"net/http"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type JoinChallengeRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	var req JoinChallengeRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	participation, ok, err := s.Service.JoinChallenge(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, created(ok), participation)
}

func (s *Server) ListParticipations(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListParticipations(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.ChallengeParticipation]{Items: items})
}

func (s *Server) GetParticipation(w http.ResponseWriter, r *http.Request) {
	participation, err := s.Service.GetParticipation(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, participation)
}

func (s *Server) UpdateParticipation(w http.ResponseWriter, r *http.Request) {
	var req services.ParticipationUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	participation, err := s.Service.UpdateParticipation(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, participation)
}

func (s *Server) DeleteParticipation(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteParticipation(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListUserBadges(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListUserBadges(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.UserBadge]{Items: items})
}

func (s *Server) GetUserBadge(w http.ResponseWriter, r *http.Request) {
	award, err := s.Service.GetUserBadge(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, award)
}

func (s *Server) AwardUserBadge(w http.ResponseWriter, r *http.Request) {
	var req services.AwardBadge
	if !decodeJSON(w, r, &req) {
		return
	}
	award, err := s.Service.AwardUserBadge(r.Context(), CurrentPrincipal(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, award)
}

func (s *Server) RevokeUserBadge(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.RevokeUserBadge(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
