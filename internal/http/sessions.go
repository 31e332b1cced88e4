package httpapi

import (
	"net/http"

	"gymcore-backend-go/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListSessions(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.WorkoutSession]{Items: items})
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.Service.GetSession(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, session)
}

func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.WorkoutSession
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.Service.CreateSession(r.Context(), CurrentPrincipal(r), &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, session)
}

func (s *Server) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req models.WorkoutSession
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.Service.UpdateSession(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, session)
}

func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteSession(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
