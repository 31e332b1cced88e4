package httpapi

import (
	"net/http"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type AssignPlanRequest struct {
	UserID string `json:"userId"`
}

type ToggleMealRequest struct {
	Date string `json:"date"`
}

func (s *Server) StartPlan(w http.ResponseWriter, r *http.Request) {
	assignment, ok, err := s.Service.StartPlan(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, created(ok), assignment)
}

func (s *Server) AssignPlan(w http.ResponseWriter, r *http.Request) {
	var req AssignPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	assignment, err := s.Service.AssignPlan(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, assignment)
}

// ToggleMealLog accepts an empty body, which toggles today's log.
func (s *Server) ToggleMealLog(w http.ResponseWriter, r *http.Request) {
	var req ToggleMealRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	log, err := s.Service.ToggleMealLog(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"), req.Date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, log)
}

func (s *Server) ListAssignments(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListAssignments(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.NutritionAssignment]{Items: items})
}

func (s *Server) GetAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, err := s.Service.GetAssignment(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, assignment)
}

func (s *Server) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var req services.AssignmentUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	assignment, err := s.Service.UpdateAssignment(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, assignment)
}

func (s *Server) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteAssignment(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CompleteAssignment(w http.ResponseWriter, r *http.Request) {
	result, err := s.Service.CompleteAssignment(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) ListMealLogs(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListMealLogs(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.UserMealLog]{Items: items})
}

func (s *Server) GetMealLog(w http.ResponseWriter, r *http.Request) {
	log, err := s.Service.GetMealLog(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, log)
}
