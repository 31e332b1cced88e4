package httpapi

import (
	"net/http"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListSubscriptions(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.Subscription]{Items: items})
}

func (s *Server) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.Service.GetSubscription(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

func (s *Server) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req services.SubscriptionInput
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := s.Service.CreateSubscription(r.Context(), CurrentPrincipal(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

func (s *Server) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req services.SubscriptionInput
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := s.Service.UpdateSubscription(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

func (s *Server) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteSubscription(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListPayments(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListPayments(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[models.Payment]{Items: items})
}

func (s *Server) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.Service.GetPayment(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payment)
}
