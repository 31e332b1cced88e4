package httpapi

import (
	"net/http"

	"gymcore-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// mountCatalogue registers list/get/create/update/delete for one catalogue.
func mountCatalogue[T any, P interface {
	*T
	services.Record
}](r chi.Router, s *Server, c *services.Catalogue[T, P]) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		items, err := c.List(r.Context(), s.Service, CurrentPrincipal(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, ListResponse[T]{Items: items})
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		item, err := c.Get(r.Context(), s.Service, CurrentPrincipal(r), chi.URLParam(r, "id"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, item)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var in T
		if !decodeJSON(w, r, &in) {
			return
		}
		item, err := c.Create(r.Context(), s.Service, CurrentPrincipal(r), P(&in))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, item)
	})
	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in T
		if !decodeJSON(w, r, &in) {
			return
		}
		item, err := c.Update(r.Context(), s.Service, CurrentPrincipal(r), chi.URLParam(r, "id"), P(&in))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, item)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := c.Delete(r.Context(), s.Service, CurrentPrincipal(r), chi.URLParam(r, "id")); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
