package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterAPI mounts the JSON API on r. Login, logout and me are public;
// everything else requires a session.
func (h *Handlers) RegisterAPI(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/membros", h.ListMembers)
		r.Post("/membros", h.CreateMember)
		r.Put("/membros/{id}", h.UpdateMember)
		r.Delete("/membros/{id}", h.DeleteMember)

		r.Get("/contribuicoes", h.ListContributions)
		r.Post("/contribuicoes", h.CreateContribution)
		r.Delete("/contribuicoes/{id}", h.DeleteContribution)

		r.Get("/resumo", h.Summary)
	})
}

// MethodNotAllowed answers known paths called with an unsupported method.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Método não permitido")
}
