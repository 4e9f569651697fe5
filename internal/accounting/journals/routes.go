package journals

import "github.com/go-chi/chi/v5"

// MountRoutes registers journal routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.submit)
	r.Get("/{id}", h.get)
	r.Post("/{id}/post", h.post)
	r.Post("/{id}/reverse", h.reverse)
	r.Delete("/{id}", h.deleteDraft)
}
