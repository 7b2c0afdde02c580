package charge

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/http/respond"
)

type Handler struct {
	svc *charge.Service
}

func NewHandler(svc *charge.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	charges, err := h.svc.ListCharges(r.Context(), filter)
	if err != nil {
		respond.InternalError(w, "failed to list charges")
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(charges))
}
