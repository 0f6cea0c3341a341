// AngelaMos | 2026
// handler.go

package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Put("/items", h.UpdateItem)
		r.Delete("/items", h.RemoveItem)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.respond(w, r, c)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.AddItem(r.Context(), middleware.GetUserEmail(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, r, c)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.UpdateItem(r.Context(), middleware.GetUserEmail(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, r, c)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req RemoveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.RemoveItem(r.Context(), middleware.GetUserEmail(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, r, c)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), middleware.GetUserEmail(r.Context())); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, c *Cart) {
	view, err := h.service.View(r.Context(), c)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, view)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "product")
	case errors.Is(err, ErrItemNotInCart):
		core.NotFound(w, "cart item")
	case errors.Is(err, ErrInvalidVariant), errors.Is(err, ErrInsufficientStock):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
