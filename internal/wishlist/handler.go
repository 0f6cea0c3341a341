// AngelaMos | 2026
// handler.go

package wishlist

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
	r.Route("/wishlist", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Get)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Get(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.respond(w, r, list)
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

	list, err := h.service.AddItem(r.Context(), middleware.GetUserEmail(r.Context()), req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.respond(w, r, list)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.RemoveItem(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		if errors.Is(err, ErrItemNotInWishlist) {
			core.NotFound(w, "wishlist item")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.respond(w, r, list)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, list *Wishlist) {
	view, err := h.service.View(r.Context(), list)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, view)
}
