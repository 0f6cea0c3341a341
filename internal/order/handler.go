// AngelaMos | 2026
// handler.go

package order

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

// RegisterRoutes mounts /orders. checkoutLimiter wraps order creation only.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, checkoutLimiter func(http.Handler) http.Handler,
) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.With(checkoutLimiter).Post("/", h.Create)
		r.Get("/{orderID}", h.Get)
		r.Put("/{orderID}", h.Update)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.Checkout(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		middleware.ClientIP(r),
		req,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "product")
		case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInsufficientStock):
			core.BadRequest(w, err.Error())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToOrderResponse(o))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListOrdersParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 10),
		Status:   r.URL.Query().Get("status"),
	}
	params.Normalize()

	all := false
	if v := core.QueryBool(r, "all"); v != nil {
		all = *v
	}

	orders, total, err := h.service.List(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		middleware.IsAdmin(r.Context()),
		all,
		params,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToOrderResponseList(orders), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(
		r.Context(),
		chi.URLParam(r, "orderID"),
		middleware.GetUserEmail(r.Context()),
		middleware.IsAdmin(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.Update(
		r.Context(),
		chi.URLParam(r, "orderID"),
		middleware.GetUserEmail(r.Context()),
		middleware.ClientIP(r),
		middleware.IsAdmin(r.Context()),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "order")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "not your order")
	case errors.Is(err, ErrOwnerStatusChange):
		core.Forbidden(w, ErrOwnerStatusChange.Error())
	case errors.Is(err, ErrNotCancellable):
		core.BadRequest(w, ErrNotCancellable.Error())
	default:
		core.InternalServerError(w, err)
	}
}
