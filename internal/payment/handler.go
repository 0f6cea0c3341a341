// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/order"
)

const maxWebhookBytes = 64 << 10

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

// RegisterRoutes mounts /payments. The webhook is unauthenticated and relies
// on the Stripe signature instead.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, intentLimiter func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		r.With(authenticator, intentLimiter).Post("/intent", h.CreateIntent)
		r.Post("/webhook", h.Webhook)
	})
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateIntent(
		r.Context(),
		req.OrderID,
		middleware.GetUserEmail(r.Context()),
		middleware.IsAdmin(r.Context()),
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "order")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "not your order")
		case errors.Is(err, ErrNotCardOrder),
			errors.Is(err, ErrAlreadyPaid),
			errors.Is(err, ErrOrderCancelled):
			core.BadRequest(w, err.Error())
		case errors.Is(err, ErrNotConfigured):
			core.JSONError(w, core.NewAppError(
				nil,
				ErrNotConfigured.Error(),
				http.StatusServiceUnavailable,
				"PAYMENTS_UNAVAILABLE",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		core.BadRequest(w, "unreadable payload")
		return
	}

	event, err := h.service.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.service.logger.Warn("stripe webhook rejected", "error", err)
		core.BadRequest(w, ErrInvalidWebhook.Error())
		return
	}

	if err := h.service.HandleEvent(r.Context(), event); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]string{"status": "received"})
}

var _ Orders = (*order.Service)(nil)
