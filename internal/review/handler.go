// AngelaMos | 2026
// handler.go

package review

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
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(authenticator).Post("/", h.Create)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListReviewsParams{
		ProductID: r.URL.Query().Get("product_id"),
		Page:      core.QueryInt(r, "page", 1),
		PageSize:  core.QueryInt(r, "page_size", 20),
	}
	if params.ProductID == "" {
		core.BadRequest(w, "product_id is required")
		return
	}
	params.Normalize()

	reviews, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToReviewResponseList(reviews), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rev, err := h.service.Create(r.Context(), middleware.GetUserEmail(r.Context()), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyReviewed):
			core.JSONError(w, core.ConflictError(ErrAlreadyReviewed.Error()))
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "product")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToReviewResponse(rev))
}
