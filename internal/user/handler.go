// AngelaMos | 2026
// handler.go

package user

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

// RegisterRoutes mounts the customer's own profile under /users/me.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Route("/users/me", func(r chi.Router) {
		r.Get("/", h.Me)
		r.Put("/", h.UpdateMe)
		r.Delete("/", h.CloseMe)
	})
}

// RegisterAdminRoutes mounts customer management under /admin/users.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.With(authenticator, adminOnly).Route("/admin/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Put("/role", h.SetRole)
			r.Delete("/", h.Close)
		})
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Profile(r.Context(), middleware.GetUserID(r.Context()))
	h.respond(w, u, err)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	h.respond(w, u, err)
}

func (h *Handler) CloseMe(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetUserID(r.Context())
	h.close(w, r, id, id)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", defaultPageSize),
		Search:   q.Get("search"),
		Role:     q.Get("role"),
	}
	f.Normalize()

	users, total, err := h.service.List(r.Context(), f)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, NewProfiles(users), f.Page, f.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Profile(r.Context(), chi.URLParam(r, "userID"))
	h.respond(w, u, err)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), chi.URLParam(r, "userID"), req)
	h.respond(w, u, err)
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.SetRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
	h.respond(w, u, err)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, middleware.GetUserID(r.Context()), chi.URLParam(r, "userID"))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request, requesterID, targetID string) {
	if err := h.service.Close(r.Context(), requesterID, targetID); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) respond(w http.ResponseWriter, u *User, err error) {
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, NewProfile(u))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid role")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "insufficient permissions")
	default:
		core.InternalServerError(w, err)
	}
}
