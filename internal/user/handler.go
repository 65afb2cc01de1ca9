// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/middleware"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the caller's own profile under /users/me.
func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.With(authenticator).Route("/users/me", func(r chi.Router) {
		r.Get("/", h.GetMe)
		r.Put("/", h.UpdateMe)
	})
}

// RegisterAdminRoutes mounts account management under /admin/users.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.With(authenticator, adminOnly).Route("/admin/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Put("/role", h.ChangeRole)
		})
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func (h *Handler) reply(w http.ResponseWriter, u *User, err error) {
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}
	core.OK(w, u.response())
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	u, err := h.service.Me(r.Context(), identity)
	h.reply(w, u, err)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	var req ProfileUpdate
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.UpdateMe(r.Context(), identity, req)
	h.reply(w, u, err)
}

// List answers ?page=&page_size=&search=&role= with a paginated envelope.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("page_size"), defaultPageSize),
		Search:   q.Get("search"),
	}

	if raw := q.Get("role"); raw != "" {
		role, ok := core.ParseRole(raw)
		if !ok {
			core.BadRequest(w, "role must be one of: user, admin")
			return
		}
		filter.Role = role
	}

	users, total, filter, err := h.service.List(r.Context(), filter)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, responses(users), filter.Page, filter.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.NotFound(w, "user")
		return
	}

	u, err := h.service.Get(r.Context(), id)
	h.reply(w, u, err)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.NotFound(w, "user")
		return
	}

	var req ProfileUpdate
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), id, req)
	h.reply(w, u, err)
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.NotFound(w, "user")
		return
	}

	var req RoleChange
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.ChangeRole(r.Context(), id, req.Role)
	h.reply(w, u, err)
}

func atoiOr(raw string, fallback int) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return fallback
}
