// AngelaMos | 2026
// handler.go

package product

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /products. Reads are public, writes need admin.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{productID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)

			r.Post("/", h.Create)
			r.Put("/{productID}", h.Update)
			r.Delete("/{productID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	products, params, err := h.service.List(r.Context(), ListParams{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Dir:    q.Get("dir"),
	})
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ProductListResponse{
		Items:  ToProductResponseList(products),
		Count:  len(products),
		Search: params.Search,
		Sort:   params.Sort,
		Dir:    params.Dir,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "productID"))
	if err != nil {
		core.NotFound(w, "product")
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.WriteError(w, err, "product")
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	product, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.WriteError(w, err, "product")
		return
	}

	core.Message(w, http.StatusCreated, "product created", ToProductResponse(product))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "productID"))
	if err != nil {
		core.NotFound(w, "product")
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	product, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		core.WriteError(w, err, "product")
		return
	}

	core.Message(w, http.StatusOK, "product updated", ToProductResponse(product))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "productID"))
	if err != nil {
		core.NotFound(w, "product")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		core.WriteError(w, err, "product")
		return
	}

	core.Message(w, http.StatusOK, "product deleted", nil)
}
