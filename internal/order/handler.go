// AngelaMos | 2026
// handler.go

package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /orders and /order-items. Every route needs a
// token; creating and cancelling are for role user, setting a status is
// for admin.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, userOnly, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{orderID}", h.Get)
		r.With(userOnly).Post("/", h.Create)
		r.With(userOnly).Post("/{orderID}/cancel", h.Cancel)
		r.With(adminOnly).Put("/{orderID}/status", h.UpdateStatus)
	})

	r.Route("/order-items", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListItems)
		r.Put("/{itemID}", h.UpdateItem)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	order, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		core.WriteError(w, err, "order")
		return
	}

	core.Message(w, http.StatusCreated, "order created", ToOrderResponse(order))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	q := r.URL.Query()

	orders, filter, err := h.service.List(r.Context(), identity, ListParams{
		UserID: q.Get("userId"),
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Dir:    q.Get("dir"),
	})
	if err != nil {
		core.WriteError(w, err, "order")
		return
	}

	core.OK(w, OrderListResponse{
		Items: ToOrderResponseList(orders),
		Count: len(orders),
		Sort:  filter.Sort,
		Dir:   filter.Dir,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	id, err := core.ParseID(chi.URLParam(r, "orderID"))
	if err != nil {
		core.NotFound(w, "order")
		return
	}

	order, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		core.WriteError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(order))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	id, err := core.ParseID(chi.URLParam(r, "orderID"))
	if err != nil {
		core.NotFound(w, "order")
		return
	}

	order, err := h.service.Cancel(r.Context(), identity, id)
	if err != nil {
		core.WriteError(w, err, "order")
		return
	}

	core.Message(w, http.StatusOK, "order cancelled", StatusResponse{
		ID:     order.ID,
		Status: order.Status,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "orderID"))
	if err != nil {
		core.NotFound(w, "order")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	order, err := h.service.AdminUpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		core.WriteError(w, err, "order")
		return
	}

	core.Message(w, http.StatusOK, "order status updated", StatusResponse{
		ID:     order.ID,
		Status: order.Status,
	})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	orderID, items, err := h.service.ListItems(
		r.Context(),
		identity,
		r.URL.Query().Get("orderId"),
	)
	if err != nil {
		core.WriteError(w, err, "order")
		return
	}

	core.OK(w, ItemListResponse{
		Items:   ToItemResponseList(items),
		Count:   len(items),
		OrderID: orderID,
	})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	id, err := core.ParseID(chi.URLParam(r, "itemID"))
	if err != nil {
		core.NotFound(w, "order item")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	item, err := h.service.UpdateItem(r.Context(), identity, id, req)
	if err != nil {
		core.WriteError(w, err, "order item")
		return
	}

	core.Message(w, http.StatusOK, "order item updated", ToItemResponse(item))
}
