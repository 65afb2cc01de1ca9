// AngelaMos | 2026
// handler.go

package recipe

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

// RegisterRoutes mounts /recipes and /recipe-ingredients. Reads are
// public, writes need admin.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{recipeID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)

			r.Post("/", h.Create)
			r.Put("/{recipeID}", h.Update)
			r.Delete("/{recipeID}", h.Delete)
		})
	})

	r.Route("/recipe-ingredients", func(r chi.Router) {
		r.Get("/", h.ListIngredients)
		r.Get("/{ingredientID}", h.GetIngredient)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)

			r.Put("/{ingredientID}", h.UpdateIngredient)
			r.Delete("/{ingredientID}", h.DeleteIngredient)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := ListParams{
		Search: q.Get("search"),
		Dir:    q.Get("dir"),
	}

	if raw := q.Get("productId"); raw != "" {
		id, err := core.ParseID(raw)
		if err != nil {
			core.BadRequest(w, "productId must be an integer")
			return
		}
		params.ProductID = &id
	}

	recipes, params, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, RecipeListResponse{
		Items:     ToRecipeSummaryList(recipes),
		Count:     len(recipes),
		Search:    params.Search,
		Sort:      "name",
		Dir:       params.Dir,
		ProductID: params.ProductID,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "recipeID"))
	if err != nil {
		core.NotFound(w, "recipe")
		return
	}

	recipe, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.WriteError(w, err, "recipe")
		return
	}

	core.OK(w, ToRecipeResponse(recipe))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	var req CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	recipe, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		core.WriteError(w, err, "recipe")
		return
	}

	core.Message(w, http.StatusCreated, "recipe created", ToRecipeResponse(recipe))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "recipeID"))
	if err != nil {
		core.NotFound(w, "recipe")
		return
	}

	var req UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	recipe, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		core.WriteError(w, err, "recipe")
		return
	}

	core.Message(w, http.StatusOK, "recipe updated", ToRecipeResponse(recipe))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "recipeID"))
	if err != nil {
		core.NotFound(w, "recipe")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		core.WriteError(w, err, "recipe")
		return
	}

	core.Message(w, http.StatusOK, "recipe deleted", nil)
}

func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	var recipeID *int64
	if raw := r.URL.Query().Get("recipeId"); raw != "" {
		id, err := core.ParseID(raw)
		if err != nil {
			core.BadRequest(w, "recipeId must be an integer")
			return
		}
		recipeID = &id
	}

	items, err := h.service.ListIngredients(r.Context(), recipeID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, IngredientListResponse{
		Items:    ToIngredientResponseList(items),
		Count:    len(items),
		RecipeID: recipeID,
	})
}

func (h *Handler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "ingredientID"))
	if err != nil {
		core.NotFound(w, "recipe ingredient")
		return
	}

	item, err := h.service.GetIngredient(r.Context(), id)
	if err != nil {
		core.WriteError(w, err, "recipe ingredient")
		return
	}

	core.OK(w, ToIngredientResponse(item))
}

func (h *Handler) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "ingredientID"))
	if err != nil {
		core.NotFound(w, "recipe ingredient")
		return
	}

	var req UpdateIngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	item, err := h.service.UpdateIngredient(r.Context(), id, req)
	if err != nil {
		core.WriteError(w, err, "recipe ingredient")
		return
	}

	core.Message(w, http.StatusOK, "recipe ingredient updated", ToIngredientResponse(item))
}

func (h *Handler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "ingredientID"))
	if err != nil {
		core.NotFound(w, "recipe ingredient")
		return
	}

	if err := h.service.DeleteIngredient(r.Context(), id); err != nil {
		core.WriteError(w, err, "recipe ingredient")
		return
	}

	core.Message(w, http.StatusOK, "recipe ingredient deleted", nil)
}
