package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nicole-nieto/tienda-online/internal/domain"
	"github.com/nicole-nieto/tienda-online/internal/middleware"
	"github.com/nicole-nieto/tienda-online/internal/repository"
	"github.com/nicole-nieto/tienda-online/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCategoryRequest represents the category creation payload
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=300"`
}

// UpdateCategoryRequest represents the partial category update payload.
// Absent fields are left unchanged.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=80"`
	Description *string `json:"description" validate:"omitempty,max=300"`
	Active      *bool   `json:"active"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// DeactivateCategoryResponse reports the result of a cascade deactivation
type DeactivateCategoryResponse struct {
	Message             string `json:"message"`
	ProductsDeactivated int    `json:"products_deactivated"`
}

// PurgeCategoryResponse reports the result of a cascade hard delete
type PurgeCategoryResponse struct {
	DeletedCategory string `json:"deleted_category"`
	DeletedProducts int    `json:"deleted_products"`
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   c.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CategoryHandler handles HTTP requests for category operations
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes. The purge route is wrapped
// with the given admin middleware chain.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, adminMiddleware ...func(http.Handler) http.Handler) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Deactivate)

		r.Group(func(r chi.Router) {
			for _, m := range adminMiddleware {
				r.Use(m)
			}
			r.Delete("/{id}/purge", h.Purge)
		})
	})
}

// Create handles category creation
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Category creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.categoryService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		h.respondCategoryError(w, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// List handles category listing; inactive categories are included only when
// the include_inactive query parameter is true
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))

	categories, err := h.categoryService.List(r.Context(), includeInactive)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		response = append(response, toCategoryResponse(c))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// Get handles retrieving a single category
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	category, err := h.categoryService.GetByID(r.Context(), id)
	if err != nil {
		h.respondCategoryError(w, err, "failed to get category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCategoryResponse(category))
}

// Update handles partial category updates
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req UpdateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Category update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := domain.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	}

	category, err := h.categoryService.Update(r.Context(), id, update)
	if err != nil {
		h.respondCategoryError(w, err, "failed to update category")
		return
	}

	h.logger.Info("Category updated", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toCategoryResponse(category))
}

// Deactivate handles soft-deleting a category and cascading to its products
func (h *CategoryHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	productsDeactivated, err := h.categoryService.Deactivate(r.Context(), id)
	if err != nil {
		h.respondCategoryError(w, err, "failed to deactivate category")
		return
	}

	h.logger.Info("Category deactivated",
		zap.String("category_id", id.String()),
		zap.Int("products_deactivated", productsDeactivated),
	)
	middleware.RespondWithJSON(w, http.StatusOK, DeactivateCategoryResponse{
		Message:             "category and its products deactivated",
		ProductsDeactivated: productsDeactivated,
	})
}

// Purge handles hard-deleting a category together with its products.
// Admin only.
func (h *CategoryHandler) Purge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	productsDeleted, err := h.categoryService.DeleteCascade(r.Context(), id)
	if err != nil {
		h.respondCategoryError(w, err, "failed to delete category")
		return
	}

	h.logger.Info("Category deleted",
		zap.String("category_id", id.String()),
		zap.Int("products_deleted", productsDeleted),
	)
	middleware.RespondWithJSON(w, http.StatusOK, PurgeCategoryResponse{
		DeletedCategory: id.String(),
		DeletedProducts: productsDeleted,
	})
}

func (h *CategoryHandler) respondCategoryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrCategoryAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
	case errors.Is(err, service.ErrInvalidName):
		middleware.RespondWithError(w, http.StatusBadRequest, "name must not be empty")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
