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

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string    `json:"name" validate:"required,max=120"`
	Description string    `json:"description" validate:"max=500"`
	Price       float64   `json:"price" validate:"required,gt=0"`
	Stock       int       `json:"stock" validate:"gte=0"`
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
}

// UpdateProductRequest represents the partial product update payload.
// Absent fields are left unchanged; stock and price bounds are enforced by
// the service so a violation never touches the stored row.
type UpdateProductRequest struct {
	Name        *string    `json:"name" validate:"omitempty,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	Price       *float64   `json:"price"`
	Stock       *int       `json:"stock"`
	Active      *bool      `json:"active"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

// BuyProductRequest represents the purchase payload
type BuyProductRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Active      bool    `json:"active"`
	CategoryID  string  `json:"category_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ListProductsResponse is a page of products plus the total match count
type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// BuyProductResponse reports the stock remaining after a purchase
type BuyProductResponse struct {
	Message        string `json:"message"`
	RemainingStock int    `json:"remaining_stock"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Active:      p.Active,
		CategoryID:  p.CategoryID.String(),
		CreatedAt:   p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Deactivate)
		r.Post("/{id}/buy", h.Buy)
		r.Get("/category/{id}", h.ListByCategory)
	})
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), req.Name, req.Description, req.Price, req.Stock, req.CategoryID)
	if err != nil {
		h.respondProductError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// List handles product listing with optional filters, pagination and sorting
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ProductFilter{
		Name: q.Get("name"),
	}

	if raw := q.Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category_id filter")
			return
		}
		filter.CategoryID = &categoryID
	}
	if raw := q.Get("min_stock"); raw != "" {
		minStock, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid min_stock filter")
			return
		}
		filter.MinStock = &minStock
	}
	if raw := q.Get("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid max_price filter")
			return
		}
		filter.MaxPrice = &maxPrice
	}
	filter.IncludeInactive, _ = strconv.ParseBool(q.Get("include_inactive"))

	page, pageSize := parsePagination(q.Get("page"), q.Get("page_size"))
	sortBy := q.Get("sort_by")
	sortOrder := repository.SortOrder(q.Get("sort_order"))

	products, total, err := h.productService.List(r.Context(), filter, page, pageSize, sortBy, sortOrder)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, buildListResponse(products, total, page, pageSize))
}

// ListByCategory handles listing the products of one category
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	q := r.URL.Query()
	page, pageSize := parsePagination(q.Get("page"), q.Get("page_size"))

	products, total, err := h.productService.ListByCategory(r.Context(), categoryID, page, pageSize)
	if err != nil {
		h.respondProductError(w, err, "failed to list products by category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, buildListResponse(products, total, page, pageSize))
}

// Get handles retrieving a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// Update handles partial product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := domain.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      req.Active,
		CategoryID:  req.CategoryID,
	}

	product, err := h.productService.Update(r.Context(), id, update)
	if err != nil {
		h.respondProductError(w, err, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// Deactivate handles soft-deleting a product
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.Deactivate(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "failed to deactivate product")
		return
	}

	h.logger.Info("Product deactivated", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// Buy handles a purchase, reducing stock by the requested quantity
func (h *ProductHandler) Buy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req BuyProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Buy validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	remaining, err := h.productService.Buy(r.Context(), id, req.Quantity)
	if err != nil {
		h.respondProductError(w, err, "failed to buy product")
		return
	}

	h.logger.Info("Product purchased",
		zap.String("product_id", id.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("remaining_stock", remaining),
	)
	middleware.RespondWithJSON(w, http.StatusOK, BuyProductResponse{
		Message:        "purchase completed",
		RemainingStock: remaining,
	})
}

func (h *ProductHandler) respondProductError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrProductAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "active product with this name already exists in the category")
	case errors.Is(err, repository.ErrInsufficientStock):
		middleware.RespondWithError(w, http.StatusConflict, "insufficient stock")
	case errors.Is(err, repository.ErrProductInactive):
		middleware.RespondWithError(w, http.StatusConflict, "product is inactive")
	case errors.Is(err, service.ErrInvalidStock):
		middleware.RespondWithError(w, http.StatusBadRequest, "stock cannot be negative")
	case errors.Is(err, service.ErrInvalidPrice):
		middleware.RespondWithError(w, http.StatusBadRequest, "price must be greater than zero")
	case errors.Is(err, service.ErrInvalidQuantity):
		middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be positive")
	case errors.Is(err, service.ErrInvalidName):
		middleware.RespondWithError(w, http.StatusBadRequest, "name must not be empty")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func parsePagination(rawPage, rawPageSize string) (int, int) {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(rawPageSize)
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}

func buildListResponse(products []*domain.Product, total, page, pageSize int) ListProductsResponse {
	items := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResponse(p))
	}

	return ListProductsResponse{
		Products: items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}
