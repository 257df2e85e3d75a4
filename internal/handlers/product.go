package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/services"
	"github.com/teslo-shop/apiserver/types"
)

// ProductService is what the product endpoints need from the service layer.
type ProductService interface {
	Create(ctx context.Context, in services.CreateProductInput, owner types.User) (types.ProductView, error)
	Update(ctx context.Context, id uuid.UUID, in services.UpdateProductInput, owner types.User) (types.ProductView, error)
	FindOnePlain(ctx context.Context, term string) (types.ProductView, error)
	FindAll(ctx context.Context, page types.ProductFilter) ([]types.ProductView, error)
	Remove(ctx context.Context, term string) error
}

// ProductHandler provides HTTP handlers for products.
type ProductHandler struct {
	products ProductService
	log      *slog.Logger
}

func NewProductHandler(products ProductService, log *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, log: log}
}

// ProductRouter registers product routes on the given router.
func ProductRouter(r chi.Router, products ProductService, guard *Guard, log *slog.Logger) {
	handler := NewProductHandler(products, log)

	r.Get("/", handler.ListProducts)
	r.With(guard.Auth()).Post("/", handler.CreateProduct)
	r.Get("/{term}", handler.GetProduct)
	r.With(guard.Auth(types.RoleAdmin)).Patch("/{id}", handler.UpdateProduct)
	r.With(guard.Auth(types.RoleAdmin)).Delete("/{id}", handler.DeleteProduct)
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,min=1"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
	Description *string  `json:"description"`
	Slug        *string  `json:"slug"`
	Stock       *int     `json:"stock" validate:"omitempty,min=0"`
	Sizes       []string `json:"sizes" validate:"required"`
	Gender      string   `json:"gender" validate:"required,oneof=men women kid unisex"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

type UpdateProductRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
	Description *string  `json:"description"`
	Slug        *string  `json:"slug"`
	Stock       *int     `json:"stock" validate:"omitempty,min=0"`
	Sizes       []string `json:"sizes"`
	Gender      *string  `json:"gender" validate:"omitempty,oneof=men women kid unisex"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.products.FindAll(r.Context(), page)
	if err != nil {
		h.logFailure(r, "handlers.products.list", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.FindOnePlain(r.Context(), chi.URLParam(r, "term"))
	if err != nil {
		h.logFailure(r, "handlers.products.get", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Create(r.Context(), services.CreateProductInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Slug:        req.Slug,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		Images:      req.Images,
	}, *principalFromContext(r.Context()))
	if err != nil {
		h.logFailure(r, "handlers.products.create", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseProductID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidUUID)
		return
	}

	var req UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Update(r.Context(), id, services.UpdateProductInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Slug:        req.Slug,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		Images:      req.Images,
	}, *principalFromContext(r.Context()))
	if err != nil {
		h.logFailure(r, "handlers.products.update", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseProductID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidUUID)
		return
	}

	if err := h.products.Remove(r.Context(), id.String()); err != nil {
		h.logFailure(r, "handlers.products.delete", err)
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ProductHandler) logFailure(r *http.Request, op string, err error) {
	if services.KindOf(err) != services.KindInternal {
		return
	}
	h.log.Error("request failed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		logging.Err(err),
	)
}

func parsePagination(r *http.Request) (types.ProductFilter, error) {
	page := types.ProductFilter{Limit: services.DefaultPageLimit}
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return types.ProductFilter{}, errors.New("limit must be a positive number")
		}
		if limit > services.MaxPageLimit {
			return types.ProductFilter{}, fmt.Errorf("limit must not be greater than %d", services.MaxPageLimit)
		}
		page.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return types.ProductFilter{}, errors.New("offset must not be less than 0")
		}
		page.Offset = offset
	}
	if raw := strings.TrimSpace(query.Get("gender")); raw != "" {
		if !slices.Contains(types.Genders, raw) {
			return types.ProductFilter{}, errors.New("gender must be one of the following values: " + strings.Join(types.Genders, ", "))
		}
		page.Gender = raw
	}
	return page, nil
}

const msgInvalidUUID = "Validation failed (uuid is expected)"

func parseProductID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}
