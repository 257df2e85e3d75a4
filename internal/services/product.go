package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/mq"
	"github.com/teslo-shop/apiserver/internal/store"
	"github.com/teslo-shop/apiserver/types"
)

// Page size bounds for product listings.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (types.Product, error)
	GetBySlugOrTitle(ctx context.Context, term string) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
	InTx(ctx context.Context, fn func(ctx context.Context, w store.ProductWriter) error) error
}

// EventPublisher announces committed product writes. *mq.MQ satisfies it.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event mq.ProductEvent) (string, error)
}

// ProductService encapsulates product use-cases.
type ProductService struct {
	repo   ProductRepository
	events EventPublisher
	log    *slog.Logger
}

// NewProductService builds the service. events may be nil to disable publishing.
func NewProductService(repo ProductRepository, events EventPublisher, log *slog.Logger) *ProductService {
	return &ProductService{repo: repo, events: events, log: log}
}

type CreateProductInput struct {
	Title       string
	Price       *float64
	Description *string
	Slug        *string
	Stock       *int
	Sizes       []string
	Gender      string
	Tags        []string
	Images      []string
}

// UpdateProductInput carries a partial update. Nil fields are left unchanged;
// a non-nil Images slice, even an empty one, replaces every image.
type UpdateProductInput struct {
	Title       *string
	Price       *float64
	Description *string
	Slug        *string
	Stock       *int
	Sizes       []string
	Gender      *string
	Tags        []string
	Images      []string
}

// NormalizeSlug lower-cases s, turns spaces into underscores, and drops apostrophes.
func NormalizeSlug(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "'", "")
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput, owner types.User) (types.ProductView, error) {
	product := types.Product{
		Title:       in.Title,
		Description: in.Description,
		Sizes:       in.Sizes,
		Gender:      in.Gender,
		Tags:        in.Tags,
		UserID:      owner.ID,
		Images:      imageRows(in.Images),
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if product.Sizes == nil {
		product.Sizes = []string{}
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	product.Slug = product.Title
	if in.Slug != nil && *in.Slug != "" {
		product.Slug = *in.Slug
	}
	product.Slug = NormalizeSlug(product.Slug)

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return types.ProductView{}, s.dbError("services.ProductService.Create", err)
	}

	s.publish(ctx, mq.ProductCreated, created.ID)
	return types.NewProductView(created), nil
}

// Update replaces scalar fields and, when in.Images is set, every image of the
// product within a single transaction. Nothing changes if any step fails.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, in UpdateProductInput, owner types.User) (types.ProductView, error) {
	const op = "services.ProductService.Update"

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ProductView{}, newError(KindNotFound, fmt.Sprintf("Product with id: %s not found", id), err)
		}
		return types.ProductView{}, s.dbError(op, err)
	}

	mergeProduct(&product, in)
	product.UserID = owner.ID

	err = s.repo.InTx(ctx, func(ctx context.Context, w store.ProductWriter) error {
		if in.Images != nil {
			if err := w.DeleteImages(ctx, product.ID); err != nil {
				return err
			}
			product.Images = imageRows(in.Images)
		}
		_, err := w.Save(ctx, product)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ProductView{}, newError(KindNotFound, fmt.Sprintf("Product with id: %s not found", id), err)
		}
		return types.ProductView{}, s.dbError(op, err)
	}

	s.publish(ctx, mq.ProductUpdated, product.ID)
	return s.FindOnePlain(ctx, id.String())
}

// FindOne looks term up as an id when it parses as a UUID, otherwise as a title or slug.
func (s *ProductService) FindOne(ctx context.Context, term string) (types.Product, error) {
	var (
		product types.Product
		err     error
	)
	if id, parseErr := uuid.Parse(term); parseErr == nil {
		product, err = s.repo.GetByID(ctx, id)
	} else {
		product, err = s.repo.GetBySlugOrTitle(ctx, term)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Product{}, newError(KindNotFound, fmt.Sprintf("Product with %s not found", term), err)
		}
		return types.Product{}, s.dbError("services.ProductService.FindOne", err)
	}
	return product, nil
}

func (s *ProductService) FindOnePlain(ctx context.Context, term string) (types.ProductView, error) {
	product, err := s.FindOne(ctx, term)
	if err != nil {
		return types.ProductView{}, err
	}
	return types.NewProductView(product), nil
}

func (s *ProductService) FindAll(ctx context.Context, page types.ProductFilter) ([]types.ProductView, error) {
	if page.Limit <= 0 {
		page.Limit = DefaultPageLimit
	}
	if page.Limit > MaxPageLimit {
		page.Limit = MaxPageLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	products, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, s.dbError("services.ProductService.FindAll", err)
	}

	views := make([]types.ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, types.NewProductView(product))
	}
	return views, nil
}

func (s *ProductService) Remove(ctx context.Context, term string) error {
	product, err := s.FindOne(ctx, term)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, fmt.Sprintf("Product with %s not found", term), err)
		}
		return s.dbError("services.ProductService.Remove", err)
	}

	s.publish(ctx, mq.ProductDeleted, product.ID)
	return nil
}

func (s *ProductService) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		s.log.Error("delete all products", slog.String("op", "services.ProductService.DeleteAll"), logging.Err(err))
		return internalError(err)
	}
	return nil
}

func (s *ProductService) dbError(op string, err error) error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return newError(KindDuplicateEntity, conflict.Detail, err)
	}
	s.log.Error("product storage failure", slog.String("op", op), logging.Err(err))
	return internalError(err)
}

func (s *ProductService) publish(ctx context.Context, eventType string, id uuid.UUID) {
	if s.events == nil {
		return
	}
	event := mq.ProductEvent{Type: eventType, ProductID: id.String(), OccurredAt: time.Now().UTC()}
	if _, err := s.events.PublishProductEvent(ctx, event); err != nil {
		s.log.Warn("publish product event",
			slog.String("type", eventType),
			slog.String("product_id", event.ProductID),
			logging.Err(err),
		)
	}
}

func mergeProduct(product *types.Product, in UpdateProductInput) {
	if in.Title != nil {
		product.Title = *in.Title
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = in.Description
	}
	if in.Slug != nil && *in.Slug != "" {
		product.Slug = *in.Slug
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.Sizes != nil {
		product.Sizes = in.Sizes
	}
	if in.Gender != nil {
		product.Gender = *in.Gender
	}
	if in.Tags != nil {
		product.Tags = in.Tags
	}
	product.Slug = NormalizeSlug(product.Slug)
}

func imageRows(urls []string) []types.ProductImage {
	images := make([]types.ProductImage, 0, len(urls))
	for _, url := range urls {
		images = append(images, types.ProductImage{URL: url})
	}
	return images
}
