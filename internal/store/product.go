package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/teslo-shop/apiserver/internal/db"
	"github.com/teslo-shop/apiserver/types"
)

var productColumns = []string{
	"id", "title", "price", "description", "slug", "stock",
	"sizes", "gender", "tags", "user_id", "created_at", "updated_at",
}

// ProductWriter is the set of writes available inside a product transaction.
type ProductWriter interface {
	// DeleteImages removes every image row of the product.
	DeleteImages(ctx context.Context, productID uuid.UUID) error
	// Save updates the product row and inserts images whose ID is zero.
	Save(ctx context.Context, product types.Product) (types.Product, error)
}

// ProductRepository handles persistence for products and their images.
type ProductRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

func NewProductRepository(conn *sql.DB) *ProductRepository {
	return &ProductRepository{
		db:      conn,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProductRepository) List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	builder := r.builder.
		Select(productColumns...).
		From("products").
		OrderBy("created_at", "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))
	if filter.Gender != "" {
		builder = builder.Where(sq.Eq{"gender": filter.Gender})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (types.Product, error) {
	return r.getOne(ctx, sq.Eq{"id": id.String()})
}

// GetBySlugOrTitle matches the title case-insensitively or the slug in lower case.
func (r *ProductRepository) GetBySlugOrTitle(ctx context.Context, term string) (types.Product, error) {
	return r.getOne(ctx, sq.Or{
		sq.Expr("UPPER(title) = UPPER(?)", term),
		sq.Eq{"slug": strings.ToLower(term)},
	})
}

func (r *ProductRepository) getOne(ctx context.Context, where sq.Sqlizer) (types.Product, error) {
	query, args, err := r.builder.
		Select(productColumns...).
		From("products").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return types.Product{}, err
	}

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}

	products := []types.Product{product}
	if err := r.attachImages(ctx, products); err != nil {
		return types.Product{}, err
	}
	return products[0], nil
}

// Create inserts the product row and all of its image rows in one transaction.
func (r *ProductRepository) Create(ctx context.Context, product types.Product) (types.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		query, args, err := r.builder.
			Insert("products").
			Columns(productColumns...).
			Values(
				product.ID,
				product.Title,
				product.Price,
				product.Description,
				product.Slug,
				product.Stock,
				pq.Array(product.Sizes),
				product.Gender,
				pq.Array(product.Tags),
				product.UserID,
				product.CreatedAt,
				product.UpdatedAt,
			).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return classify(err)
		}

		w := &productWriter{tx: tx, builder: r.builder}
		product.Images, err = w.insertImages(ctx, product.ID, product.Images)
		return err
	})
	if err != nil {
		return types.Product{}, err
	}
	return product, nil
}

// Delete removes the product. Image rows go with it through ON DELETE CASCADE.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := r.builder.Delete("products").Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products`)
	return err
}

// InTx runs fn with a writer bound to a single transaction.
func (r *ProductRepository) InTx(ctx context.Context, fn func(ctx context.Context, w ProductWriter) error) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &productWriter{tx: tx, builder: r.builder})
	})
}

func (r *ProductRepository) attachImages(ctx context.Context, products []types.Product) error {
	if len(products) == 0 {
		return nil
	}

	// uuid.UUID is an array, which squirrel would expand; pass strings instead.
	ids := make([]string, 0, len(products))
	index := make(map[uuid.UUID]int, len(products))
	for i, product := range products {
		ids = append(ids, product.ID.String())
		index[product.ID] = i
		products[i].Images = []types.ProductImage{}
	}

	query, args, err := r.builder.
		Select("id", "url", "product_id").
		From("product_images").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var img types.ProductImage
		if err := rows.Scan(&img.ID, &img.URL, &img.ProductID); err != nil {
			return err
		}
		if i, ok := index[img.ProductID]; ok {
			products[i].Images = append(products[i].Images, img)
		}
	}
	return rows.Err()
}

type productWriter struct {
	tx      db.DBTX
	builder sq.StatementBuilderType
}

func (w *productWriter) DeleteImages(ctx context.Context, productID uuid.UUID) error {
	query, args, err := w.builder.
		Delete("product_images").
		Where(sq.Eq{"product_id": productID.String()}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = w.tx.ExecContext(ctx, query, args...)
	return err
}

func (w *productWriter) Save(ctx context.Context, product types.Product) (types.Product, error) {
	product.UpdatedAt = time.Now()

	query, args, err := w.builder.
		Update("products").
		Set("title", product.Title).
		Set("price", product.Price).
		Set("description", product.Description).
		Set("slug", product.Slug).
		Set("stock", product.Stock).
		Set("sizes", pq.Array(product.Sizes)).
		Set("gender", product.Gender).
		Set("tags", pq.Array(product.Tags)).
		Set("user_id", product.UserID).
		Set("updated_at", product.UpdatedAt).
		Where(sq.Eq{"id": product.ID.String()}).
		ToSql()
	if err != nil {
		return types.Product{}, err
	}

	result, err := w.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Product{}, classify(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Product{}, err
	}
	if affected == 0 {
		return types.Product{}, ErrNotFound
	}

	product.Images, err = w.insertImages(ctx, product.ID, product.Images)
	if err != nil {
		return types.Product{}, err
	}
	return product, nil
}

// insertImages stores images that have no ID yet and returns the full list with IDs set.
func (w *productWriter) insertImages(ctx context.Context, productID uuid.UUID, images []types.ProductImage) ([]types.ProductImage, error) {
	saved := make([]types.ProductImage, 0, len(images))
	for _, img := range images {
		img.ProductID = productID
		if img.ID == 0 {
			query, args, err := w.builder.
				Insert("product_images").
				Columns("url", "product_id").
				Values(img.URL, productID).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return nil, err
			}
			if err := w.tx.QueryRowContext(ctx, query, args...).Scan(&img.ID); err != nil {
				return nil, err
			}
		}
		saved = append(saved, img)
	}
	return saved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (types.Product, error) {
	var product types.Product
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Price,
		&product.Description,
		&product.Slug,
		&product.Stock,
		pq.Array(&product.Sizes),
		&product.Gender,
		pq.Array(&product.Tags),
		&product.UserID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}
