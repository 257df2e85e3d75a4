package types

import (
	"time"

	"github.com/google/uuid"
)

// Genders accepted for products and for list filtering.
var Genders = []string{"men", "women", "kid", "unisex"}

// Product is a catalog item owned by a user.
type Product struct {
	// ID is the unique identifier of the product.
	ID uuid.UUID `json:"id" db:"id"`

	// Title is the unique display title.
	Title string `json:"title" db:"title"`

	// Price is the unit price. Never negative.
	Price float64 `json:"price" db:"price"`

	// Description is optional free text.
	Description *string `json:"description" db:"description"`

	// Slug is the URL-safe unique handle derived from the title when not supplied.
	Slug string `json:"slug" db:"slug"`

	// Stock is the number of units available.
	Stock int `json:"stock" db:"stock"`

	// Sizes lists the available sizes (e.g., "S", "M", "XL").
	Sizes []string `json:"sizes" db:"sizes"`

	// Gender is one of Genders.
	Gender string `json:"gender" db:"gender"`

	// Tags are free-form search labels.
	Tags []string `json:"tags" db:"tags"`

	// UserID references the owning user.
	UserID uuid.UUID `json:"userId" db:"user_id"`

	// Images are ordered by insertion. Rows with a zero ID have not been stored yet.
	Images []ProductImage `json:"images"`

	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// ProductImage is an image row owned by a product.
type ProductImage struct {
	ID        int64     `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	ProductID uuid.UUID `json:"-" db:"product_id"`
}

// ProductView is the plain projection of a product with images flattened to URLs.
type ProductView struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Description *string   `json:"description"`
	Slug        string    `json:"slug"`
	Stock       int       `json:"stock"`
	Sizes       []string  `json:"sizes"`
	Gender      string    `json:"gender"`
	Tags        []string  `json:"tags"`
	UserID      uuid.UUID `json:"userId"`
	Images      []string  `json:"images"`
}

// NewProductView flattens product into its plain projection.
func NewProductView(product Product) ProductView {
	images := make([]string, 0, len(product.Images))
	for _, img := range product.Images {
		images = append(images, img.URL)
	}
	return ProductView{
		ID:          product.ID,
		Title:       product.Title,
		Price:       product.Price,
		Description: product.Description,
		Slug:        product.Slug,
		Stock:       product.Stock,
		Sizes:       nonNil(product.Sizes),
		Gender:      product.Gender,
		Tags:        nonNil(product.Tags),
		UserID:      product.UserID,
		Images:      images,
	}
}

// ProductFilter bounds a product listing.
type ProductFilter struct {
	Limit  int
	Offset int
	Gender string
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
