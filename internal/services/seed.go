package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslo-shop/apiserver/types"
)

// SeedUserStore is what seeding needs from user persistence.
type SeedUserStore interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	DeleteAll(ctx context.Context) error
}

type seedUser struct {
	email    string
	fullName string
	password string
	roles    []string
}

var seedUsers = []seedUser{
	{email: "test1@google.com", fullName: "Test One", password: "Abc123", roles: []string{types.RoleAdmin}},
	{email: "test2@google.com", fullName: "Test Two", password: "Abc123", roles: []string{types.RoleUser, types.RoleSuperUser}},
}

func ptr[T any](v T) *T { return &v }

var seedProducts = []CreateProductInput{
	{
		Title:       "Men's Chill Crew Neck Sweatshirt",
		Description: ptr("Introducing the Tesla Chill Collection. The Men's Chill Crew Neck Sweatshirt has a premium, heavyweight exterior and soft fleece interior for comfort in any season."),
		Price:       ptr(75.0),
		Stock:       ptr(7),
		Sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
		Gender:      "men",
		Tags:        []string{"sweatshirt"},
		Images:      []string{"1740176-00-A_0_2000.jpg", "1740176-00-A_1.jpg"},
	},
	{
		Title:       "Men's Quilted Shirt Jacket",
		Description: ptr("The Men's Quilted Shirt Jacket features a uniquely fit, quilted design for warmth and mobility in cold weather seasons."),
		Price:       ptr(200.0),
		Stock:       ptr(5),
		Sizes:       []string{"XS", "S", "M", "XL", "XXL"},
		Gender:      "men",
		Tags:        []string{"jacket"},
		Images:      []string{"1740507-00-A_0_2000.jpg", "1740507-00-A_1.jpg"},
	},
	{
		Title:       "Women's Cropped Puffer Jacket",
		Description: ptr("The Women's Cropped Puffer Jacket features a uniquely cropped silhouette for the perfect, modern style while on the go during the cozy season ahead."),
		Price:       ptr(225.0),
		Stock:       ptr(85),
		Sizes:       []string{"XS", "S", "M"},
		Gender:      "women",
		Tags:        []string{"hoodie"},
		Images:      []string{"1740535-00-A_0_2000.jpg", "1740535-00-A_1.jpg"},
	},
	{
		Title:       "Kids Cybertruck Graffiti Hoodie",
		Description: ptr("Designed for fit, comfort and style, the Kids Cybertruck Graffiti Hoodie is made from 80% cotton and 20% recycled polyester."),
		Price:       ptr(30.0),
		Stock:       ptr(10),
		Sizes:       []string{"XS", "S", "M"},
		Gender:      "kid",
		Tags:        []string{"shirt"},
		Images:      []string{"1742694-00-A_1_2000.jpg", "1742694-00-A_3.jpg"},
	},
	{
		Title:       "Cybertruck Bulletproof Tee",
		Description: ptr("Inspired by the Cybertruck unveil, the Cybertruck Bulletproof Tee is made from 100% cotton."),
		Price:       ptr(30.0),
		Stock:       ptr(150),
		Sizes:       []string{"S", "M", "L", "XL"},
		Gender:      "unisex",
		Tags:        []string{"shirt"},
		Images:      []string{"7654420-00-A_0_2000.jpg", "7654420-00-A_1.jpg"},
	},
}

// SeedService resets the catalog to a known demo state.
type SeedService struct {
	products *ProductService
	users    SeedUserStore
	hasher   PasswordHasher
	log      *slog.Logger
}

func NewSeedService(products *ProductService, users SeedUserStore, hasher PasswordHasher, log *slog.Logger) *SeedService {
	return &SeedService{products: products, users: users, hasher: hasher, log: log}
}

// Run deletes every product and user, then inserts demo users and demo
// products owned by the first of them.
func (s *SeedService) Run(ctx context.Context) error {
	if err := s.products.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.users.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}

	users := make([]types.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		hash, err := s.hasher.Hash(su.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", su.email, err)
		}
		user, err := s.users.Create(ctx, types.User{
			Email:        NormalizeEmail(su.email),
			PasswordHash: hash,
			FullName:     su.fullName,
			IsActive:     true,
			Roles:        su.roles,
		})
		if err != nil {
			return fmt.Errorf("create user %s: %w", su.email, err)
		}
		users = append(users, user)
	}

	for _, in := range seedProducts {
		if _, err := s.products.Create(ctx, in, users[0]); err != nil {
			return fmt.Errorf("create product %q: %w", in.Title, err)
		}
	}

	s.log.Info("seed executed", slog.Int("users", len(users)), slog.Int("products", len(seedProducts)))
	return nil
}
