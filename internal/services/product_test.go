package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/mq"
	"github.com/teslo-shop/apiserver/types"
)

func newProductService() (*ProductService, *memProducts, *recordingPublisher) {
	repo := newMemProducts()
	events := &recordingPublisher{}
	return NewProductService(repo, events, logging.Nop()), repo, events
}

var testOwner = types.User{ID: uuid.New(), FullName: "Ana", Roles: []string{types.RoleAdmin}}

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"Men's Chill Crew Neck": "mens_chill_crew_neck",
		"already_ok":            "already_ok",
		"UPPER Case":            "upper_case",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSlug(in), in)
	}
}

func TestProductService_Create(t *testing.T) {
	svc, repo, events := newProductService()

	view, err := svc.Create(context.Background(), CreateProductInput{
		Title:  "Men's Tee Shirt",
		Gender: "men",
		Sizes:  []string{"S", "M"},
		Images: []string{"a.jpg", "b.jpg"},
	}, testOwner)
	require.NoError(t, err)

	assert.Equal(t, "mens_tee_shirt", view.Slug)
	assert.Equal(t, 0.0, view.Price)
	assert.Equal(t, 0, view.Stock)
	assert.Equal(t, []string{}, view.Tags)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, view.Images)
	assert.Equal(t, testOwner.ID, view.UserID)
	assert.Len(t, repo.rows, 1)
	assert.Equal(t, []string{mq.ProductCreated}, events.kinds())
	assert.Equal(t, view.ID.String(), events.events[0].ProductID)
}

func TestProductService_CreateExplicitSlug(t *testing.T) {
	svc, _, _ := newProductService()

	view, err := svc.Create(context.Background(), CreateProductInput{
		Title:  "Tee",
		Slug:   ptr("My Tee's Slug"),
		Price:  ptr(9.5),
		Stock:  ptr(3),
		Gender: "unisex",
	}, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "my_tees_slug", view.Slug)
	assert.Equal(t, 9.5, view.Price)
	assert.Equal(t, 3, view.Stock)
	assert.Equal(t, []string{}, view.Images)
}

func TestProductService_CreateDuplicateTitle(t *testing.T) {
	svc, _, events := newProductService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Title: "Tee", Gender: "men"}, testOwner)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateProductInput{Title: "Tee", Slug: ptr("other"), Gender: "men"}, testOwner)
	requireKind(t, err, KindDuplicateEntity, "Key (title)=(Tee) already exists.")
	assert.Len(t, events.events, 1)
}

func TestProductService_UpdateReplacesImages(t *testing.T) {
	svc, repo, events := newProductService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Title: "Tee", Gender: "men", Images: []string{"old1.jpg", "old2.jpg"}}, testOwner)
	require.NoError(t, err)

	editor := types.User{ID: uuid.New()}
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{
		Price:  ptr(20.0),
		Images: []string{"new.jpg"},
	}, editor)
	require.NoError(t, err)

	assert.Equal(t, 20.0, updated.Price)
	assert.Equal(t, "Tee", updated.Title)
	assert.Equal(t, []string{"new.jpg"}, updated.Images)
	assert.Equal(t, editor.ID, updated.UserID)
	assert.Len(t, repo.rows[created.ID].Images, 1)
	assert.Equal(t, []string{mq.ProductCreated, mq.ProductUpdated}, events.kinds())
}

func TestProductService_UpdateWithoutImagesKeepsThem(t *testing.T) {
	svc, _, _ := newProductService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Title: "Tee", Gender: "men", Images: []string{"a.jpg"}}, testOwner)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{Title: ptr("Tee Two"), Slug: ptr("Tee Two")}, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "Tee Two", updated.Title)
	assert.Equal(t, "tee_two", updated.Slug)
	assert.Equal(t, []string{"a.jpg"}, updated.Images)
}

func TestProductService_UpdateEmptyImagesClearsThem(t *testing.T) {
	svc, _, _ := newProductService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Title: "Tee", Gender: "men", Images: []string{"a.jpg"}}, testOwner)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{Images: []string{}}, testOwner)
	require.NoError(t, err)
	assert.Empty(t, updated.Images)
}

func TestProductService_UpdateFailureRollsBack(t *testing.T) {
	svc, _, events := newProductService()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateProductInput{Title: "First", Gender: "men", Images: []string{"first.jpg"}}, testOwner)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateProductInput{Title: "Second", Gender: "men"}, testOwner)
	require.NoError(t, err)

	_, err = svc.Update(ctx, first.ID, UpdateProductInput{
		Slug:   ptr("second"),
		Images: []string{"replacement.jpg"},
	}, testOwner)
	requireKind(t, err, KindDuplicateEntity, "Key (slug)=(second) already exists.")

	after, err := svc.FindOnePlain(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "first", after.Slug)
	assert.Equal(t, []string{"first.jpg"}, after.Images)
	assert.Equal(t, []string{mq.ProductCreated, mq.ProductCreated}, events.kinds())
}

func TestProductService_UpdateInternalFailure(t *testing.T) {
	svc, repo, _ := newProductService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Title: "Tee", Gender: "men", Images: []string{"a.jpg"}}, testOwner)
	require.NoError(t, err)

	repo.saveErr = errBoom
	_, err = svc.Update(ctx, created.ID, UpdateProductInput{Images: []string{"b.jpg"}}, testOwner)
	requireKind(t, err, KindInternal, MsgUnexpected)

	repo.saveErr = nil
	after, err := svc.FindOnePlain(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, after.Images)
}

func TestProductService_UpdateMissing(t *testing.T) {
	svc, _, _ := newProductService()
	id := uuid.New()

	_, err := svc.Update(context.Background(), id, UpdateProductInput{Title: ptr("x")}, testOwner)
	requireKind(t, err, KindNotFound, fmt.Sprintf("Product with id: %s not found", id))
}

func TestProductService_FindOne(t *testing.T) {
	svc, _, _ := newProductService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Title: "Kids Hoodie", Gender: "kid"}, testOwner)
	require.NoError(t, err)

	for _, term := range []string{created.ID.String(), "kids hoodie", "KIDS HOODIE", "kids_hoodie", "Kids_Hoodie"} {
		product, err := svc.FindOne(ctx, term)
		require.NoError(t, err, term)
		assert.Equal(t, created.ID, product.ID, term)
	}

	_, err = svc.FindOne(ctx, "missing")
	requireKind(t, err, KindNotFound, "Product with missing not found")

	missing := uuid.NewString()
	_, err = svc.FindOnePlain(ctx, missing)
	requireKind(t, err, KindNotFound, "Product with "+missing+" not found")
}

func TestProductService_FindAll(t *testing.T) {
	svc, repo, _ := newProductService()
	ctx := context.Background()

	for i, gender := range []string{"men", "women", "kid", "men"} {
		_, err := svc.Create(ctx, CreateProductInput{Title: fmt.Sprintf("P%d", i), Gender: gender}, testOwner)
		require.NoError(t, err)
	}

	all, err := svc.FindAll(ctx, types.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, types.ProductFilter{Limit: DefaultPageLimit}, repo.filters[0])

	_, err = svc.FindAll(ctx, types.ProductFilter{Limit: 1 << 40})
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, repo.filters[len(repo.filters)-1].Limit)

	men, err := svc.FindAll(ctx, types.ProductFilter{Limit: 10, Gender: "men"})
	require.NoError(t, err)
	assert.Len(t, men, 2)

	page, err := svc.FindAll(ctx, types.ProductFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "P1", page[0].Title)

	repo.listErr = errBoom
	_, err = svc.FindAll(ctx, types.ProductFilter{})
	requireKind(t, err, KindInternal, MsgUnexpected)
}

func TestProductService_Remove(t *testing.T) {
	svc, _, events := newProductService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Title: "Tee", Gender: "men"}, testOwner)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, created.ID.String()))
	_, err = svc.FindOne(ctx, created.ID.String())
	requireKind(t, err, KindNotFound, "")
	assert.Equal(t, []string{mq.ProductCreated, mq.ProductDeleted}, events.kinds())

	err = svc.Remove(ctx, created.ID.String())
	requireKind(t, err, KindNotFound, "Product with "+created.ID.String()+" not found")
}

func TestProductService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, repo, events := newProductService()
	events.err = errBoom

	_, err := svc.Create(context.Background(), CreateProductInput{Title: "Tee", Gender: "men"}, testOwner)
	require.NoError(t, err)
	assert.Len(t, repo.rows, 1)
}

func TestProductService_WithoutPublisher(t *testing.T) {
	svc := NewProductService(newMemProducts(), nil, logging.Nop())

	_, err := svc.Create(context.Background(), CreateProductInput{Title: "Tee", Gender: "men"}, testOwner)
	require.NoError(t, err)
}

func TestProductService_DeleteAll(t *testing.T) {
	svc, repo, _ := newProductService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Title: "Tee", Gender: "men"}, testOwner)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAll(ctx))
	assert.Empty(t, repo.rows)

	repo.deleteAllErr = errBoom
	requireKind(t, svc.DeleteAll(ctx), KindInternal, MsgUnexpected)
}
