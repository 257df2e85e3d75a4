package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/teslo-shop/apiserver/internal/mq"
	"github.com/teslo-shop/apiserver/internal/storage"
	"github.com/teslo-shop/apiserver/internal/store"
	"github.com/teslo-shop/apiserver/types"
)

type memUsers struct {
	rows      map[uuid.UUID]types.User
	createErr error
	getErr    error
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[uuid.UUID]types.User{}}
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	if m.getErr != nil {
		return types.User{}, m.getErr
	}
	user, ok := m.rows[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (types.User, error) {
	if m.getErr != nil {
		return types.User{}, m.getErr
	}
	for _, user := range m.rows {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(ctx context.Context, user types.User) (types.User, error) {
	if m.createErr != nil {
		return types.User{}, m.createErr
	}
	for _, other := range m.rows {
		if strings.EqualFold(other.Email, user.Email) {
			return types.User{}, &store.ConflictError{
				Detail: fmt.Sprintf("Key (lower(email))=(%s) already exists.", strings.ToLower(user.Email)),
			}
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.rows[user.ID] = user
	return user, nil
}

func (m *memUsers) DeleteAll(ctx context.Context) error {
	m.rows = map[uuid.UUID]types.User{}
	return nil
}

// memProducts mimics the repository, including transactional rollback in InTx.
type memProducts struct {
	rows         map[uuid.UUID]types.Product
	nextImageID  int64
	saveErr      error
	listErr      error
	deleteAllErr error
	filters      []types.ProductFilter
}

func newMemProducts() *memProducts {
	return &memProducts{rows: map[uuid.UUID]types.Product{}}
}

func cloneProduct(p types.Product) types.Product {
	p.Images = slices.Clone(p.Images)
	p.Sizes = slices.Clone(p.Sizes)
	p.Tags = slices.Clone(p.Tags)
	return p
}

func (m *memProducts) conflict(p types.Product) error {
	for id, other := range m.rows {
		if id == p.ID {
			continue
		}
		if other.Title == p.Title {
			return &store.ConflictError{Detail: fmt.Sprintf("Key (title)=(%s) already exists.", p.Title)}
		}
		if other.Slug == p.Slug {
			return &store.ConflictError{Detail: fmt.Sprintf("Key (slug)=(%s) already exists.", p.Slug)}
		}
	}
	return nil
}

func (m *memProducts) assignImageIDs(id uuid.UUID, images []types.ProductImage) []types.ProductImage {
	out := make([]types.ProductImage, 0, len(images))
	for _, img := range images {
		if img.ID == 0 {
			m.nextImageID++
			img.ID = m.nextImageID
		}
		img.ProductID = id
		out = append(out, img)
	}
	return out
}

func (m *memProducts) List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	m.filters = append(m.filters, filter)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []types.Product
	for _, p := range m.rows {
		if filter.Gender == "" || p.Gender == filter.Gender {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if filter.Offset >= len(out) {
		return []types.Product{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memProducts) GetByID(ctx context.Context, id uuid.UUID) (types.Product, error) {
	p, ok := m.rows[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *memProducts) GetBySlugOrTitle(ctx context.Context, term string) (types.Product, error) {
	for _, p := range m.rows {
		if strings.EqualFold(p.Title, term) || p.Slug == strings.ToLower(term) {
			return cloneProduct(p), nil
		}
	}
	return types.Product{}, store.ErrNotFound
}

func (m *memProducts) Create(ctx context.Context, product types.Product) (types.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := m.conflict(product); err != nil {
		return types.Product{}, err
	}
	product.Images = m.assignImageIDs(product.ID, product.Images)
	m.rows[product.ID] = cloneProduct(product)
	return product, nil
}

func (m *memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memProducts) DeleteAll(ctx context.Context) error {
	if m.deleteAllErr != nil {
		return m.deleteAllErr
	}
	m.rows = map[uuid.UUID]types.Product{}
	return nil
}

func (m *memProducts) InTx(ctx context.Context, fn func(ctx context.Context, w store.ProductWriter) error) error {
	snapshot := make(map[uuid.UUID]types.Product, len(m.rows))
	for id, p := range m.rows {
		snapshot[id] = cloneProduct(p)
	}
	nextImageID := m.nextImageID

	if err := fn(ctx, memWriter{m}); err != nil {
		m.rows = snapshot
		m.nextImageID = nextImageID
		return err
	}
	return nil
}

type memWriter struct {
	m *memProducts
}

func (w memWriter) DeleteImages(ctx context.Context, productID uuid.UUID) error {
	p, ok := w.m.rows[productID]
	if !ok {
		return nil
	}
	p.Images = nil
	w.m.rows[productID] = p
	return nil
}

func (w memWriter) Save(ctx context.Context, product types.Product) (types.Product, error) {
	if w.m.saveErr != nil {
		return types.Product{}, w.m.saveErr
	}
	if _, ok := w.m.rows[product.ID]; !ok {
		return types.Product{}, store.ErrNotFound
	}
	if err := w.m.conflict(product); err != nil {
		return types.Product{}, err
	}
	product.Images = w.m.assignImageIDs(product.ID, product.Images)
	w.m.rows[product.ID] = cloneProduct(product)
	return product, nil
}

type recordingPublisher struct {
	events []mq.ProductEvent
	err    error
}

func (p *recordingPublisher) PublishProductEvent(ctx context.Context, event mq.ProductEvent) (string, error) {
	p.events = append(p.events, event)
	if p.err != nil {
		return "", p.err
	}
	return "id", nil
}

func (p *recordingPublisher) kinds() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Verify(plain, hash string) bool { return hash == "hashed:"+plain }

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func (m *mockTokens) Validate(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type memObjects struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memObjects) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func (m *memObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

var errBoom = errors.New("boom")
