// Package memory holds an in-process implementation of the store interfaces.
// It backs the unit tests the same way the collaborator database would,
// including the conditional-update semantics of stock reservation.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sda-shop/shop-backend/internal/apperr"
	"github.com/sda-shop/shop-backend/internal/models"
	"github.com/sda-shop/shop-backend/internal/store"
	"github.com/sda-shop/shop-backend/internal/util"
)

type Store struct {
	mu         sync.Mutex
	products   map[primitive.ObjectID]models.Product
	categories map[primitive.ObjectID]models.Category
	orders     map[primitive.ObjectID]models.Order
	users      map[primitive.ObjectID]models.User

	Products   store.ProductStore
	Categories store.CategoryStore
	Orders     store.OrderStore
	Users      store.UserStore
}

func New() *Store {
	s := &Store{
		products:   map[primitive.ObjectID]models.Product{},
		categories: map[primitive.ObjectID]models.Category{},
		orders:     map[primitive.ObjectID]models.Order{},
		users:      map[primitive.ObjectID]models.User{},
	}
	s.Products = (*productStore)(s)
	s.Categories = (*categoryStore)(s)
	s.Orders = (*orderStore)(s)
	s.Users = (*userStore)(s)
	return s
}

// --- products ---

type productStore Store

func (s *productStore) Insert(_ context.Context, p *models.Product) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.Name == p.Name {
			return primitive.NilObjectID, apperr.Conflict("product already exists with name %q", p.Name)
		}
	}
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = *p
	return p.ID, nil
}

func (s *productStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("product is not found with this id: %s", id.Hex())
	}
	return &p, nil
}

func (s *productStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *productStore) List(_ context.Context, q store.ProductQuery) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Product
	for _, p := range s.products {
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
			continue
		}
		if q.MinPrice > 0 && p.Price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && p.Price > q.MaxPrice {
			continue
		}
		if len(q.Categories) > 0 && !hasAnyCategory(p, q.Categories) {
			continue
		}
		out = append(out, p)
	}
	count := int64(len(out))

	switch q.Sort {
	case "price":
		sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "-price":
		sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}

	if q.Limit > 0 {
		skip, _, _ := util.Paginate(q.Page, q.Limit, count)
		out = window(out, skip, int64(q.Limit))
	}
	return out, count, nil
}

func hasAnyCategory(p models.Product, wanted []primitive.ObjectID) bool {
	for _, w := range wanted {
		for _, c := range p.Categories {
			if c == w {
				return true
			}
		}
	}
	return false
}

func (s *productStore) Replace(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return apperr.NotFound("product is not found with this id: %s", p.ID.Hex())
	}
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = *p
	return nil
}

func (s *productStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return apperr.NotFound("product is not found with this id: %s", id.Hex())
	}
	delete(s.products, id)
	return nil
}

func (s *productStore) ExistsByName(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *productStore) AnyWithCategory(_ context.Context, categoryID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		for _, c := range p.Categories {
			if c == categoryID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *productStore) Reserve(_ context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("product is not found with this id: %s", id.Hex())
	}
	if p.Quantity < qty {
		return nil, apperr.InsufficientStock("quantity of product %s has exceeded the available stock", id.Hex())
	}
	p.Quantity -= qty
	p.Sold += qty
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return &p, nil
}

func (s *productStore) Release(_ context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("product is not found with this id: %s", id.Hex())
	}
	p.Quantity += qty
	p.Sold -= qty
	if p.Sold < 0 {
		p.Sold = 0
	}
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return &p, nil
}

// --- categories ---

type categoryStore Store

func (s *categoryStore) Insert(_ context.Context, c *models.Category) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return primitive.NilObjectID, apperr.Conflict("category already exists with this name: %s", c.Name)
		}
	}
	c.ID = primitive.NewObjectID()
	s.categories[c.ID] = *c
	return c.ID, nil
}

func (s *categoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, apperr.NotFound("category is not found with this id: %s", id.Hex())
	}
	return &c, nil
}

func (s *categoryStore) List(_ context.Context, page, limit int) ([]models.Category, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	skip, totalPages, _ := util.Paginate(page, limit, int64(len(out)))
	if limit > 0 {
		out = window(out, skip, int64(limit))
	}
	return out, totalPages, nil
}

func (s *categoryStore) Rename(_ context.Context, id primitive.ObjectID, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, apperr.NotFound("category is not found with this id: %s", id.Hex())
	}
	for otherID, other := range s.categories {
		if otherID != id && other.Name == name {
			return nil, apperr.Conflict("category already exists with this name: %s", name)
		}
	}
	c.Name = name
	s.categories[id] = c
	return &c, nil
}

func (s *categoryStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return apperr.NotFound("category is not found with this id: %s", id.Hex())
	}
	delete(s.categories, id)
	return nil
}

func (s *categoryStore) ExistsByName(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// --- orders ---

type orderStore Store

func (s *orderStore) Insert(_ context.Context, o *models.Order) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	s.orders[o.ID] = *o
	return o.ID, nil
}

func (s *orderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("no order found with id %s", id.Hex())
	}
	return &o, nil
}

func (s *orderStore) ListAll(_ context.Context, skip, limit int64) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	count := int64(len(out))
	if limit > 0 {
		out = window(out, skip, limit)
	}
	return out, count, nil
}

func (s *orderStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.User == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *orderStore) Remove(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("no order found with id %s", id.Hex())
	}
	delete(s.orders, id)
	return &o, nil
}

func (s *orderStore) SetStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("no order found with id %s", id.Hex())
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o
	return &o, nil
}

func (s *orderStore) AnyForUser(_ context.Context, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.User == userID {
			return true, nil
		}
	}
	return false, nil
}

// --- users ---

type userStore Store

func (s *userStore) Insert(_ context.Context, u *models.User) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return primitive.NilObjectID, apperr.Conflict("this email is already exists")
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = *u
	return u.ID, nil
}

func (s *userStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user was not found")
	}
	u.Password = ""
	return &u, nil
}

func (s *userStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			u.Password = ""
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user was not found")
}

func (s *userStore) List(_ context.Context, q store.UserQuery) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if q.IsAdmin != nil && u.IsAdmin != *q.IsAdmin {
			continue
		}
		if q.IsBanned != nil && u.IsBanned != *q.IsBanned {
			continue
		}
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(u.FirstName), needle) &&
				!strings.Contains(strings.ToLower(u.LastName), needle) &&
				!strings.Contains(strings.ToLower(u.Email), needle) {
				continue
			}
		}
		u.Password = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.SortDesc {
			i, j = j, i
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	count := int64(len(out))
	if q.Limit > 0 {
		skip, _, _ := util.Paginate(q.Page, q.Limit, count)
		out = window(out, skip, int64(q.Limit))
	}
	return out, count, nil
}

func (s *userStore) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return apperr.NotFound("user was not found")
	}
	for otherID, other := range s.users {
		if otherID != u.ID && other.Email == u.Email {
			return apperr.Conflict("this email is already exists")
		}
	}
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.Email = u.Email
	if u.Password != "" {
		existing.Password = u.Password
	}
	s.users[u.ID] = existing
	return nil
}

func (s *userStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperr.NotFound("user with %s was not found", id.Hex())
	}
	delete(s.users, id)
	return nil
}

func (s *userStore) EmailExists(_ context.Context, email string, excludeID *primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *userStore) IncBalance(_ context.Context, id primitive.ObjectID, amount float64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user was not found")
	}
	u.Balance += amount
	s.users[id] = u
	u.Password = ""
	return &u, nil
}

func (s *userStore) SetAdmin(_ context.Context, id primitive.ObjectID, isAdmin bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user was not found")
	}
	u.IsAdmin = isAdmin
	s.users[id] = u
	u.Password = ""
	return &u, nil
}

func (s *userStore) SetBanned(_ context.Context, id primitive.ObjectID, banned bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user was not found")
	}
	u.IsBanned = banned
	s.users[id] = u
	u.Password = ""
	return &u, nil
}

func window[T any](in []T, skip, limit int64) []T {
	if skip >= int64(len(in)) {
		return nil
	}
	end := skip + limit
	if end > int64(len(in)) {
		end = int64(len(in))
	}
	return in[skip:end]
}
