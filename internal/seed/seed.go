// Package seed loads YAML fixtures of users and orders into the in-memory store
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/example/ec-orders/internal/auth"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/readmodel"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixture is the top-level YAML document
type Fixture struct {
	Users  []User  `yaml:"users"`
	Orders []Order `yaml:"orders"`
}

type User struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Staff    bool   `yaml:"staff"`
	Inactive bool   `yaml:"inactive"`
}

// Order is owned by the user named in Owner. A zero Total is summed from the items.
type Order struct {
	ID         string    `yaml:"id"`
	Owner      string    `yaml:"owner"`
	Status     string    `yaml:"status"`
	FirstName  string    `yaml:"first_name"`
	LastName   string    `yaml:"last_name"`
	Email      string    `yaml:"email"`
	Phone      string    `yaml:"phone"`
	Address    string    `yaml:"address"`
	City       string    `yaml:"city"`
	PostalCode string    `yaml:"postal_code"`
	Total      int       `yaml:"total"`
	Items      []Item    `yaml:"items"`
	Payment    *Payment  `yaml:"payment"`
	CreatedAt  time.Time `yaml:"created_at"`
}

type Item struct {
	ProductID   string `yaml:"product_id"`
	ProductName string `yaml:"product_name"`
	Quantity    int    `yaml:"quantity"`
	Price       int    `yaml:"price"`
}

type Payment struct {
	Status string `yaml:"status"`
	Amount int    `yaml:"amount"`
	Method string `yaml:"method"`
}

// Target is a store that accepts seeded users and orders
type Target interface {
	store.UserStoreInterface
	PutOrder(o *readmodel.OrderReadModel)
}

// Load parses the fixture at path
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Apply creates the fixture's users, then its orders. now stamps records
// that carry no timestamp.
func Apply(ctx context.Context, target Target, f *Fixture, now time.Time) error {
	owners := make(map[string]*readmodel.UserReadModel, len(f.Users))
	for _, u := range f.Users {
		user, err := newUser(u, now)
		if err != nil {
			return err
		}
		if err := target.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		owners[u.Username] = user
	}

	for i, o := range f.Orders {
		owner, ok := owners[o.Owner]
		if !ok {
			return fmt.Errorf("seed order %d: unknown owner %q", i, o.Owner)
		}
		built, err := newOrder(o, owner, now)
		if err != nil {
			return fmt.Errorf("seed order %d: %w", i, err)
		}
		target.PutOrder(built)
	}
	return nil
}

func newUser(u User, now time.Time) (*readmodel.UserReadModel, error) {
	if u.Username == "" {
		return nil, errors.New("seed user without username")
	}
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return nil, fmt.Errorf("seed user %q: %w", u.Username, err)
	}
	id := u.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &readmodel.UserReadModel{
		ID:           id,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: hash,
		IsStaff:      u.Staff,
		IsActive:     !u.Inactive,
		CreatedAt:    now,
	}, nil
}

func newOrder(o Order, owner *readmodel.UserReadModel, now time.Time) (*readmodel.OrderReadModel, error) {
	status := order.StatusPending
	if o.Status != "" {
		parsed, err := order.ParseStatus(o.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	id := o.ID
	if id == "" {
		id = uuid.New().String()
	}
	created := o.CreatedAt
	if created.IsZero() {
		created = now
	}

	items := make([]readmodel.OrderItemReadModel, len(o.Items))
	itemsTotal := 0
	for i, it := range o.Items {
		items[i] = readmodel.OrderItemReadModel{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		}
		itemsTotal += items[i].Subtotal()
	}
	total := o.Total
	if total == 0 {
		total = itemsTotal
	}

	built := &readmodel.OrderReadModel{
		ID:         id,
		UserID:     owner.ID,
		Username:   owner.Username,
		UserEmail:  owner.Email,
		Status:     string(status),
		FirstName:  o.FirstName,
		LastName:   o.LastName,
		Email:      o.Email,
		Phone:      o.Phone,
		Address:    o.Address,
		City:       o.City,
		PostalCode: o.PostalCode,
		Total:      total,
		Items:      items,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	if built.Email == "" {
		built.Email = owner.Email
	}

	if p := o.Payment; p != nil {
		payment := &readmodel.PaymentReadModel{
			Status:    string(order.PaymentPending),
			Amount:    p.Amount,
			Method:    p.Method,
			CreatedAt: created,
		}
		if p.Status != "" {
			payment.Status = p.Status
		}
		if payment.Amount == 0 {
			payment.Amount = total
		}
		if payment.Status == string(order.PaymentCompleted) {
			stamped := created
			payment.CompletedAt = &stamped
		}
		built.Payment = payment
	}
	return built, nil
}
