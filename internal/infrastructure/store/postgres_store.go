package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ec-orders/internal/readmodel"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

const selectOrderSQL = `
	SELECT o.order_id, o.user_id, u.username, u.email, o.status, o.first_name, o.last_name, o.email,
		o.phone, o.address, o.city, o.postal_code, o.total_amount, o.created_at, o.updated_at,
		p.status, p.amount, p.method, p.completed_at, p.created_at
	FROM orders o
	JOIN users u ON u.id = o.user_id
	LEFT JOIN payments p ON p.order_id = o.order_id`

// PostgresStore implements OrderStoreInterface and UserStoreInterface using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-based store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*readmodel.OrderReadModel, error) {
	var o readmodel.OrderReadModel
	var (
		payStatus    sql.NullString
		payAmount    sql.NullInt64
		payMethod    sql.NullString
		payCompleted sql.NullTime
		payCreated   sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Username, &o.UserEmail, &o.Status, &o.FirstName, &o.LastName, &o.Email,
		&o.Phone, &o.Address, &o.City, &o.PostalCode, &o.Total, &o.CreatedAt, &o.UpdatedAt,
		&payStatus, &payAmount, &payMethod, &payCompleted, &payCreated,
	)
	if err != nil {
		return nil, err
	}

	if payStatus.Valid {
		o.Payment = &readmodel.PaymentReadModel{
			Status:    payStatus.String,
			Amount:    int(payAmount.Int64),
			Method:    payMethod.String,
			CreatedAt: payCreated.Time,
		}
		if payCompleted.Valid {
			t := payCompleted.Time
			o.Payment.CompletedAt = &t
		}
	}
	return &o, nil
}

// GetOrder retrieves an order with its items and payment
func (s *PostgresStore) GetOrder(ctx context.Context, orderID string) (*readmodel.OrderReadModel, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, selectOrderSQL+` WHERE o.order_id = $1`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := s.loadItems(ctx, []*readmodel.OrderReadModel{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns orders matching params, newest first
func (s *PostgresStore) ListOrders(ctx context.Context, params ListOrdersParams) ([]*readmodel.OrderReadModel, error) {
	query := selectOrderSQL
	var args []any
	var conditions []string

	if params.Status != "" {
		args = append(args, params.Status)
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if params.UserID != "" {
		args = append(args, params.UserID)
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+escapeLike(params.Search)+"%")
		conditions = append(conditions, fmt.Sprintf(
			"(o.order_id ILIKE $%[1]d OR u.username ILIKE $%[1]d OR u.email ILIKE $%[1]d OR o.first_name ILIKE $%[1]d OR o.last_name ILIKE $%[1]d)",
			len(args),
		))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.created_at DESC"
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*readmodel.OrderReadModel, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	if err := s.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fetches line items for all orders in one query
func (s *PostgresStore) loadItems(ctx context.Context, orders []*readmodel.OrderReadModel) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*readmodel.OrderReadModel, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []readmodel.OrderItemReadModel{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, quantity, price
		FROM order_items WHERE order_id = ANY($1) ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item readmodel.OrderItemReadModel
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// CountByStatus groups orders by status with a single aggregation query
func (s *PostgresStore) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM orders`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return counts, nil
}

// CountOrders returns the total number of orders
func (s *PostgresStore) CountOrders(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}

// UpdateOrder locks the order row, applies fn and writes the order and payment
// in one transaction. Any failure rolls back both writes.
func (s *PostgresStore) UpdateOrder(ctx context.Context, orderID string, fn OrderUpdateFunc) (*readmodel.OrderReadModel, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	o, err := scanOrder(tx.QueryRowContext(ctx, selectOrderSQL+` WHERE o.order_id = $1 FOR UPDATE OF o`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	if err := fn(o); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE order_id = $3`,
		o.Status, o.UpdatedAt, o.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if o.Payment != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE payments SET status = $1, completed_at = $2 WHERE order_id = $3`,
			o.Payment.Status, nullTime(o.Payment.CompletedAt), o.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to update payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order update: %w", err)
	}
	return o, nil
}

// User operations

const selectUserSQL = `SELECT id, username, email, password_hash, is_staff, is_active, created_at FROM users`

func scanUser(row rowScanner) (*readmodel.UserReadModel, error) {
	var u readmodel.UserReadModel
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*readmodel.UserReadModel, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUserSQL+` WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*readmodel.UserReadModel, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUserSQL+` WHERE username = $1`, username))
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *readmodel.UserReadModel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_staff, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.IsStaff, u.IsActive, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
