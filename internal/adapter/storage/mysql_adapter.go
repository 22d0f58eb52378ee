package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/deliverly/order-api/internal/core/domain"
	"github.com/deliverly/order-api/internal/port"
)

const orderColumns = `id, customer_id, address, status, total_amount, delivery_id, order_date, created_at, updated_at`

// MySQLAdapter is the order store. Status updates are conditional on
// the current status so that the placement path and the retry sweep
// can race safely.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Create(ctx context.Context, order domain.Order) (*domain.Order, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, address, status, total_amount, delivery_id, order_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CustomerID, order.Address, order.Status, order.TotalAmount,
		order.DeliveryID, order.OrderDate, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, l := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, l.ProductID, l.ProductName, l.Quantity, l.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	return &order, nil
}

func (m *MySQLAdapter) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := m.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (m *MySQLAdapter) FindAll(ctx context.Context) ([]domain.Order, error) {
	return m.Search(ctx, port.OrderQuery{})
}

func (m *MySQLAdapter) FindByCustomerID(ctx context.Context, customerID int) ([]domain.Order, error) {
	return m.Search(ctx, port.OrderQuery{CustomerID: customerID})
}

func (m *MySQLAdapter) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return m.Search(ctx, port.OrderQuery{Status: status})
}

func (m *MySQLAdapter) Search(ctx context.Context, q port.OrderQuery) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var conds []string
	var args []any

	if q.CustomerID > 0 {
		conds = append(conds, "customer_id = ?")
		args = append(args, q.CustomerID)
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if q.AddressContains != "" {
		conds = append(conds, "address LIKE ?")
		args = append(args, "%"+q.AddressContains+"%")
	}
	if !q.From.IsZero() {
		conds = append(conds, "order_date >= ?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		conds = append(conds, "order_date <= ?")
		args = append(args, q.To)
	}
	if q.MinAmount > 0 {
		conds = append(conds, "total_amount >= ?")
		args = append(args, q.MinAmount)
	}
	if q.MaxAmount > 0 {
		conds = append(conds, "total_amount <= ?")
		args = append(args, q.MaxAmount)
	}

	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}

	query += " ORDER BY order_date DESC"
	if q.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(q.Limit)
		if q.Offset > 0 {
			query += " OFFSET " + strconv.Itoa(q.Offset)
		}
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		if err := m.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (m *MySQLAdapter) UpdateStatus(ctx context.Context, id string, expected, next domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?`,
		next, id, expected,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrStatusConflict
	}
	return nil
}

func (m *MySQLAdapter) SetDelivery(ctx context.Context, id string, expected domain.OrderStatus, deliveryID int, next domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, delivery_id = ?, updated_at = NOW()
		WHERE id = ? AND status = ?`,
		next, deliveryID, id, expected,
	)
	if err != nil {
		return fmt.Errorf("set delivery: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrStatusConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.CustomerID, &o.Address, &status, &o.TotalAmount,
		&o.DeliveryID, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (m *MySQLAdapter) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, price
		FROM order_items WHERE order_id = ? ORDER BY id`, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.Price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, l)
	}
	return rows.Err()
}
