package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Place converts the customer's cart into an order inside a single
// transaction: snapshot the cart lines, create the order with copies of
// every line (same captured price, never re-derived), then delete the
// cart and its lines. Any failure rolls the whole thing back and leaves
// the cart intact.
//
// The initial SELECT ... FOR UPDATE serializes concurrent placements of
// the same cart: the loser blocks on the row lock and, once the winner
// commits, finds the cart gone and fails with not_found. Cart deletion is
// never observable before the order exists.
func (r *OrderRepository) Place(ctx context.Context, customerID, cartID, addressID string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var lockedCartID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM carts
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, cartID, customerID).Scan(&lockedCartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ENotFound, "cart does not exist")
		}
		return nil, err
	}

	items, err := snapshotCartItems(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.Errorf(domain.EInvalid, "cannot place an order for an empty cart")
	}

	address := domain.Address{ID: addressID}
	err = tx.QueryRowContext(ctx, `
		SELECT customer_id, street, city, zip
		FROM addresses
		WHERE id = $1
	`, addressID).Scan(&address.CustomerID, &address.Street, &address.City, &address.Zip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ENotFound, "address does not exist")
		}
		return nil, err
	}
	if address.CustomerID != customerID {
		return nil, domain.Errorf(domain.EForbidden, "address does not belong to you")
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		CustomerID:      customerID,
		Status:          domain.OrderStatusPending,
		PlacedAt:        time.Now().UTC(),
		ShippingAddress: address,
		Items:           items,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, address_id, status, placed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, order.ID, order.CustomerID, addressID, order.Status, order.PlacedAt)
	if err != nil {
		return nil, err
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, order.Items[i].ID, order.ID, order.Items[i].ProductID, order.Items[i].Quantity, order.Items[i].Price)
		if err != nil {
			return nil, err
		}
	}

	// Cart deletion is an explicit cascading delete, not a framework side
	// effect: lines first, then the cart, same transaction.
	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Total = order.SumItems()
	return order, nil
}

func snapshotCartItems(ctx context.Context, tx *sql.Tx, cartID string) ([]domain.OrderItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT ci.product_id, p.title, ci.quantity, ci.price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductTitle, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		item.Total = int64(item.Quantity) * item.Price
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// GetByID loads an order with its lines and shipping address, or nil if
// it does not exist. Ownership is the caller's concern.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.customer_id, o.status, o.placed_at,
		       a.id, a.customer_id, a.street, a.city, a.zip
		FROM orders o
		JOIN addresses a ON a.id = o.address_id
		WHERE o.id = $1
	`, id).Scan(
		&order.ID, &order.CustomerID, &order.Status, &order.PlacedAt,
		&order.ShippingAddress.ID, &order.ShippingAddress.CustomerID,
		&order.ShippingAddress.Street, &order.ShippingAddress.City, &order.ShippingAddress.Zip,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.product_id, p.title, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductTitle, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		item.Total = int64(item.Quantity) * item.Price
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	order.Total = order.SumItems()
	return order, nil
}

// List returns every order when customerID is empty, otherwise only that
// customer's orders. Lines are loaded in one batched query.
func (r *OrderRepository) List(ctx context.Context, customerID string) ([]domain.Order, error) {
	query := `
		SELECT o.id, o.customer_id, o.status, o.placed_at,
		       a.id, a.customer_id, a.street, a.city, a.zip
		FROM orders o
		JOIN addresses a ON a.id = o.address_id
	`
	args := []any{}
	if customerID != "" {
		query += ` WHERE o.customer_id = $1`
		args = append(args, customerID)
	}
	query += ` ORDER BY o.placed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		err := rows.Scan(
			&order.ID, &order.CustomerID, &order.Status, &order.PlacedAt,
			&order.ShippingAddress.ID, &order.ShippingAddress.CustomerID,
			&order.ShippingAddress.Street, &order.ShippingAddress.City, &order.ShippingAddress.Zip,
		)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, p.title, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ID, &item.ProductID, &item.ProductTitle, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		item.Total = int64(item.Quantity) * item.Price
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orderMap[id].Total = orderMap[id].SumItems()
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// UpdateStatus sets an order's status. Statuses carry no transition
// rules; this is an administrative write.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Delete removes an order and its lines in one transaction.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.ENotFound, "order not found")
	}

	return tx.Commit()
}
