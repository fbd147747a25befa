package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const fkViolation = "23503"

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetOrCreateForUser returns the user's cart, creating one if none
// exists. The UNIQUE (user_id) constraint makes creation idempotent: two
// concurrent calls resolve to the same row, and the second caller's
// insert is a no-op. The bool reports whether a new cart was created.
func (r *CartRepository) GetOrCreateForUser(ctx context.Context, userID string) (*domain.Cart, bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New().String(), userID, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	cart, err := r.GetForUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if cart == nil {
		// The cart was consumed by a placement between the upsert and the
		// read. The caller can simply retry.
		return nil, false, domain.Errorf(domain.EConflict, "cart was removed concurrently")
	}

	return cart, inserted == 1, nil
}

// GetForUser loads the user's cart with its lines, or nil if the user
// has none.
func (r *CartRepository) GetForUser(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// GetByID loads a cart with its lines, or nil if it does not exist.
// Ownership is the caller's concern.
func (r *CartRepository) GetByID(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart := &domain.Cart{}
	var userID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at
		FROM carts
		WHERE id = $1
	`, cartID).Scan(&cart.ID, &userID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	cart.UserID = userID.String

	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *CartRepository) loadItems(ctx context.Context, cart *domain.Cart) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, p.title, ci.quantity, ci.price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.title
	`, cart.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductTitle, &item.Quantity, &item.Price); err != nil {
			return err
		}
		item.Total = int64(item.Quantity) * item.Price
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cart.Total = cart.SumItems()
	return nil
}

// AddItem merges a line into the cart. The first add for a
// (cart, product) pair captures the product's current price on the line;
// any later add for the same pair only increments the quantity and leaves
// the captured price untouched. The ON CONFLICT upsert makes the
// check-then-act atomic: concurrent adds can neither duplicate the line
// nor lose an increment.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Errorf(domain.EInvalid, "quantity must be at least 1")
	}

	var price int64
	var title string
	err := r.db.QueryRowContext(ctx, `
		SELECT price, title FROM products WHERE id = $1
	`, productID).Scan(&price, &title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.EInvalid, "unknown product")
		}
		return nil, err
	}

	item := &domain.CartItem{
		ProductID:    productID,
		ProductTitle: title,
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, price
	`, uuid.New().String(), cartID, productID, quantity, price).Scan(&item.ID, &item.Quantity, &item.Price)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			// The cart disappeared mid-flight, e.g. a concurrent placement
			// consumed it.
			return nil, domain.Errorf(domain.EConflict, "cart no longer exists")
		}
		return nil, err
	}
	item.Total = int64(item.Quantity) * item.Price

	return item, nil
}

// UpdateItem replaces a line's quantity. The captured price is never
// touched.
func (r *CartRepository) UpdateItem(ctx context.Context, cartID, itemID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Errorf(domain.EInvalid, "quantity must be at least 1")
	}

	item := &domain.CartItem{ID: itemID}
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items
		SET quantity = $1
		WHERE id = $2 AND cart_id = $3
		RETURNING product_id, quantity, price
	`, quantity, itemID, cartID).Scan(&item.ProductID, &item.Quantity, &item.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ENotFound, "cart item not found")
		}
		return nil, err
	}
	item.Total = int64(item.Quantity) * item.Price

	return item, nil
}

// RemoveItem deletes one line unconditionally.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND cart_id = $2
	`, itemID, cartID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.ENotFound, "cart item not found")
	}

	return nil
}
