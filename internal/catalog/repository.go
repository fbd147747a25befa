package catalog

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

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title FROM collections ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	collections := []domain.Collection{}
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collections, nil
}

// GetCollection loads a collection with its products, or nil if absent.
func (r *CatalogRepository) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	c := &domain.Collection{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, title FROM collections WHERE id = $1
	`, id).Scan(&c.ID, &c.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	c.Products, err = r.ListProducts(ctx, id)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (r *CatalogRepository) CreateCollection(ctx context.Context, title string) (*domain.Collection, error) {
	if title == "" {
		return nil, domain.Errorf(domain.EInvalid, "title is required")
	}

	c := &domain.Collection{ID: uuid.New().String(), Title: title}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collections (id, title) VALUES ($1, $2)
	`, c.ID, c.Title)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (r *CatalogRepository) UpdateCollection(ctx context.Context, id, title string) (*domain.Collection, error) {
	if title == "" {
		return nil, domain.Errorf(domain.EInvalid, "title is required")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE collections SET title = $1 WHERE id = $2
	`, title, id)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.Errorf(domain.ENotFound, "collection not found")
	}

	return &domain.Collection{ID: id, Title: title}, nil
}

// DeleteCollection refuses to delete a collection that still owns
// products; the RESTRICT constraint is the enforcement.
func (r *CatalogRepository) DeleteCollection(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return domain.Errorf(domain.EConflict, "collection still contains products")
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.ENotFound, "collection not found")
	}

	return nil
}

// ListProducts returns products, optionally filtered to one collection,
// with their images loaded in one batched query.
func (r *CatalogRepository) ListProducts(ctx context.Context, collectionID string) ([]domain.Product, error) {
	query := `
		SELECT id, collection_id, title, description, price, inventory, updated_at
		FROM products
	`
	args := []any{}
	if collectionID != "" {
		query += ` WHERE collection_id = $1`
		args = append(args, collectionID)
	}
	query += ` ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	productMap := make(map[string]*domain.Product)
	var productIDs []string

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CollectionID, &p.Title, &p.Description, &p.Price, &p.Inventory, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Images = []domain.ProductImage{}
		productMap[p.ID] = &p
		productIDs = append(productIDs, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(productIDs) == 0 {
		return []domain.Product{}, nil
	}

	imageRows, err := r.db.QueryContext(ctx, `
		SELECT product_id, id, url
		FROM product_images
		WHERE product_id = ANY($1)
	`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = imageRows.Close() }()

	for imageRows.Next() {
		var productID string
		var img domain.ProductImage
		if err := imageRows.Scan(&productID, &img.ID, &img.URL); err != nil {
			return nil, err
		}
		productMap[productID].Images = append(productMap[productID].Images, img)
	}
	if err := imageRows.Err(); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, *productMap[id])
	}

	return products, nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, collection_id, title, description, price, inventory, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.CollectionID, &p.Title, &p.Description, &p.Price, &p.Inventory, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	imageRows, err := r.db.QueryContext(ctx, `
		SELECT id, url FROM product_images WHERE product_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = imageRows.Close() }()

	p.Images = []domain.ProductImage{}
	for imageRows.Next() {
		var img domain.ProductImage
		if err := imageRows.Scan(&img.ID, &img.URL); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, img)
	}
	if err := imageRows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.Title == "" || p.CollectionID == "" {
		return domain.Errorf(domain.EInvalid, "title and collection_id are required")
	}
	if p.Price < 0 {
		return domain.Errorf(domain.EInvalid, "price must not be negative")
	}

	p.ID = uuid.New().String()
	p.UpdatedAt = time.Now().UTC()
	p.Images = []domain.ProductImage{}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, collection_id, title, description, price, inventory, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.CollectionID, p.Title, p.Description, p.Price, p.Inventory, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return domain.Errorf(domain.EInvalid, "unknown collection")
		}
		return err
	}

	return nil
}

// UpdateProduct replaces the mutable product fields. Price changes never
// touch captured prices on existing cart or order lines.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if p.Price < 0 {
		return domain.Errorf(domain.EInvalid, "price must not be negative")
	}

	p.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET title = $1, description = $2, price = $3, inventory = $4, updated_at = $5
		WHERE id = $6
	`, p.Title, p.Description, p.Price, p.Inventory, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.ENotFound, "product not found")
	}

	return nil
}

// DeleteProduct fails for products referenced by any order line: order
// history keeps its products forever.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return domain.Errorf(domain.EConflict, "product is referenced by placed orders")
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.ENotFound, "product not found")
	}

	return nil
}

func (r *CatalogRepository) AddImage(ctx context.Context, productID, url string) (*domain.ProductImage, error) {
	if url == "" {
		return nil, domain.Errorf(domain.EInvalid, "url is required")
	}

	img := &domain.ProductImage{ID: uuid.New().String(), URL: url}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_images (id, product_id, url) VALUES ($1, $2, $3)
	`, img.ID, productID, url)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return nil, domain.Errorf(domain.ENotFound, "product not found")
		}
		return nil, err
	}

	return img, nil
}

func (r *CatalogRepository) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.Name, &rev.Description, &rev.CreatedAt); err != nil {
			return nil, err
		}
		rev.ProductID = productID
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *CatalogRepository) AddReview(ctx context.Context, rev *domain.Review) error {
	if rev.Name == "" || rev.Description == "" {
		return domain.Errorf(domain.EInvalid, "name and description are required")
	}

	rev.ID = uuid.New().String()
	rev.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rev.ID, rev.ProductID, rev.Name, rev.Description, rev.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return domain.Errorf(domain.ENotFound, "product not found")
		}
		return err
	}

	return nil
}
