package customers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	fkViolation     = "23503"
	uniqueViolation = "23505"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create registers a customer with a bcrypt password hash and the lowest
// membership tier.
func (r *CustomerRepository) Create(ctx context.Context, email, password, firstName, lastName string) (*domain.Customer, error) {
	if email == "" || password == "" {
		return nil, domain.Errorf(domain.EInvalid, "email and password are required")
	}
	if firstName == "" || lastName == "" {
		return nil, domain.Errorf(domain.EInvalid, "first_name and last_name are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		ID:         uuid.New().String(),
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		Membership: domain.MembershipBronze,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO customers (id, email, password_hash, first_name, last_name, membership, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, customer.ID, customer.Email, string(hash), customer.FirstName, customer.LastName, customer.Membership, customer.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.Errorf(domain.EConflict, "email already registered")
		}
		return nil, err
	}

	return customer, nil
}

// Authenticate verifies the credentials. Missing accounts and wrong
// passwords are indistinguishable to the caller.
func (r *CustomerRepository) Authenticate(ctx context.Context, email, password string) (*domain.Customer, error) {
	customer, err := r.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.Errorf(domain.EUnauthorized, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Errorf(domain.EUnauthorized, "invalid email or password")
	}

	return customer, nil
}

func (r *CustomerRepository) getByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, birth_date, membership, is_admin, created_at
		FROM customers
		WHERE email = $1
	`, email).Scan(
		&customer.ID, &customer.Email, &customer.PasswordHash,
		&customer.FirstName, &customer.LastName, &customer.Phone,
		&customer.BirthDate, &customer.Membership, &customer.IsAdmin, &customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return customer, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, birth_date, membership, is_admin, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&customer.ID, &customer.Email, &customer.PasswordHash,
		&customer.FirstName, &customer.LastName, &customer.Phone,
		&customer.BirthDate, &customer.Membership, &customer.IsAdmin, &customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return customer, nil
}

// CreateAddress binds an address to the customer. The UNIQUE constraint
// keeps the relation one-to-one.
func (r *CustomerRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	if address.Street == "" || address.City == "" {
		return domain.Errorf(domain.EInvalid, "street and city are required")
	}

	address.ID = uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO addresses (id, customer_id, street, city, zip)
		VALUES ($1, $2, $3, $4, $5)
	`, address.ID, address.CustomerID, address.Street, address.City, address.Zip)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.Errorf(domain.EConflict, "customer already has an address")
		}
		return err
	}

	return nil
}

// ListAddresses returns the customer's addresses (zero or one).
func (r *CustomerRepository) ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, street, city, zip
		FROM addresses
		WHERE customer_id = $1
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	addresses := []domain.Address{}
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Street, &a.City, &a.Zip); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return addresses, nil
}

func (r *CustomerRepository) GetAddress(ctx context.Context, id string) (*domain.Address, error) {
	a := &domain.Address{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, street, city, zip
		FROM addresses
		WHERE id = $1
	`, id).Scan(&a.ID, &a.CustomerID, &a.Street, &a.City, &a.Zip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// UpdateAddress rewrites the address fields. Orders referencing this
// address keep it as their shipping snapshot.
func (r *CustomerRepository) UpdateAddress(ctx context.Context, address *domain.Address) error {
	if address.Street == "" || address.City == "" {
		return domain.Errorf(domain.EInvalid, "street and city are required")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE addresses
		SET street = $1, city = $2, zip = $3
		WHERE id = $4 AND customer_id = $5
	`, address.Street, address.City, address.Zip, address.ID, address.CustomerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.ENotFound, "address not found")
	}

	return nil
}

func (r *CustomerRepository) DeleteAddress(ctx context.Context, id, customerID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM addresses WHERE id = $1 AND customer_id = $2
	`, id, customerID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
			return domain.Errorf(domain.EConflict, "address is referenced by placed orders")
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.ENotFound, "address not found")
	}

	return nil
}
