package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientStock is returned when a conditional stock decrement
// finds fewer units than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `id, seller_id, sku, name, description, category, unit_price_cents, stock, active, created_at, updated_at`

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(s.pool.QueryRow(ctx, query, id))
}

func (s *ProductStore) ListActive(ctx context.Context, limit int) ([]*Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE active
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (s *ProductStore) Create(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (seller_id, sku, name, description, category, unit_price_cents, stock, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return s.pool.QueryRow(ctx, query,
		product.SellerID, product.SKU, product.Name, product.Description,
		product.Category, product.UnitPriceCents, product.Stock, product.Active).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

// DecrementStockTx reserves stock inside the checkout transaction. The
// decrement only applies when enough stock remains; zero rows affected
// means another order got there first.
func (s *ProductStore) DecrementStockTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int64) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`
	cmdTag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	return nil
}

// RestockTx returns reserved stock when an order is cancelled or expires.
func (s *ProductStore) RestockTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int64) error {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := tx.Exec(ctx, query, productID, quantity)
	return err
}

func scanProduct(row pgx.Row) (*Product, error) {
	var product Product
	if err := row.Scan(
		&product.ID, &product.SellerID, &product.SKU, &product.Name,
		&product.Description, &product.Category, &product.UnitPriceCents,
		&product.Stock, &product.Active, &product.CreatedAt, &product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &product, nil
}
