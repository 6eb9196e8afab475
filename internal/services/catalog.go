package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sunushop/sunushop/internal/db"
)

var ErrProductNotFound = errors.New("product not found")

type productStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db.Product, error)
	ListActive(ctx context.Context, limit int) ([]*db.Product, error)
	Create(ctx context.Context, product *db.Product) error
}

type CatalogService struct {
	products productStore
	logger   *slog.Logger
}

func NewCatalogService(products productStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{products: products, logger: logger}
}

func (s *CatalogService) List(ctx context.Context, limit int) ([]*db.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	products, err := s.products.ListActive(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*db.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) Create(ctx context.Context, product *db.Product) error {
	if strings.TrimSpace(product.SKU) == "" {
		return fmt.Errorf("product SKU is required")
	}
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if product.UnitPriceCents <= 0 {
		return fmt.Errorf("unit price must be positive")
	}
	if product.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}

	if err := s.products.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}
