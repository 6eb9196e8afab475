package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ZoneStore struct {
	pool *pgxpool.Pool
}

func NewZoneStore(pool *pgxpool.Pool) *ZoneStore {
	return &ZoneStore{pool: pool}
}

const zoneColumns = `id, name, countries, regions, shipping_cost_cents, free_shipping_threshold_cents,
	estimated_days_min, estimated_days_max, priority, active, created_at, updated_at`

func (s *ZoneStore) GetByID(ctx context.Context, id uuid.UUID) (*ShippingZone, error) {
	query := `SELECT ` + zoneColumns + ` FROM shipping_zones WHERE id = $1`
	return scanZone(s.pool.QueryRow(ctx, query, id))
}

// ListActiveByCountry returns the active zones covering a country,
// ordered by priority. Matching within the list (region preference) is
// done in memory by the resolver.
func (s *ZoneStore) ListActiveByCountry(ctx context.Context, country string) ([]ShippingZone, error) {
	query := `
		SELECT ` + zoneColumns + `
		FROM shipping_zones
		WHERE active AND EXISTS (
			SELECT 1 FROM unnest(countries) AS c WHERE upper(c) = upper($1)
		)
		ORDER BY priority
	`
	return s.listZones(ctx, query, country)
}

func (s *ZoneStore) List(ctx context.Context) ([]ShippingZone, error) {
	query := `SELECT ` + zoneColumns + ` FROM shipping_zones ORDER BY priority, name`
	return s.listZones(ctx, query)
}

func (s *ZoneStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM shipping_zones`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *ZoneStore) Create(ctx context.Context, zone *ShippingZone) error {
	query := `
		INSERT INTO shipping_zones (name, countries, regions, shipping_cost_cents,
			free_shipping_threshold_cents, estimated_days_min, estimated_days_max, priority, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return s.pool.QueryRow(ctx, query,
		zone.Name, zone.Countries, zone.Regions, zone.ShippingCostCents,
		zone.FreeShippingThresholdCents, zone.EstimatedDaysMin, zone.EstimatedDaysMax,
		zone.Priority, zone.Active).
		Scan(&zone.ID, &zone.CreatedAt, &zone.UpdatedAt)
}

func (s *ZoneStore) Update(ctx context.Context, zone *ShippingZone) error {
	query := `
		UPDATE shipping_zones
		SET name = $2, countries = $3, regions = $4, shipping_cost_cents = $5,
			free_shipping_threshold_cents = $6, estimated_days_min = $7,
			estimated_days_max = $8, priority = $9, active = $10, updated_at = NOW()
		WHERE id = $1
	`
	cmdTag, err := s.pool.Exec(ctx, query,
		zone.ID, zone.Name, zone.Countries, zone.Regions, zone.ShippingCostCents,
		zone.FreeShippingThresholdCents, zone.EstimatedDaysMin, zone.EstimatedDaysMax,
		zone.Priority, zone.Active)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *ZoneStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	cmdTag, err := s.pool.Exec(ctx,
		`UPDATE shipping_zones SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *ZoneStore) listZones(ctx context.Context, query string, args ...any) ([]ShippingZone, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []ShippingZone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *zone)
	}
	return zones, rows.Err()
}

func scanZone(row pgx.Row) (*ShippingZone, error) {
	var zone ShippingZone
	if err := row.Scan(
		&zone.ID, &zone.Name, &zone.Countries, &zone.Regions,
		&zone.ShippingCostCents, &zone.FreeShippingThresholdCents,
		&zone.EstimatedDaysMin, &zone.EstimatedDaysMax,
		&zone.Priority, &zone.Active, &zone.CreatedAt, &zone.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &zone, nil
}
