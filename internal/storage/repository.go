package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	upsertObservationSQL = `INSERT INTO price_observations (
        crop,
        location,
        source,
        observed_at,
        original_price,
        currency,
        unit,
        price_usd,
        exchange_rate
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    ON CONFLICT (crop, location, source, observed_at) DO UPDATE
    SET
        original_price = EXCLUDED.original_price,
        currency       = EXCLUDED.currency,
        unit           = EXCLUDED.unit,
        price_usd      = EXCLUDED.price_usd,
        exchange_rate  = EXCLUDED.exchange_rate;`

	listObservationsBetweenSQL = `SELECT
        crop,
        location,
        source,
        observed_at,
        original_price,
        currency,
        unit,
        price_usd,
        exchange_rate,
        created_at
    FROM price_observations
    WHERE crop = $1
      AND location = $2
      AND observed_at >= $3
      AND observed_at < $4
    ORDER BY observed_at;`

	listRecentObservationsSQL = `SELECT
        crop,
        location,
        source,
        observed_at,
        original_price,
        currency,
        unit,
        price_usd,
        exchange_rate,
        created_at
    FROM price_observations
    WHERE crop = $1
      AND location = $2
    ORDER BY observed_at DESC
    LIMIT $3;`

	countObservationsSQL = `SELECT COUNT(*) FROM price_observations;`
)

// ObservationStore defines the persistence operations used by the
// pipeline and the CLI reporting commands.
type ObservationStore interface {
	UpsertObservations(ctx context.Context, observations []Observation) error
	ListObservationsBetween(ctx context.Context, crop, location string, from, to time.Time) ([]Observation, error)
	ListRecentObservations(ctx context.Context, crop, location string, limit int) ([]Observation, error)
	CountObservations(ctx context.Context) (int64, error)
}

// Store provides Postgres-backed observation persistence.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertObservations persists a batch of observations.
func (s *Store) UpsertObservations(ctx context.Context, observations []Observation) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	for _, obs := range observations {
		_, execErr := pool.Exec(ctx, upsertObservationSQL,
			obs.Crop,
			obs.Location,
			obs.Source,
			obs.ObservedAt,
			obs.OriginalPrice.String(),
			obs.Currency,
			obs.Unit,
			obs.PriceUSD.String(),
			obs.ExchangeRate.String(),
		)
		if execErr != nil {
			return fmt.Errorf("upsert observation: %w", execErr)
		}
	}
	return nil
}

// ListObservationsBetween lists observations for a market within a window.
func (s *Store) ListObservationsBetween(ctx context.Context, crop, location string, from, to time.Time) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listObservationsBetweenSQL, crop, location, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list observations between: %w", queryErr)
	}
	defer rows.Close()

	return collectObservations(rows)
}

// ListRecentObservations lists the newest observations for a market.
func (s *Store) ListRecentObservations(ctx context.Context, crop, location string, limit int) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentObservationsSQL, crop, location, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent observations: %w", queryErr)
	}
	defer rows.Close()

	return collectObservations(rows)
}

// CountObservations reports the archive size.
func (s *Store) CountObservations(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := pool.QueryRow(ctx, countObservationsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return count, nil
}

func collectObservations(rows pgx.Rows) ([]Observation, error) {
	observations := make([]Observation, 0)
	for rows.Next() {
		obs, scanErr := scanObservation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return observations, nil
}

func scanObservation(rows pgx.Rows) (Observation, error) {
	var (
		obs           Observation
		originalPrice string
		priceUSD      string
		exchangeRate  string
	)
	if err := rows.Scan(
		&obs.Crop,
		&obs.Location,
		&obs.Source,
		&obs.ObservedAt,
		&originalPrice,
		&obs.Currency,
		&obs.Unit,
		&priceUSD,
		&exchangeRate,
		&obs.CreatedAt,
	); err != nil {
		return Observation{}, fmt.Errorf("scan observation: %w", err)
	}

	var err error
	if obs.OriginalPrice, err = decimal.NewFromString(originalPrice); err != nil {
		return Observation{}, fmt.Errorf("parse original price: %w", err)
	}
	if obs.PriceUSD, err = decimal.NewFromString(priceUSD); err != nil {
		return Observation{}, fmt.Errorf("parse usd price: %w", err)
	}
	if obs.ExchangeRate, err = decimal.NewFromString(exchangeRate); err != nil {
		return Observation{}, fmt.Errorf("parse exchange rate: %w", err)
	}

	return obs, nil
}

var _ ObservationStore = (*Store)(nil)
