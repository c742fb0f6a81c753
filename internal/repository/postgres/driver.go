package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride/internal/domain"
	"ride/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
	// forUpdate is set by NewDriverRepositoryWithTx to lock the row on read —
	// callers inside a transaction that intend to mutate must read this way.
	forUpdate bool
}

// NewDriverRepository creates a new PostgreSQL driver repository over db.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository scoped to tx; reads
// via GetByID take a row lock (SELECT ... FOR UPDATE).
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx, forUpdate: true}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `INSERT INTO drivers (id, name, phone, status, lat, lon, has_loc, rating, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID, driver.Name, driver.Phone, driver.Status,
		driver.Lat, driver.Lon, driver.HasLoc, driver.Rating,
		driver.CreatedAt, driver.UpdatedAt)
	return err
}

func (r *DriverRepository) scanDriver(row *sql.Row) (*domain.Driver, error) {
	var driver domain.Driver
	err := row.Scan(
		&driver.ID, &driver.Name, &driver.Phone, &driver.Status,
		&driver.Lat, &driver.Lon, &driver.HasLoc, &driver.Rating,
		&driver.CreatedAt, &driver.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

const driverColumns = `id, COALESCE(name, ''), COALESCE(phone, ''), status, lat, lon, has_loc, rating, created_at, updated_at`

// GetByID retrieves a driver by ID, locking the row FOR UPDATE when this
// repository was built with NewDriverRepositoryWithTx.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	return r.scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a driver by phone number.
func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone = $1`
	return r.scanDriver(r.q.QueryRowContext(ctx, query, phone))
}

// List retrieves drivers, optionally filtered by status (empty = all).
func (r *DriverRepository) List(ctx context.Context, status domain.DriverStatus, limit int) ([]*domain.Driver, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = r.q.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY id LIMIT $1`, limit)
	} else {
		rows, err = r.q.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE status = $1 ORDER BY id LIMIT $2`, status, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		if err := rows.Scan(
			&driver.ID, &driver.Name, &driver.Phone, &driver.Status,
			&driver.Lat, &driver.Lon, &driver.HasLoc, &driver.Rating,
			&driver.CreatedAt, &driver.UpdatedAt,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}
	return drivers, rows.Err()
}

// UpdateStatus writes the driver's status.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE drivers SET status = $1, updated_at = now() WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateLocation persists a driver's last known position. Called by the
// asynchronous geo.Writer, off the update_location request path.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, lat, lon float64) error {
	query := `UPDATE drivers SET lat = $1, lon = $2, has_loc = true, updated_at = now() WHERE id = $3`
	_, err := r.q.ExecContext(ctx, query, lat, lon, id)
	return err
}
