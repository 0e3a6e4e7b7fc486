package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tachyon/internal/domain"
	tachyonerrors "tachyon/pkg/errors"
)

// DeviceRepository persists device records in Postgres. The underlying
// database/sql pool re-establishes dropped connections per operation; a
// failure to do so surfaces as ErrStorageUnavailable.
type DeviceRepository struct {
	db *sqlx.DB
}

func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create inserts a new device record and returns its assigned id.
// No uniqueness is enforced on device_name; duplicates are permitted.
func (r *DeviceRepository) Create(ctx context.Context, device *domain.Device) (int64, error) {
	query := `
		INSERT INTO devices (device_name, ip_address, password)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		device.DeviceName, device.IPAddress, device.CredentialHash,
	).Scan(&id)
	if err != nil {
		return 0, r.mapError(err, "failed to create device")
	}

	device.ID = id
	return id, nil
}

// FindByName returns the lowest-id record matching name, so repeated
// lookups of a duplicated name are deterministic.
func (r *DeviceRepository) FindByName(ctx context.Context, name string) (*domain.Device, error) {
	var device domain.Device
	query := `
		SELECT id, device_name, ip_address, password
		FROM devices
		WHERE device_name = $1
		ORDER BY id
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &device, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tachyonerrors.ErrDeviceNotFound
	}
	if err != nil {
		return nil, r.mapError(err, "failed to find device")
	}

	return &device, nil
}

// ListNames returns every stored device_name in insertion order,
// duplicates included.
func (r *DeviceRepository) ListNames(ctx context.Context) ([]string, error) {
	names := []string{}
	query := `SELECT device_name FROM devices ORDER BY id`

	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, r.mapError(err, "failed to list devices")
	}

	return names, nil
}

// mapError classifies backend failures. Connection-level problems become
// ErrStorageUnavailable so callers can report them uniformly; everything
// else is wrapped with context.
func (r *DeviceRepository) mapError(err error, message string) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %v", message, tachyonerrors.ErrStorageUnavailable, err)
	}
	return tachyonerrors.Wrap(err, message)
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection exception, class 57 is operator intervention
		// (e.g. shutdown); both mean the backend is not usable right now.
		switch pqErr.Code.Class() {
		case "08", "57":
			return true
		}
	}

	return false
}
