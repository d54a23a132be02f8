package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentease/internal/models"
)

const dateLayout = "2006-01-02"

const bookingColumns = `id, property_id, tenant_id, date(start_date), date(end_date),
                 status, notes, created_at, updated_at`

// CreateBooking вставляет заявку без проверок доступности.
// Используется напрямую только в тестах и миграциях; бизнес-логика
// ходит через CreateBookingGuarded.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				id, property_id, tenant_id, start_date, end_date,
				status, notes, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.PropertyID,
		booking.TenantID,
		booking.StartDate.Format(dateLayout),
		booking.EndDate.Format(dateLayout),
		booking.Status,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// CreateBookingGuarded повторяет проверки доступности и вставку как одну
// логическую операцию. Запись сериализуется по объекту: конкурентные заявки
// на один property проходят через общий мьютекс, проверки выполняются внутри
// транзакции.
func (db *DB) CreateBookingGuarded(ctx context.Context, booking *models.Booking) error {
	mu := db.propertyLock(booking.PropertyID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Duplicate-pending rule
	var pendingCount int
	queryExists := `SELECT COUNT(*) FROM bookings WHERE property_id = ? AND tenant_id = ? AND status = ?`
	err = tx.QueryRowContext(ctx, queryExists, booking.PropertyID, booking.TenantID, models.StatusPending).Scan(&pendingCount)
	if err != nil {
		return fmt.Errorf("failed to check pending bookings in tx: %w", err)
	}
	if pendingCount > 0 {
		return ErrPendingRequestExists
	}

	// 2. Duplicate-approved rule
	var approvedCount int
	err = tx.QueryRowContext(ctx, queryExists, booking.PropertyID, booking.TenantID, models.StatusApproved).Scan(&approvedCount)
	if err != nil {
		return fmt.Errorf("failed to check approved bookings in tx: %w", err)
	}
	if approvedCount > 0 {
		return ErrAlreadyApproved
	}

	// 3. Date-overlap rule: start date strictly inside an approved range,
	// boundary-equal dates pass.
	startStr := booking.StartDate.Format(dateLayout)
	var overlapCount int
	queryOverlap := `SELECT COUNT(*) FROM bookings
	                 WHERE property_id = ? AND status = ?
	                 AND date(?) > date(start_date) AND date(?) < date(end_date)`
	err = tx.QueryRowContext(ctx, queryOverlap, booking.PropertyID, models.StatusApproved, startStr, startStr).Scan(&overlapCount)
	if err != nil {
		return fmt.Errorf("failed to check date overlap in tx: %w", err)
	}
	if overlapCount > 0 {
		return ErrDatesUnavailable
	}

	// 4. Insert
	queryInsert := `INSERT INTO bookings (
				id, property_id, tenant_id, start_date, end_date,
				status, notes, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err = tx.ExecContext(ctx, queryInsert,
		booking.ID,
		booking.PropertyID,
		booking.TenantID,
		startStr,
		booking.EndDate.Format(dateLayout),
		booking.Status,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id string, status models.Status) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetBookingsByTenant(ctx context.Context, tenantID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, tenantID)
}

func (db *DB) GetBookingsByProperty(ctx context.Context, propertyID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE property_id = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, propertyID)
}

func (db *DB) GetBookingsByStatus(ctx context.Context, status models.Status) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, status)
}

func (db *DB) GetBookingsByPropertyAndStatus(ctx context.Context, propertyID int64, status models.Status) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE property_id = ? AND status = ? ORDER BY date(start_date) ASC`
	return db.queryBookings(ctx, query, propertyID, status)
}

// HasBookingWithStatus реализует проверку existsByPropertyTenantStatus.
func (db *DB) HasBookingWithStatus(ctx context.Context, propertyID, tenantID int64, status models.Status) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE property_id = ? AND tenant_id = ? AND status = ?`
	var count int
	err := db.QueryRowContext(ctx, query, propertyID, tenantID, status).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check booking existence: %w", err)
	}
	return count > 0, nil
}

// GetBookingsByDateRange возвращает заявки со start_date в периоде, для экспорта.
func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE date(start_date) >= ? AND date(start_date) <= ?
	          ORDER BY date(start_date) ASC, created_at ASC`
	return db.queryBookings(ctx, query, startDate.Format(dateLayout), endDate.Format(dateLayout))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var startStr, endStr, statusStr string
	err := row.Scan(
		&b.ID, &b.PropertyID, &b.TenantID, &startStr, &endStr,
		&statusStr, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = models.Status(statusStr)
	if b.StartDate, err = time.Parse(dateLayout, startStr); err != nil {
		return nil, fmt.Errorf("failed to parse start date %s: %w", startStr, err)
	}
	if b.EndDate, err = time.Parse(dateLayout, endStr); err != nil {
		return nil, fmt.Errorf("failed to parse end date %s: %w", endStr, err)
	}
	return b, nil
}
