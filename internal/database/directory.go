package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentease/internal/models"
)

// Directory methods. The booking core only reads these tables; writes happen
// at startup (seed) and through the administrative upsert path.

// UpsertProperty создает или обновляет объект в справочнике.
func (db *DB) UpsertProperty(ctx context.Context, p *models.Property) error {
	query := `
        INSERT INTO properties (id, title, city, neighborhood, price, landlord_id, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            city = excluded.city,
            neighborhood = excluded.neighborhood,
            price = excluded.price,
            landlord_id = excluded.landlord_id,
            is_active = excluded.is_active,
            updated_at = excluded.updated_at
    `
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		p.ID, p.Title, p.City, p.Neighborhood, p.Price, p.LandlordID, p.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert property: %w", err)
	}
	return nil
}

func (db *DB) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	query := `SELECT id, title, city, neighborhood, price, landlord_id, is_active
	          FROM properties WHERE id = ?`
	var p models.Property
	err := db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.City, &p.Neighborhood, &p.Price, &p.LandlordID, &p.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &p, nil
}

// UpsertUser создает или обновляет пользователя в справочнике.
func (db *DB) UpsertUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (id, first_name, last_name, email, phone, role, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            email = excluded.email,
            phone = excluded.phone,
            role = excluded.role,
            updated_at = excluded.updated_at
    `
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.Role, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, first_name, last_name, email, phone, role, created_at, updated_at
	          FROM users WHERE id = ?`
	var u models.User
	err := db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
