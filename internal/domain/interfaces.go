package domain

import (
	"context"
	"time"

	"rentease/internal/availability"
	"rentease/internal/models"
)

// BookingRepository is the persistence contract for the booking store.
// The lifecycle service is the only writer.
type BookingRepository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateBookingGuarded(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id string, status models.Status) error
	GetBookingsByTenant(ctx context.Context, tenantID int64) ([]*models.Booking, error)
	GetBookingsByProperty(ctx context.Context, propertyID int64) ([]*models.Booking, error)
	GetBookingsByStatus(ctx context.Context, status models.Status) ([]*models.Booking, error)
	GetBookingsByPropertyAndStatus(ctx context.Context, propertyID int64, status models.Status) ([]*models.Booking, error)
	HasBookingWithStatus(ctx context.Context, propertyID, tenantID int64, status models.Status) (bool, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// Directory resolves property and user identities. Read-only for the core.
type Directory interface {
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotifyWorker accepts notification tasks for asynchronous delivery.
type NotifyWorker interface {
	EnqueueBookingEvent(ctx context.Context, eventType string, booking *models.Booking) error
}

// RequestLimiter bounds booking-request frequency per tenant.
type RequestLimiter interface {
	CheckRateLimit(ctx context.Context, tenantID int64, limit int, window time.Duration) (bool, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, propertyID, tenantID int64, startDate time.Time, notes string) (*models.Booking, error)
	Decide(ctx context.Context, bookingID string, decision models.Status) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID string) (*models.Booking, error)
	CheckAvailability(ctx context.Context, propertyID, tenantID int64, startDate time.Time) (availability.Decision, error)
	GetBookingByID(ctx context.Context, id string) (*models.BookingView, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]*models.BookingView, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]*models.BookingView, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.BookingView, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.BookingView, error)
}
