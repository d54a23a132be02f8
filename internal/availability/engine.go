package availability

import (
	"context"
	"fmt"
	"time"

	"rentease/internal/models"

	"github.com/rs/zerolog"
)

// Deny reasons surfaced to callers. Exactly one rule fires per denial.
const (
	ReasonPendingExists    = "pending request already exists"
	ReasonAlreadyApproved  = "already approved"
	ReasonDatesUnavailable = "dates unavailable"
)

// Store is the read-only slice of the booking store the engine needs.
type Store interface {
	HasBookingWithStatus(ctx context.Context, propertyID, tenantID int64, status models.Status) (bool, error)
	GetBookingsByPropertyAndStatus(ctx context.Context, propertyID int64, status models.Status) ([]*models.Booking, error)
}

// Decision is the outcome of an availability check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Engine decides whether a booking request conflicts with existing bookings.
// Pure read-and-decide: no side effects, safe to call repeatedly.
type Engine struct {
	store  Store
	logger *zerolog.Logger
}

func NewEngine(store Store, logger *zerolog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Check applies the three availability rules in order:
//  1. a tenant has at most one outstanding request per property;
//  2. a tenant cannot re-request a property already approved for them;
//  3. the requested start date must not fall strictly inside an approved
//     range on the property. Only the start date is compared, and
//     boundary-equal dates pass. The computed end date of the new request
//     is deliberately not checked against existing reservations.
func (e *Engine) Check(ctx context.Context, propertyID, tenantID int64, startDate time.Time) (Decision, error) {
	pending, err := e.store.HasBookingWithStatus(ctx, propertyID, tenantID, models.StatusPending)
	if err != nil {
		return Decision{}, fmt.Errorf("check pending bookings: %w", err)
	}
	if pending {
		return deny(ReasonPendingExists), nil
	}

	approved, err := e.store.HasBookingWithStatus(ctx, propertyID, tenantID, models.StatusApproved)
	if err != nil {
		return Decision{}, fmt.Errorf("check approved bookings: %w", err)
	}
	if approved {
		return deny(ReasonAlreadyApproved), nil
	}

	existing, err := e.store.GetBookingsByPropertyAndStatus(ctx, propertyID, models.StatusApproved)
	if err != nil {
		return Decision{}, fmt.Errorf("load approved bookings: %w", err)
	}
	for _, b := range existing {
		if startDate.After(b.StartDate) && startDate.Before(b.EndDate) {
			e.logger.Debug().
				Int64("property_id", propertyID).
				Str("conflicting_booking", b.ID).
				Msg("start date inside approved range")
			return deny(ReasonDatesUnavailable), nil
		}
	}

	return allow(), nil
}
