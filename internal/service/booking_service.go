package service

import (
	"context"
	"errors"
	"time"

	"rentease/internal/availability"
	"rentease/internal/database"
	"rentease/internal/domain"
	"rentease/internal/events"
	"rentease/internal/metrics"
	"rentease/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService owns the booking state machine: pending on creation,
// approved/rejected by the landlord, cancelled by the tenant while pending.
type BookingService struct {
	repo              domain.BookingRepository
	directory         domain.Directory
	engine            *availability.Engine
	eventBus          domain.EventPublisher
	notifier          domain.NotifyWorker
	strictTransitions bool
	logger            *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	directory domain.Directory,
	engine *availability.Engine,
	eventBus domain.EventPublisher,
	notifier domain.NotifyWorker,
	strictTransitions bool,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:              repo,
		directory:         directory,
		engine:            engine,
		eventBus:          eventBus,
		notifier:          notifier,
		strictTransitions: strictTransitions,
		logger:            logger,
	}
}

// CreateBooking resolves property and tenant through the directory, runs the
// availability check and persists a pending booking. The check and the insert
// are repeated as one unit inside the guarded store write, so two concurrent
// requests for the same property cannot both pass.
func (s *BookingService) CreateBooking(ctx context.Context, propertyID, tenantID int64, startDate time.Time, notes string) (*models.Booking, error) {
	if startDate.IsZero() {
		return nil, ErrInvalidDates
	}
	if _, err := s.directory.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	if _, err := s.directory.GetUser(ctx, tenantID); err != nil {
		return nil, err
	}

	decision, err := s.engine.Check(ctx, propertyID, tenantID, startDate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		metrics.IncDenial(decision.Reason)
		return nil, denialError(decision.Reason)
	}

	booking := &models.Booking{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		TenantID:   tenantID,
		StartDate:  startDate,
		EndDate:    models.DefaultEndDate(startDate),
		Status:     models.StatusPending,
		Notes:      notes,
	}

	if err := s.repo.CreateBookingGuarded(ctx, booking); err != nil {
		if reason, ok := denialReason(err); ok {
			metrics.IncDenial(reason)
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.publishEvent(ctx, events.EventBookingRequested, booking)

	s.logger.Info().
		Str("booking_id", booking.ID).
		Int64("property_id", propertyID).
		Int64("tenant_id", tenantID).
		Msg("booking created")
	return booking, nil
}

// Decide sets the landlord's verdict. The baseline behavior overwrites any
// current status, including terminal ones; strictTransitions restricts
// decisions to pending bookings.
func (s *BookingService) Decide(ctx context.Context, bookingID string, decision models.Status) (*models.Booking, error) {
	if decision != models.StatusApproved && decision != models.StatusRejected {
		return nil, ErrInvalidDecision
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if s.strictTransitions && booking.Status.IsTerminal() {
		return nil, ErrTerminalState
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, decision); err != nil {
		return nil, err
	}
	booking.Status = decision
	booking.UpdatedAt = time.Now()

	eventType := events.EventBookingApproved
	if decision == models.StatusRejected {
		eventType = events.EventBookingRejected
	}
	s.publishEvent(ctx, eventType, booking)

	s.logger.Info().
		Str("booking_id", bookingID).
		Str("decision", decision.String()).
		Msg("booking decided")
	return booking, nil
}

// Cancel is tenant-initiated and succeeds only while the booking is pending.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != models.StatusPending {
		return nil, ErrNotPendingBooking
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.StatusCancelled); err != nil {
		return nil, err
	}
	booking.Status = models.StatusCancelled
	booking.UpdatedAt = time.Now()

	s.publishEvent(ctx, events.EventBookingCancelled, booking)

	s.logger.Info().Str("booking_id", bookingID).Msg("booking cancelled")
	return booking, nil
}

// CheckAvailability exposes the read-only availability decision.
func (s *BookingService) CheckAvailability(ctx context.Context, propertyID, tenantID int64, startDate time.Time) (availability.Decision, error) {
	if _, err := s.directory.GetProperty(ctx, propertyID); err != nil {
		return availability.Decision{}, err
	}
	return s.engine.Check(ctx, propertyID, tenantID, startDate)
}

func (s *BookingService) GetBookingByID(ctx context.Context, id string) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, booking), nil
}

func (s *BookingService) ListByTenant(ctx context.Context, tenantID int64) ([]*models.BookingView, error) {
	bookings, err := s.repo.GetBookingsByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, bookings), nil
}

func (s *BookingService) ListByProperty(ctx context.Context, propertyID int64) ([]*models.BookingView, error) {
	bookings, err := s.repo.GetBookingsByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, bookings), nil
}

// ListByStatus is the administrative queue audit projection.
func (s *BookingService) ListByStatus(ctx context.Context, status models.Status) ([]*models.BookingView, error) {
	bookings, err := s.repo.GetBookingsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, bookings), nil
}

// ListByDateRange returns bookings starting inside the period, for exports.
func (s *BookingService) ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.BookingView, error) {
	bookings, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, bookings), nil
}

// enrich joins the directory at read time. Missing directory entries leave
// the name fields empty rather than failing the projection.
func (s *BookingService) enrich(ctx context.Context, booking *models.Booking) *models.BookingView {
	view := &models.BookingView{
		ID:         booking.ID,
		PropertyID: booking.PropertyID,
		TenantID:   booking.TenantID,
		StartDate:  booking.StartDate,
		EndDate:    booking.EndDate,
		Status:     booking.Status,
		Notes:      booking.Notes,
		CreatedAt:  booking.CreatedAt,
		UpdatedAt:  booking.UpdatedAt,
	}

	if property, err := s.directory.GetProperty(ctx, booking.PropertyID); err == nil {
		view.PropertyTitle = property.Title
		if landlord, err := s.directory.GetUser(ctx, property.LandlordID); err == nil {
			view.LandlordName = landlord.FullName()
		}
	}
	if tenant, err := s.directory.GetUser(ctx, booking.TenantID); err == nil {
		view.TenantName = tenant.FullName()
	}

	return view
}

func (s *BookingService) enrichAll(ctx context.Context, bookings []*models.Booking) []*models.BookingView {
	views := make([]*models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, s.enrich(ctx, b))
	}
	return views
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, booking *models.Booking) {
	if s.eventBus != nil {
		payload := events.BookingEventPayload{
			BookingID:  booking.ID,
			PropertyID: booking.PropertyID,
			TenantID:   booking.TenantID,
			Status:     booking.Status.String(),
			StartDate:  booking.StartDate,
			EndDate:    booking.EndDate,
			Notes:      booking.Notes,
		}
		if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
			s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
		}
	}

	if s.notifier != nil {
		if err := s.notifier.EnqueueBookingEvent(ctx, eventType, booking); err != nil {
			s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("notify enqueue error")
		}
	}
}

// denialError maps an engine deny reason onto the store's sentinel errors so
// both check paths surface the same failures.
func denialError(reason string) error {
	switch reason {
	case availability.ReasonPendingExists:
		return database.ErrPendingRequestExists
	case availability.ReasonAlreadyApproved:
		return database.ErrAlreadyApproved
	default:
		return database.ErrDatesUnavailable
	}
}

func denialReason(err error) (string, bool) {
	switch {
	case errors.Is(err, database.ErrPendingRequestExists):
		return availability.ReasonPendingExists, true
	case errors.Is(err, database.ErrAlreadyApproved):
		return availability.ReasonAlreadyApproved, true
	case errors.Is(err, database.ErrDatesUnavailable):
		return availability.ReasonDatesUnavailable, true
	}
	return "", false
}
