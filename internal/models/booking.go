package models

import "time"

// Booking is a tenant's request to occupy a property for a date range.
type Booking struct {
	ID         string    `json:"id"`
	PropertyID int64     `json:"property_id"`
	TenantID   int64     `json:"tenant_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookingView is a booking enriched with directory names for display.
// Enrichment happens at read time and never touches stored state.
type BookingView struct {
	ID            string    `json:"id"`
	PropertyID    int64     `json:"property_id"`
	PropertyTitle string    `json:"property_title"`
	TenantID      int64     `json:"tenant_id"`
	TenantName    string    `json:"tenant_name"`
	LandlordName  string    `json:"landlord_name"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Status        Status    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultEndDate is the business rule for the rental term when the caller
// does not supply an end date: one calendar month after the start. The day is
// clamped to the last day of the target month, so Jan 31 ends on Feb 28/29
// rather than rolling into March.
func DefaultEndDate(startDate time.Time) time.Time {
	year, month, day := startDate.Date()
	month += DefaultRentalMonths

	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, startDate.Location())
	if lastDay := firstOfTarget.AddDate(0, 1, -1).Day(); day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, startDate.Location())
}
