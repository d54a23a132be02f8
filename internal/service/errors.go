package service

import "errors"

var (
	// ErrNotPendingBooking — отменить можно только ожидающую заявку.
	ErrNotPendingBooking = errors.New("only pending bookings can be cancelled")

	// ErrInvalidDecision — решение лендлорда может быть только approved или rejected.
	ErrInvalidDecision = errors.New("decision must be approved or rejected")

	// ErrTerminalState — заявка уже в конечном статусе (только при strict_transitions).
	ErrTerminalState = errors.New("booking is already in a terminal state")

	// ErrInvalidDates — некорректные даты заявки.
	ErrInvalidDates = errors.New("invalid booking dates")
)
