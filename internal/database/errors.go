package database

import "errors"

var (
	// ErrNotFound — запрошенная запись отсутствует.
	ErrNotFound = errors.New("record not found")

	// ErrPendingRequestExists — у тенанта уже есть ожидающая заявка на этот объект.
	ErrPendingRequestExists = errors.New("pending request already exists for this property")

	// ErrAlreadyApproved — у тенанта уже есть одобренная заявка на этот объект.
	ErrAlreadyApproved = errors.New("booking already approved for this property")

	// ErrDatesUnavailable — запрошенная дата попадает в занятый период.
	ErrDatesUnavailable = errors.New("property is not available for the selected dates")
)
