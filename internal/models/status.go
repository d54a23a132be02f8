package models

import "fmt"

// Status is the closed set of booking lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// ParseStatus maps an external string to a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown booking status: %q", raw)
}

// IsTerminal reports whether no further transitions are defined out of s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}
