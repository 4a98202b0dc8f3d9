package domain

import "errors"

var (
	// Validation failures, rejected before any I/O.
	ErrServiceRequired = errors.New("at least one service is required")
	ErrUnknownService  = errors.New("unknown service")
	ErrUnknownStaff    = errors.New("unknown staff member")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time label")
	ErrNameRequired    = errors.New("client name required")
	ErrPhoneRequired   = errors.New("client phone required")
	ErrInvalidStatus   = errors.New("invalid status")

	ErrReservationNotFound = errors.New("reservation not found")
	// ErrAlreadyFinalized enforces the one-outcome rule: a record never
	// leaves completed or cancelled.
	ErrAlreadyFinalized = errors.New("reservation already finalized")
	// ErrSlotTaken is the store-level conditional write losing: another
	// non-cancelled reservation already owns the (staff, date, time) slot.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrStoreUnavailable wraps any store read/write failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)
