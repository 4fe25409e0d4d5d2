package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/platform/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for a persisted wash booking. A primary booking
// has no parent; recurrence children point at their primary.
type Booking struct {
	id              uuid.UUID
	bookingNumber   string
	customerID      uuid.UUID
	serviceID       uuid.UUID
	vehicleID       uuid.UUID
	address         string
	timeSlot        TimeSlot
	status          BookingStatus
	recurring       bool
	cadence         Cadence
	parentID        *uuid.UUID
	price           int64
	currency        string
	paymentMethod   PaymentMethod
	paymentIntentID string

	scheduledAt time.Time
	confirmedAt *time.Time
	cancelledAt *time.Time
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewPrimaryBooking creates the booking a customer pays for, with status pending.
func NewPrimaryBooking(customerID uuid.UUID, req BookingRequest, scheduledAt time.Time) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if req.ServiceID() == uuid.Nil {
		return nil, missing(ReasonMissingService)
	}
	if req.VehicleID() == uuid.Nil {
		return nil, missing(ReasonMissingVehicle)
	}
	if req.Address() == "" {
		return nil, missing(ReasonMissingAddress)
	}
	if !req.Slot().IsValid() {
		return nil, missing(ReasonMissingSlot)
	}
	if req.Price() < 0 {
		return nil, domain.NewValidationError("price cannot be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		customerID:    customerID,
		serviceID:     req.ServiceID(),
		vehicleID:     req.VehicleID(),
		address:       req.Address(),
		timeSlot:      req.Slot(),
		status:        StatusPending,
		recurring:     req.Cadence().IsRecurring(),
		cadence:       req.Cadence(),
		price:         req.Price(),
		currency:      domain.CurrencyEUR,
		paymentMethod: req.PaymentMethod(),
		scheduledAt:   scheduledAt.UTC(),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// NewRecurrenceChild derives a planned future booking from a recurring primary.
// It copies everything but the schedule, and carries the primary's discounted price.
func NewRecurrenceChild(primary *Booking, scheduledAt time.Time) (*Booking, error) {
	if !primary.IsPrimary() {
		return nil, domain.NewValidationError("recurrence children must derive from a primary booking")
	}
	if !primary.recurring {
		return nil, domain.NewValidationError("primary booking is not recurring")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	parentID := primary.id
	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		customerID:    primary.customerID,
		serviceID:     primary.serviceID,
		vehicleID:     primary.vehicleID,
		address:       primary.address,
		timeSlot:      primary.timeSlot,
		status:        StatusPlanned,
		recurring:     true,
		cadence:       primary.cadence,
		parentID:      &parentID,
		price:         primary.price,
		currency:      primary.currency,
		paymentMethod: primary.paymentMethod,
		scheduledAt:   scheduledAt.UTC(),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	customerID uuid.UUID,
	serviceID uuid.UUID,
	vehicleID uuid.UUID,
	address string,
	timeSlot TimeSlot,
	status BookingStatus,
	recurring bool,
	cadence Cadence,
	parentID *uuid.UUID,
	price int64,
	currency string,
	paymentMethod PaymentMethod,
	paymentIntentID string,
	scheduledAt time.Time,
	confirmedAt *time.Time,
	cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		customerID:      customerID,
		serviceID:       serviceID,
		vehicleID:       vehicleID,
		address:         address,
		timeSlot:        timeSlot,
		status:          status,
		recurring:       recurring,
		cadence:         cadence,
		parentID:        parentID,
		price:           price,
		currency:        currency,
		paymentMethod:   paymentMethod,
		paymentIntentID: paymentIntentID,
		scheduledAt:     scheduledAt,
		confirmedAt:     confirmedAt,
		cancelledAt:     cancelledAt,
		cancelNote:      cancelNote,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) BookingNumber() string        { return b.bookingNumber }
func (b *Booking) CustomerID() uuid.UUID        { return b.customerID }
func (b *Booking) ServiceID() uuid.UUID         { return b.serviceID }
func (b *Booking) VehicleID() uuid.UUID         { return b.vehicleID }
func (b *Booking) Address() string              { return b.address }
func (b *Booking) TimeSlot() TimeSlot           { return b.timeSlot }
func (b *Booking) Status() BookingStatus        { return b.status }
func (b *Booking) Recurring() bool              { return b.recurring }
func (b *Booking) Cadence() Cadence             { return b.cadence }
func (b *Booking) ParentID() *uuid.UUID         { return b.parentID }
func (b *Booking) Price() int64                 { return b.price }
func (b *Booking) Currency() string             { return b.currency }
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }
func (b *Booking) PaymentIntentID() string      { return b.paymentIntentID }
func (b *Booking) ScheduledAt() time.Time       { return b.scheduledAt }
func (b *Booking) ConfirmedAt() *time.Time      { return b.confirmedAt }
func (b *Booking) CancelledAt() *time.Time      { return b.cancelledAt }
func (b *Booking) CancelNote() string           { return b.cancelNote }
func (b *Booking) Version() int64               { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// IsPrimary returns true for bookings created directly by the wizard.
func (b *Booking) IsPrimary() bool { return b.parentID == nil }

// IsOwnedBy checks if the booking belongs to the given customer.
func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool { return b.customerID == customerID }

// --- Behavior ---

// AttachPaymentIntent records the payment processor's intent for this booking.
func (b *Booking) AttachPaymentIntent(intentID string) error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), "payment")
	}
	if intentID == "" {
		return domain.NewValidationError("payment intent ID is required")
	}
	b.paymentIntentID = intentID
	b.updatedAt = time.Now().UTC()
	return nil
}

// Confirm transitions a pending or planned booking to confirmed.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Start transitions a confirmed booking to in_progress.
func (b *Booking) Start() error {
	if !b.status.CanTransitionTo(StatusInProgress) {
		return domain.NewInvalidStateError(string(b.status), string(StatusInProgress))
	}
	b.status = StatusInProgress
	b.updatedAt = time.Now().UTC()
	return nil
}

// Complete transitions an in-progress booking to completed.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
