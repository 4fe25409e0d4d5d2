package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByPaymentIntentID retrieves the booking a payment intent was created for.
	FindByPaymentIntentID(ctx context.Context, intentID string) (*Booking, error)

	// FindByCustomerID retrieves a customer's bookings, newest first, with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindChildren retrieves the recurrence children of a primary, by schedule.
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]*Booking, error)

	// FindStalePending retrieves pending primaries created before the cutoff.
	FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// SaveBatch persists several new bookings in one write.
	SaveBatch(ctx context.Context, bookings []*Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// WithinTransaction runs fn against a repository bound to one transaction.
	WithinTransaction(ctx context.Context, fn func(repo BookingRepository) error) error
}

// SessionRepository stores in-progress wizards between requests.
type SessionRepository interface {
	// Get loads a wizard; a missing or expired session is a not-found error.
	Get(ctx context.Context, id uuid.UUID) (*Wizard, error)

	// Create stores a new wizard.
	Create(ctx context.Context, w *Wizard) error

	// Save overwrites an existing wizard and refreshes its expiry. A session
	// that was deleted or has expired is a not-found error and stays gone.
	Save(ctx context.Context, w *Wizard) error

	// Delete removes the wizard. Deleting a missing session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Lock acquires the exclusive lock of a session, held by every request
	// that changes it. A lock already held by another request is a conflict error.
	Lock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}
