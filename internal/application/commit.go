package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
)

// PersistenceErrorKind classifies a failed booking write.
type PersistenceErrorKind string

// WriteFailed means the primary booking (or, in strict mode, the whole
// series) was not stored.
const WriteFailed PersistenceErrorKind = "write_failed"

// PersistenceError reports that a booking could not be stored.
type PersistenceError struct {
	Kind PersistenceErrorKind
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("booking persistence failed (%s): %v", e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CommitResult is what a commit stored. ChildrenErr is set when the primary
// was written but its recurrence children were not.
type CommitResult struct {
	Primary     *bookingDomain.Booking
	Children    []*bookingDomain.Booking
	ChildrenErr error
}

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	// Location is the time zone slots are expressed in.
	Location *time.Location
	// Strict writes the primary and its children in one transaction.
	Strict bool
	// ChildCount is the number of recurrence children per recurring primary.
	ChildCount int
}

// Coordinator turns a finalized BookingRequest into stored booking records.
type Coordinator struct {
	repo       bookingDomain.BookingRepository
	loc        *time.Location
	strict     bool
	childCount int
	now        func() time.Time
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(repo bookingDomain.BookingRepository, cfg CoordinatorConfig) *Coordinator {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	count := cfg.ChildCount
	if count <= 0 {
		count = bookingDomain.DefaultRecurrenceCount
	}
	return &Coordinator{
		repo:       repo,
		loc:        loc,
		strict:     cfg.Strict,
		childCount: count,
		now:        time.Now,
	}
}

// Commit stores the primary booking, then its recurrence children in one
// batch. A failed primary write fails the commit and nothing else is written.
// A failed child write does not: the primary stands and the failure is
// returned in CommitResult.ChildrenErr. In strict mode both writes share a
// transaction and any failure fails the commit.
func (c *Coordinator) Commit(ctx context.Context, req bookingDomain.BookingRequest, customerID uuid.UUID) (*CommitResult, error) {
	scheduledAt := bookingDomain.ScheduleFor(req.Slot(), req.ServiceDate(), c.now(), c.loc)

	primary, err := bookingDomain.NewPrimaryBooking(customerID, req, scheduledAt)
	if err != nil {
		return nil, err
	}
	children, err := c.buildChildren(primary)
	if err != nil {
		return nil, err
	}

	if c.strict {
		err := c.repo.WithinTransaction(ctx, func(repo bookingDomain.BookingRepository) error {
			if err := repo.Save(ctx, primary); err != nil {
				return err
			}
			return repo.SaveBatch(ctx, children)
		})
		if err != nil {
			return nil, &PersistenceError{Kind: WriteFailed, Err: err}
		}
		return &CommitResult{Primary: primary, Children: children}, nil
	}

	if err := c.repo.Save(ctx, primary); err != nil {
		return nil, &PersistenceError{Kind: WriteFailed, Err: err}
	}

	result := &CommitResult{Primary: primary}
	if len(children) == 0 {
		return result, nil
	}
	if err := c.repo.SaveBatch(ctx, children); err != nil {
		result.ChildrenErr = fmt.Errorf("failed to save %d recurrence children: %w", len(children), err)
		return result, nil
	}
	result.Children = children
	return result, nil
}

func (c *Coordinator) buildChildren(primary *bookingDomain.Booking) ([]*bookingDomain.Booking, error) {
	if !primary.Recurring() {
		return nil, nil
	}
	children := make([]*bookingDomain.Booking, 0, c.childCount)
	anchor := primary.ScheduledAt().In(c.loc)
	for at := range bookingDomain.Expand(anchor, primary.Cadence(), c.childCount) {
		child, err := bookingDomain.NewRecurrenceChild(primary, at)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}
