package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/domain/catalog"
	vehicleDomain "github.com/washline/service-booking/internal/domain/vehicle"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/metrics"
)

// BookingService is the application service orchestrating the booking wizard
// and the customer's bookings.
type BookingService struct {
	repo        bookingDomain.BookingRepository
	sessions    bookingDomain.SessionRepository
	services    catalog.ServiceRepository
	vehicles    vehicleDomain.VehicleRepository
	pricing     bookingDomain.PricingStrategy
	coordinator *Coordinator
	publisher   EventPublisher
	payments    PaymentReconciler
	metrics     *metrics.BookingMetrics
	loc         *time.Location
	now         func() time.Time
	logger      *zap.Logger
}

// PaymentReconciler settles a pending booking against the payment processor.
// *PaymentService implements it.
type PaymentReconciler interface {
	ReconcilePending(ctx context.Context, bk *bookingDomain.Booking) (keep bool, err error)
}

// BookingServiceDeps groups the collaborators of a BookingService.
type BookingServiceDeps struct {
	Repo        bookingDomain.BookingRepository
	Sessions    bookingDomain.SessionRepository
	Services    catalog.ServiceRepository
	Vehicles    vehicleDomain.VehicleRepository
	Pricing     bookingDomain.PricingStrategy
	Coordinator *Coordinator
	Publisher   EventPublisher
	Payments    PaymentReconciler
	Metrics     *metrics.BookingMetrics
	Location    *time.Location
	Logger      *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(deps BookingServiceDeps) *BookingService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		repo:        deps.Repo,
		sessions:    deps.Sessions,
		services:    deps.Services,
		vehicles:    deps.Vehicles,
		pricing:     deps.Pricing,
		coordinator: deps.Coordinator,
		publisher:   deps.Publisher,
		payments:    deps.Payments,
		metrics:     deps.Metrics,
		loc:         loc,
		now:         time.Now,
		logger:      deps.Logger,
	}
}

// --- Wizard sessions ---

// StartSession opens a new wizard for the customer, preselecting their
// default (or first) vehicle.
func (s *BookingService) StartSession(ctx context.Context, customerID uuid.UUID) (*SessionDTO, error) {
	count, preselected, err := s.vehicleSummary(ctx, customerID)
	if err != nil {
		return nil, err
	}

	w := bookingDomain.NewWizard(customerID, count, preselected)
	if err := s.sessions.Create(ctx, w); err != nil {
		return nil, err
	}

	s.logger.Debug("booking session started",
		zap.String("session_id", w.ID().String()),
		zap.String("customer_id", customerID.String()),
	)
	return toSessionDTO(w, bookingDomain.Outcome{Step: w.Step()}, s.pricing), nil
}

// GetSession returns the current state of a wizard.
func (s *BookingService) GetSession(ctx context.Context, customerID, sessionID uuid.UUID) (*SessionDTO, error) {
	w, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionDTO(w, bookingDomain.Outcome{Step: w.Step()}, s.pricing), nil
}

// ExitSession discards a wizard and its draft.
func (s *BookingService) ExitSession(ctx context.Context, customerID, sessionID uuid.UUID) error {
	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.loadSession(ctx, customerID, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// SelectService sets the wizard's service from the active catalog.
func (s *BookingService) SelectService(ctx context.Context, customerID, sessionID, serviceID uuid.UUID) (*SessionDTO, error) {
	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, domain.NewValidationError("service is not available")
	}
	return s.editSession(ctx, customerID, sessionID, func(w *bookingDomain.Wizard) error {
		return w.SelectService(*svc)
	})
}

// SelectVehicle sets the wizard's vehicle. It must belong to the customer.
func (s *BookingService) SelectVehicle(ctx context.Context, customerID, sessionID, vehicleID uuid.UUID) (*SessionDTO, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.IsOwnedBy(customerID) {
		return nil, domain.NewNotFoundError("Vehicle", vehicleID.String())
	}
	return s.editSession(ctx, customerID, sessionID, func(w *bookingDomain.Wizard) error {
		return w.SelectVehicle(v.ID())
	})
}

// SetAddress sets the wizard's service address.
func (s *BookingService) SetAddress(ctx context.Context, customerID, sessionID uuid.UUID, address string) (*SessionDTO, error) {
	return s.editSession(ctx, customerID, sessionID, func(w *bookingDomain.Wizard) error {
		return w.SetAddress(address)
	})
}

// SelectSlot sets the wizard's time slot and optional service date. A slot
// that has already started is rejected.
func (s *BookingService) SelectSlot(ctx context.Context, customerID, sessionID uuid.UUID, slot string, date *time.Time) (*SessionDTO, error) {
	ts, err := bookingDomain.ParseTimeSlot(slot)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	now := s.now()
	if date != nil && !bookingDomain.ScheduleFor(ts, date, now, s.loc).After(now) {
		return nil, domain.NewValidationError("time slot is in the past")
	}
	return s.editSession(ctx, customerID, sessionID, func(w *bookingDomain.Wizard) error {
		return w.SelectSlot(ts, date)
	})
}

// SelectCadence sets the wizard's recurrence cadence.
func (s *BookingService) SelectCadence(ctx context.Context, customerID, sessionID uuid.UUID, cadence string) (*SessionDTO, error) {
	c, err := bookingDomain.ParseCadence(cadence)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return s.editSession(ctx, customerID, sessionID, func(w *bookingDomain.Wizard) error {
		return w.SelectCadence(c)
	})
}

// SelectPaymentMethod sets the wizard's payment method.
func (s *BookingService) SelectPaymentMethod(ctx context.Context, customerID, sessionID uuid.UUID, method string) (*SessionDTO, error) {
	m, err := bookingDomain.ParsePaymentMethod(method)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return s.editSession(ctx, customerID, sessionID, func(w *bookingDomain.Wizard) error {
		return w.SelectPaymentMethod(m)
	})
}

// Next advances the wizard. On step 1 the customer's vehicles are recounted
// first, so a customer returning from vehicle creation can proceed.
func (s *BookingService) Next(ctx context.Context, customerID, sessionID uuid.UUID) (*SessionDTO, error) {
	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}

	if w.Step() == bookingDomain.StepSelectingService {
		count, preselected, err := s.vehicleSummary(ctx, customerID)
		if err != nil {
			return nil, err
		}
		w.SetVehicleCount(count, preselected)
	}

	out, err := w.Next()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, w); err != nil {
		return nil, err
	}
	return toSessionDTO(w, out, s.pricing), nil
}

// Back moves the wizard one step back. Going back from step 1 exits the flow
// and deletes the session.
func (s *BookingService) Back(ctx context.Context, customerID, sessionID uuid.UUID) (*SessionDTO, error) {
	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}

	out, err := w.Back()
	if err != nil {
		return nil, err
	}
	if out.Exited {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
	} else if err := s.sessions.Save(ctx, w); err != nil {
		return nil, err
	}
	return toSessionDTO(w, out, s.pricing), nil
}

// Finalize commits the wizard's draft as bookings. The session is locked for
// the duration of the commit and deleted once it succeeds, so a repeated
// finalize or a concurrent edit either conflicts or finds no session.
func (s *BookingService) Finalize(ctx context.Context, customerID, sessionID uuid.UUID) (*FinalizeResultDTO, error) {
	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}

	req, err := w.Finalize(s.pricing)
	if err != nil {
		return nil, err
	}

	result, err := s.coordinator.Commit(ctx, req, customerID)
	if err != nil {
		s.logger.Error("booking commit failed",
			zap.String("session_id", sessionID.String()),
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	primary := result.Primary
	if result.ChildrenErr != nil {
		s.logger.Error("recurrence children not saved",
			zap.String("booking_id", primary.ID().String()),
			zap.String("cadence", string(primary.Cadence())),
			zap.Error(result.ChildrenErr),
		)
		if s.metrics != nil {
			s.metrics.RecurrenceChildFailure.Inc()
		}
	}
	if s.metrics != nil {
		s.metrics.BookingsCommitted.WithLabelValues(strconv.FormatBool(primary.Recurring())).Inc()
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to delete finalized booking session",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", primary.ID().String()),
		zap.String("booking_number", primary.BookingNumber()),
		zap.String("customer_id", customerID.String()),
		zap.Int64("price", primary.Price()),
		zap.Int("occurrences", len(result.Children)),
	)

	evt := BookingCreatedEvent{
		BookingID:     primary.ID(),
		BookingNumber: primary.BookingNumber(),
		CustomerID:    customerID,
		ServiceID:     primary.ServiceID(),
		Price:         primary.Price(),
		Currency:      primary.Currency(),
		Cadence:       string(primary.Cadence()),
		Occurrences:   len(result.Children),
		ScheduledAt:   primary.ScheduledAt(),
		OccurredAt:    time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, TopicBookingEvents, EventBookingCreated, primary.ID().String(), evt)

	return &FinalizeResultDTO{
		Booking:     toBookingDTO(primary),
		Occurrences: toBookingDTOs(result.Children),
	}, nil
}

// --- Bookings ---

// GetBooking returns one of the customer's bookings.
func (s *BookingService) GetBooking(ctx context.Context, customerID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.loadOwnedBooking(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetCustomerBookings returns a paginated list of the customer's bookings.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetOccurrences returns the recurrence children of one of the customer's
// primary bookings.
func (s *BookingService) GetOccurrences(ctx context.Context, customerID, bookingID uuid.UUID) ([]BookingDTO, error) {
	bk, err := s.loadOwnedBooking(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsPrimary() {
		return nil, domain.NewValidationError("occurrences are listed on the primary booking")
	}
	children, err := s.repo.FindChildren(ctx, bk.ID())
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(children), nil
}

// CancelBooking cancels one of the customer's bookings.
func (s *BookingService) CancelBooking(ctx context.Context, customerID, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.loadOwnedBooking(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, bk, reason); err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// CancelStalePending cancels pending primaries created before the cutoff and
// returns how many were cancelled. It backs the sweep job. Bookings whose
// payment the processor reports as succeeded or processing are not cancelled.
func (s *BookingService) CancelStalePending(ctx context.Context, createdBefore time.Time, batchSize int) (int, error) {
	stale, err := s.repo.FindStalePending(ctx, createdBefore, batchSize)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, bk := range stale {
		if s.payments != nil {
			keep, err := s.payments.ReconcilePending(ctx, bk)
			if err != nil {
				s.logger.Warn("could not check payment of stale pending booking",
					zap.String("booking_id", bk.ID().String()),
					zap.Error(err),
				)
				continue
			}
			if keep {
				s.logger.Info("stale pending booking has a payment, not cancelled",
					zap.String("booking_id", bk.ID().String()),
					zap.String("payment_intent_id", bk.PaymentIntentID()),
				)
				continue
			}
		}
		if err := s.cancel(ctx, bk, StalePendingNote); err != nil {
			s.logger.Warn("failed to cancel stale pending booking",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			continue
		}
		cancelled++
	}
	if s.metrics != nil {
		s.metrics.PendingSwept.Add(float64(cancelled))
	}
	return cancelled, nil
}

// StalePendingNote is the cancel note of bookings never paid for.
const StalePendingNote = "payment not completed"

func (s *BookingService) cancel(ctx context.Context, bk *bookingDomain.Booking, reason string) error {
	if err := bk.Cancel(reason); err != nil {
		return err
	}
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}

	evt := BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, TopicBookingEvents, EventBookingCancelled, bk.ID().String(), evt)
	return nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func (s *BookingService) loadSession(ctx context.Context, customerID, sessionID uuid.UUID) (*bookingDomain.Wizard, error) {
	w, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !w.IsOwnedBy(customerID) {
		return nil, domain.NewForbiddenError("booking session belongs to another customer")
	}
	return w, nil
}

func (s *BookingService) editSession(ctx context.Context, customerID, sessionID uuid.UUID, edit func(w *bookingDomain.Wizard) error) (*SessionDTO, error) {
	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := edit(w); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, w); err != nil {
		return nil, err
	}
	return toSessionDTO(w, bookingDomain.Outcome{Step: w.Step()}, s.pricing), nil
}

func (s *BookingService) loadOwnedBooking(ctx context.Context, customerID, bookingID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(customerID) {
		return nil, domain.NewForbiddenError("booking belongs to another customer")
	}
	return bk, nil
}

// vehicleSummary returns how many vehicles the customer has and which one to
// preselect: the default, else the first.
func (s *BookingService) vehicleSummary(ctx context.Context, customerID uuid.UUID) (int, *uuid.UUID, error) {
	vehicles, err := s.vehicles.FindByCustomerID(ctx, customerID)
	if err != nil {
		return 0, nil, err
	}
	if len(vehicles) == 0 {
		return 0, nil, nil
	}
	pick := vehicles[0]
	for _, v := range vehicles {
		if v.IsDefault() {
			pick = v
			break
		}
	}
	id := pick.ID()
	return len(vehicles), &id, nil
}
