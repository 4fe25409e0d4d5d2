package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/domain/catalog"
	"github.com/washline/service-booking/internal/payment"
	vehicleDomain "github.com/washline/service-booking/internal/domain/vehicle"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/metrics"
	"github.com/washline/service-booking/internal/session"
)

type bookingFixture struct {
	svc       *BookingService
	repo      *fakeBookingRepo
	vehicles  *fakeVehicleRepo
	sessions  *session.MemoryStore
	publisher *fakePublisher
	metrics   *metrics.BookingMetrics
	wash      catalog.Service
	retired   catalog.Service
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		repo:      newFakeBookingRepo(),
		vehicles:  newFakeVehicleRepo(),
		sessions:  session.NewMemoryStore(),
		publisher: &fakePublisher{},
		metrics:   metrics.NewBookingMetrics(prometheus.NewRegistry()),
		wash:      catalog.Service{ID: uuid.New(), Name: "Full wash", BasePrice: 59, Active: true},
		retired:   catalog.Service{ID: uuid.New(), Name: "Wax", BasePrice: 20, Active: false},
	}
	f.svc = NewBookingService(BookingServiceDeps{
		Repo:        f.repo,
		Sessions:    f.sessions,
		Services:    &fakeServiceRepo{services: []catalog.Service{f.wash, f.retired}},
		Vehicles:    f.vehicles,
		Pricing:     bookingDomain.NewRecurrencePricingStrategy(),
		Coordinator: NewCoordinator(f.repo, CoordinatorConfig{Location: time.UTC}),
		Publisher:   f.publisher,
		Metrics:     f.metrics,
		Location:    time.UTC,
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *bookingFixture) addVehicle(t *testing.T, customerID uuid.UUID) *vehicleDomain.Vehicle {
	t.Helper()
	v, err := vehicleDomain.NewVehicle(customerID, "Peugeot", "208", 2021, "blue", vehicleDomain.BodyHatchback, "ab-123-cd")
	require.NoError(t, err)
	require.NoError(t, f.vehicles.Save(context.Background(), v))
	return v
}

// toPayment walks a fresh session through steps 1 to 3.
func (f *bookingFixture) toPayment(t *testing.T, customerID uuid.UUID, cadence string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	s, err := f.svc.StartSession(ctx, customerID)
	require.NoError(t, err)
	_, err = f.svc.SelectService(ctx, customerID, s.ID, f.wash.ID)
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, customerID, s.ID)
	require.NoError(t, err)
	_, err = f.svc.SetAddress(ctx, customerID, s.ID, "12 avenue de la République, Paris")
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, customerID, s.ID)
	require.NoError(t, err)
	_, err = f.svc.SelectSlot(ctx, customerID, s.ID, "14:00", nil)
	require.NoError(t, err)
	_, err = f.svc.SelectCadence(ctx, customerID, s.ID, cadence)
	require.NoError(t, err)
	out, err := f.svc.Next(ctx, customerID, s.ID)
	require.NoError(t, err)
	require.Equal(t, string(bookingDomain.StepSelectingPayment), out.Step)
	return s.ID
}

func TestBookingService_StartSessionPreselectsDefaultVehicle(t *testing.T) {
	f := newBookingFixture(t)
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	second := f.addVehicle(t, customerID)
	require.NoError(t, f.vehicles.SetDefault(context.Background(), customerID, second.ID()))

	s, err := f.svc.StartSession(context.Background(), customerID)

	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StepSelectingService), s.Step)
	assert.Equal(t, 1, s.StepNumber)
	require.NotNil(t, s.Draft.VehicleID)
	assert.Equal(t, second.ID(), *s.Draft.VehicleID)
	assert.Equal(t, string(bookingDomain.CadenceNone), s.Draft.Cadence)
	assert.Equal(t, string(bookingDomain.PaymentCard), s.Draft.PaymentMethod)
}

func TestBookingService_FinalizeWeekly(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	sessionID := f.toPayment(t, customerID, "weekly")

	_, err := f.svc.SelectPaymentMethod(ctx, customerID, sessionID, "apple")
	require.NoError(t, err)

	result, err := f.svc.Finalize(ctx, customerID, sessionID)
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusPending), result.Booking.Status)
	assert.Equal(t, int64(53), result.Booking.Price)
	assert.Equal(t, "apple", result.Booking.PaymentMethod)
	assert.Equal(t, "14:00", result.Booking.TimeSlot)
	require.Len(t, result.Occurrences, 3)
	for i, occ := range result.Occurrences {
		assert.Equal(t, string(bookingDomain.StatusPlanned), occ.Status)
		require.NotNil(t, occ.ParentID)
		assert.Equal(t, result.Booking.ID, *occ.ParentID)
		assert.Equal(t, result.Booking.ScheduledAt.AddDate(0, 0, 7*(i+1)), occ.ScheduledAt)
	}
	assert.Equal(t, 4, f.repo.count())
	assert.Equal(t, []string{EventBookingCreated}, f.publisher.types())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.BookingsCommitted.WithLabelValues("true")))

	_, err = f.svc.GetSession(ctx, customerID, sessionID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestBookingService_FinalizeReplayCreatesNothing(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	sessionID := f.toPayment(t, customerID, "none")

	_, err := f.svc.Finalize(ctx, customerID, sessionID)
	require.NoError(t, err)
	_, err = f.svc.Finalize(ctx, customerID, sessionID)

	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.Equal(t, 1, f.repo.count())
}

func TestBookingService_FinalizeWhileLocked(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	sessionID := f.toPayment(t, customerID, "none")

	unlock, err := f.sessions.Lock(ctx, sessionID)
	require.NoError(t, err)
	defer unlock()

	_, err = f.svc.Finalize(ctx, customerID, sessionID)

	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.Equal(t, 0, f.repo.count())
}

func TestBookingService_EditsWaitForTheSessionLock(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	sessionID := f.toPayment(t, customerID, "none")

	unlock, err := f.sessions.Lock(ctx, sessionID)
	require.NoError(t, err)

	_, err = f.svc.Back(ctx, customerID, sessionID)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	_, err = f.svc.Next(ctx, customerID, sessionID)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	_, err = f.svc.SelectPaymentMethod(ctx, customerID, sessionID, "google")
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.True(t, domain.IsKind(f.svc.ExitSession(ctx, customerID, sessionID), domain.KindConflict))

	unlock()
	s, err := f.svc.Back(ctx, customerID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StepSelectingSlot), s.Step)
}

func TestBookingService_StaleWizardCannotReviveFinalizedSession(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	sessionID := f.toPayment(t, customerID, "weekly")

	stale, err := f.sessions.Get(ctx, sessionID)
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, customerID, sessionID)
	require.NoError(t, err)

	_, err = stale.Back()
	require.NoError(t, err)
	err = f.sessions.Save(ctx, stale)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = f.svc.Next(ctx, customerID, sessionID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = f.svc.Finalize(ctx, customerID, sessionID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.Equal(t, 4, f.repo.count())
}

func TestBookingService_FinalizeKeepsPrimaryWhenChildrenFail(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	sessionID := f.toPayment(t, customerID, "monthly")
	f.repo.failBatch = true

	result, err := f.svc.Finalize(ctx, customerID, sessionID)

	require.NoError(t, err)
	assert.Empty(t, result.Occurrences)
	assert.Equal(t, 1, f.repo.count())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RecurrenceChildFailure))
}

func TestBookingService_FinalizePrimaryFailureKeepsSession(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	sessionID := f.toPayment(t, customerID, "none")
	f.repo.failSave = true

	_, err := f.svc.Finalize(ctx, customerID, sessionID)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, f.publisher.types())
	_, err = f.svc.GetSession(ctx, customerID, sessionID)
	assert.NoError(t, err)
}

func TestBookingService_NextRedirectsWithoutVehicles(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()

	s, err := f.svc.StartSession(ctx, customerID)
	require.NoError(t, err)
	_, err = f.svc.SelectService(ctx, customerID, s.ID, f.wash.ID)
	require.NoError(t, err)

	out, err := f.svc.Next(ctx, customerID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.RedirectVehicleCreation), out.Redirect)
	assert.Equal(t, string(bookingDomain.StepSelectingService), out.Step)

	v := f.addVehicle(t, customerID)
	out, err = f.svc.Next(ctx, customerID, s.ID)
	require.NoError(t, err)
	assert.Empty(t, out.Redirect)
	assert.Equal(t, string(bookingDomain.StepSelectingAddress), out.Step)
	require.NotNil(t, out.Draft.VehicleID)
	assert.Equal(t, v.ID(), *out.Draft.VehicleID)
}

func TestBookingService_NextRequiresFields(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)

	s, err := f.svc.StartSession(ctx, customerID)
	require.NoError(t, err)

	_, err = f.svc.Next(ctx, customerID, s.ID)

	var verr *bookingDomain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, bookingDomain.ReasonMissingService, verr.Reason)
}

func TestBookingService_SelectServiceRejectsInactive(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()

	s, err := f.svc.StartSession(ctx, customerID)
	require.NoError(t, err)

	_, err = f.svc.SelectService(ctx, customerID, s.ID, f.retired.ID)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestBookingService_SelectVehicleOfAnotherCustomer(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	other := f.addVehicle(t, uuid.New())

	s, err := f.svc.StartSession(ctx, customerID)
	require.NoError(t, err)

	_, err = f.svc.SelectVehicle(ctx, customerID, s.ID, other.ID())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestBookingService_SelectSlotRejectsPast(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)

	s, err := f.svc.StartSession(ctx, customerID)
	require.NoError(t, err)
	_, err = f.svc.SelectService(ctx, customerID, s.ID, f.wash.ID)
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, customerID, s.ID)
	require.NoError(t, err)
	_, err = f.svc.SetAddress(ctx, customerID, s.ID, "1 rue de Rivoli")
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, customerID, s.ID)
	require.NoError(t, err)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	_, err = f.svc.SelectSlot(ctx, customerID, s.ID, "10:00", &yesterday)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	out, err := f.svc.SelectSlot(ctx, customerID, s.ID, "08h00", &tomorrow)
	require.NoError(t, err)
	assert.Equal(t, "08:00", out.Draft.Slot)
}

func TestBookingService_BackFromFirstStepExits(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()

	s, err := f.svc.StartSession(ctx, customerID)
	require.NoError(t, err)

	out, err := f.svc.Back(ctx, customerID, s.ID)
	require.NoError(t, err)
	assert.True(t, out.Exited)

	_, err = f.svc.GetSession(ctx, customerID, s.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestBookingService_SessionOfAnotherCustomer(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	s, err := f.svc.StartSession(ctx, uuid.New())
	require.NoError(t, err)

	_, err = f.svc.GetSession(ctx, uuid.New(), s.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}

func TestBookingService_BookingsAndOccurrences(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	result, err := f.svc.Finalize(ctx, customerID, f.toPayment(t, customerID, "biweekly"))
	require.NoError(t, err)

	page, err := f.svc.GetCustomerBookings(ctx, customerID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)

	occ, err := f.svc.GetOccurrences(ctx, customerID, result.Booking.ID)
	require.NoError(t, err)
	assert.Len(t, occ, 3)

	_, err = f.svc.GetOccurrences(ctx, customerID, occ[0].ID)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = f.svc.GetBooking(ctx, uuid.New(), result.Booking.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	result, err := f.svc.Finalize(ctx, customerID, f.toPayment(t, customerID, "none"))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelBooking(ctx, customerID, result.Booking.ID, "changed plans")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCancelled), cancelled.Status)
	assert.Equal(t, "changed plans", cancelled.CancelNote)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = f.svc.CancelBooking(ctx, customerID, result.Booking.ID, "again")
	assert.True(t, domain.IsKind(err, domain.KindInvalidState))
	assert.Equal(t, []string{EventBookingCreated, EventBookingCancelled}, f.publisher.types())
}

func TestBookingService_CancelStalePending(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	weekly, err := f.svc.Finalize(ctx, customerID, f.toPayment(t, customerID, "weekly"))
	require.NoError(t, err)
	oneOff, err := f.svc.Finalize(ctx, customerID, f.toPayment(t, customerID, "none"))
	require.NoError(t, err)

	none, err := f.svc.CancelStalePending(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Zero(t, none)

	n, err := f.svc.CancelStalePending(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []uuid.UUID{weekly.Booking.ID, oneOff.Booking.ID} {
		bk, err := f.repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, bookingDomain.StatusCancelled, bk.Status())
		assert.Equal(t, StalePendingNote, bk.CancelNote())
	}
	children, err := f.repo.FindChildren(ctx, weekly.Booking.ID)
	require.NoError(t, err)
	for _, child := range children {
		assert.Equal(t, bookingDomain.StatusPlanned, child.Status())
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.PendingSwept))
}

func TestBookingService_CancelStalePendingKeepsPaidBookings(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)

	gateway := &fakeGateway{
		status: payment.IntentRequiresPaymentMethod,
		statuses: map[string]payment.IntentStatus{
			"pi_paid":       payment.IntentSucceeded,
			"pi_processing": payment.IntentProcessing,
		},
	}
	f.svc.payments = NewPaymentService(f.repo, gateway, "eur", f.publisher, f.metrics, zap.NewNop())

	finalizeWithIntent := func(intentID string) uuid.UUID {
		result, err := f.svc.Finalize(ctx, customerID, f.toPayment(t, customerID, "none"))
		require.NoError(t, err)
		if intentID != "" {
			bk, err := f.repo.FindByID(ctx, result.Booking.ID)
			require.NoError(t, err)
			require.NoError(t, bk.AttachPaymentIntent(intentID))
			bk.IncrementVersion()
			require.NoError(t, f.repo.Update(ctx, bk))
		}
		return result.Booking.ID
	}
	paid := finalizeWithIntent("pi_paid")
	processing := finalizeWithIntent("pi_processing")
	abandoned := finalizeWithIntent("pi_abandoned")
	noIntent := finalizeWithIntent("")

	n, err := f.svc.CancelStalePending(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := map[uuid.UUID]bookingDomain.BookingStatus{
		paid:       bookingDomain.StatusConfirmed,
		processing: bookingDomain.StatusPending,
		abandoned:  bookingDomain.StatusCancelled,
		noIntent:   bookingDomain.StatusCancelled,
	}
	for id, status := range want {
		bk, err := f.repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, bk.Status(), id.String())
	}
	assert.Contains(t, f.publisher.types(), EventBookingConfirmed)
}

func TestBookingService_CancelStalePendingSkipsWhenProcessorUnreachable(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	f.svc.payments = NewPaymentService(f.repo, &fakeGateway{getErr: errors.New("stripe down")}, "eur", f.publisher, f.metrics, zap.NewNop())

	result, err := f.svc.Finalize(ctx, customerID, f.toPayment(t, customerID, "none"))
	require.NoError(t, err)
	bk, err := f.repo.FindByID(ctx, result.Booking.ID)
	require.NoError(t, err)
	require.NoError(t, bk.AttachPaymentIntent("pi_unknown"))
	bk.IncrementVersion()
	require.NoError(t, f.repo.Update(ctx, bk))

	n, err := f.svc.CancelStalePending(ctx, time.Now().Add(time.Minute), 10)

	require.NoError(t, err)
	assert.Zero(t, n)
	bk, err = f.repo.FindByID(ctx, result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusPending, bk.Status())
}

func TestBookingService_Stats(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.addVehicle(t, customerID)
	_, err := f.svc.Finalize(ctx, customerID, f.toPayment(t, customerID, "weekly"))
	require.NoError(t, err)

	stats, err := f.svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["pending"])
	assert.Equal(t, int64(3), stats.ByStatus["planned"])

	all, total, err := f.svc.ListAllBookings(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 2)
}
