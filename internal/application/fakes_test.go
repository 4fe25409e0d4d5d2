package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/domain/catalog"
	vehicleDomain "github.com/washline/service-booking/internal/domain/vehicle"
	"github.com/washline/service-booking/internal/payment"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/kafka"
)

var errWrite = errors.New("write failed")

// fakeBookingRepo is an in-memory BookingRepository.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*bookingDomain.Booking
	failSave  bool
	failBatch bool
	saveCalls int
	batchSize []int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.BookingNumber() == number {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *fakeBookingRepo) FindByPaymentIntentID(_ context.Context, intentID string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.PaymentIntentID() == intentID {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", intentID)
}

func (r *fakeBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(func(bk *bookingDomain.Booking) bool { return bk.CustomerID() == customerID })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeBookingRepo) FindChildren(_ context.Context, parentID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.filter(func(bk *bookingDomain.Booking) bool {
		return bk.ParentID() != nil && *bk.ParentID() == parentID
	}), nil
}

func (r *fakeBookingRepo) FindStalePending(_ context.Context, createdBefore time.Time, limit int) ([]*bookingDomain.Booking, error) {
	stale := r.filter(func(bk *bookingDomain.Booking) bool {
		return bk.IsPrimary() && bk.Status() == bookingDomain.StatusPending && bk.CreatedAt().Before(createdBefore)
	})
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(func(*bookingDomain.Booking) bool { return true })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.failSave {
		return errWrite
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) SaveBatch(_ context.Context, bookings []*bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchSize = append(r.batchSize, len(bookings))
	if r.failBatch {
		return errWrite
	}
	for _, bk := range bookings {
		r.bookings[bk.ID()] = bk
	}
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	r.bookings[bk.ID()] = bk
	return nil
}

// WithinTransaction stages writes in a scratch repository and applies them
// only when fn succeeds.
func (r *fakeBookingRepo) WithinTransaction(ctx context.Context, fn func(repo bookingDomain.BookingRepository) error) error {
	r.mu.Lock()
	tx := newFakeBookingRepo()
	tx.failSave = r.failSave
	tx.failBatch = r.failBatch
	r.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, bk := range tx.bookings {
		r.bookings[id] = bk
	}
	return nil
}

func (r *fakeBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *fakeBookingRepo) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if keep(bk) {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt().Before(out[j].ScheduledAt()) })
	return out
}

func paginate(all []*bookingDomain.Booking, page, limit int) []*bookingDomain.Booking {
	start := (page - 1) * limit
	if start >= len(all) {
		return nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// fakeServiceRepo is an in-memory catalog.
type fakeServiceRepo struct {
	services []catalog.Service
}

func (r *fakeServiceRepo) ListActive(_ context.Context) ([]catalog.Service, error) {
	var out []catalog.Service
	for _, s := range r.services {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	for i := range r.services {
		if r.services[i].ID == id {
			svc := r.services[i]
			return &svc, nil
		}
	}
	return nil, domain.NewNotFoundError("Service", id.String())
}

// fakeVehicleRepo is an in-memory VehicleRepository.
type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*vehicleDomain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.NewNotFoundError("Vehicle", id.String())
	}
	return v, nil
}

func (r *fakeVehicleRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID) ([]*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*vehicleDomain.Vehicle
	for _, v := range r.vehicles {
		if v.CustomerID() == customerID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault() != out[j].IsDefault() {
			return out[i].IsDefault()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

func (r *fakeVehicleRepo) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	vs, _ := r.FindByCustomerID(ctx, customerID)
	return int64(len(vs)), nil
}

func (r *fakeVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	return r.Save(ctx, v)
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.vehicles, id)
	return nil
}

func (r *fakeVehicleRepo) SetDefault(_ context.Context, customerID, vehicleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.vehicles[vehicleID]
	if !ok || target.CustomerID() != customerID {
		return domain.NewNotFoundError("Vehicle", vehicleID.String())
	}
	for id, v := range r.vehicles {
		if v.CustomerID() != customerID {
			continue
		}
		r.vehicles[id] = vehicleDomain.Reconstruct(v.ID(), v.CustomerID(), v.Brand(), v.Model(), v.Year(), v.Color(),
			v.BodyType(), v.Plate(), id == vehicleID, v.Version(), v.CreatedAt(), v.UpdatedAt())
	}
	return nil
}

func (r *fakeVehicleRepo) defaults(customerID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.vehicles {
		if v.CustomerID() == customerID && v.IsDefault() {
			n++
		}
	}
	return n
}

// fakeGateway is a scripted PaymentGateway.
type fakeGateway struct {
	createErr error
	getErr    error
	status    payment.IntentStatus
	statuses  map[string]payment.IntentStatus
	created   []payment.IntentRequest
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	return &payment.Intent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		Status:       payment.IntentRequiresPaymentMethod,
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
	}, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, intentID string) (*payment.Intent, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	if status, ok := g.statuses[intentID]; ok {
		return &payment.Intent{ID: intentID, Status: status}, nil
	}
	return &payment.Intent{ID: intentID, Status: g.status}, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, _, _ string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
