package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/domain/catalog"
)

// Draft accumulates wizard selections before anything is persisted.
type Draft struct {
	Service       *catalog.Service `json:"service,omitempty"`
	VehicleID     *uuid.UUID       `json:"vehicle_id,omitempty"`
	Address       string           `json:"address"`
	Slot          *TimeSlot        `json:"slot,omitempty"`
	ServiceDate   *time.Time       `json:"service_date,omitempty"`
	Cadence       Cadence          `json:"cadence"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
}

// NewDraft returns an empty draft with cadence none and card payment preselected.
func NewDraft() Draft {
	return Draft{
		Cadence:       CadenceNone,
		PaymentMethod: DefaultPaymentMethod,
	}
}

// BookingRequest is the immutable result of a finalized draft.
type BookingRequest struct {
	serviceID     uuid.UUID
	serviceName   string
	basePrice     int64
	vehicleID     uuid.UUID
	address       string
	slot          TimeSlot
	serviceDate   *time.Time
	cadence       Cadence
	paymentMethod PaymentMethod
	price         int64
}

func (r BookingRequest) ServiceID() uuid.UUID         { return r.serviceID }
func (r BookingRequest) ServiceName() string          { return r.serviceName }
func (r BookingRequest) BasePrice() int64             { return r.basePrice }
func (r BookingRequest) VehicleID() uuid.UUID         { return r.vehicleID }
func (r BookingRequest) Address() string              { return r.address }
func (r BookingRequest) Slot() TimeSlot               { return r.slot }
func (r BookingRequest) Cadence() Cadence             { return r.cadence }
func (r BookingRequest) PaymentMethod() PaymentMethod { return r.paymentMethod }
func (r BookingRequest) Price() int64                 { return r.price }

// ServiceDate returns the chosen calendar day, or nil for the next available one.
func (r BookingRequest) ServiceDate() *time.Time {
	if r.serviceDate == nil {
		return nil
	}
	d := *r.serviceDate
	return &d
}

// Finalize checks that service, vehicle, address, and slot are present, in that
// order, and prices the request. It does not depend on the wizard step.
func Finalize(d Draft, pricing PricingStrategy) (BookingRequest, error) {
	if d.Service == nil {
		return BookingRequest{}, missing(ReasonMissingService)
	}
	if d.VehicleID == nil || *d.VehicleID == uuid.Nil {
		return BookingRequest{}, missing(ReasonMissingVehicle)
	}
	address := strings.TrimSpace(d.Address)
	if address == "" {
		return BookingRequest{}, missing(ReasonMissingAddress)
	}
	if d.Slot == nil {
		return BookingRequest{}, missing(ReasonMissingSlot)
	}

	cadence := d.Cadence
	if cadence == "" {
		cadence = CadenceNone
	}
	method := d.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}

	var date *time.Time
	if d.ServiceDate != nil {
		dd := *d.ServiceDate
		date = &dd
	}

	return BookingRequest{
		serviceID:     d.Service.ID,
		serviceName:   d.Service.Name,
		basePrice:     d.Service.BasePrice,
		vehicleID:     *d.VehicleID,
		address:       address,
		slot:          *d.Slot,
		serviceDate:   date,
		cadence:       cadence,
		paymentMethod: method,
		price:         pricing.ComputePrice(d.Service.BasePrice, cadence),
	}, nil
}
