package application

import (
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/domain/catalog"
)

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID  `json:"id"`
	BookingNumber   string     `json:"booking_number"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	VehicleID       uuid.UUID  `json:"vehicle_id"`
	Address         string     `json:"address"`
	TimeSlot        string     `json:"time_slot"`
	Status          string     `json:"status"`
	Recurring       bool       `json:"recurring"`
	Cadence         string     `json:"cadence"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty"`
	Price           int64      `json:"price"`
	Currency        string     `json:"currency"`
	PaymentMethod   string     `json:"payment_method"`
	PaymentIntentID string     `json:"payment_intent_id,omitempty"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelNote      string     `json:"cancel_note,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DraftDTO is the response representation of a wizard draft.
type DraftDTO struct {
	Service       *catalog.Service `json:"service,omitempty"`
	VehicleID     *uuid.UUID       `json:"vehicle_id,omitempty"`
	Address       string           `json:"address"`
	Slot          string           `json:"slot,omitempty"`
	ServiceDate   *time.Time       `json:"service_date,omitempty"`
	Cadence       string           `json:"cadence"`
	PaymentMethod string           `json:"payment_method"`
	// Price is the price the draft would be charged now, when a service is selected.
	Price *int64 `json:"price,omitempty"`
}

// SessionDTO is the response representation of a booking wizard session.
type SessionDTO struct {
	ID         uuid.UUID `json:"id"`
	Step       string    `json:"step"`
	StepNumber int       `json:"step_number"`
	Draft      DraftDTO  `json:"draft"`
	Redirect   string    `json:"redirect,omitempty"`
	Exited     bool      `json:"exited,omitempty"`
}

// FinalizeResultDTO is returned when a wizard session is committed.
type FinalizeResultDTO struct {
	Booking     BookingDTO   `json:"booking"`
	Occurrences []BookingDTO `json:"occurrences"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		CustomerID:      bk.CustomerID(),
		ServiceID:       bk.ServiceID(),
		VehicleID:       bk.VehicleID(),
		Address:         bk.Address(),
		TimeSlot:        string(bk.TimeSlot()),
		Status:          string(bk.Status()),
		Recurring:       bk.Recurring(),
		Cadence:         string(bk.Cadence()),
		ParentID:        bk.ParentID(),
		Price:           bk.Price(),
		Currency:        bk.Currency(),
		PaymentMethod:   string(bk.PaymentMethod()),
		PaymentIntentID: bk.PaymentIntentID(),
		ScheduledAt:     bk.ScheduledAt(),
		ConfirmedAt:     bk.ConfirmedAt(),
		CancelledAt:     bk.CancelledAt(),
		CancelNote:      bk.CancelNote(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toSessionDTO(w *bookingDomain.Wizard, out bookingDomain.Outcome, pricing bookingDomain.PricingStrategy) *SessionDTO {
	d := w.Draft()
	draft := DraftDTO{
		Service:       d.Service,
		VehicleID:     d.VehicleID,
		Address:       d.Address,
		ServiceDate:   d.ServiceDate,
		Cadence:       string(d.Cadence),
		PaymentMethod: string(d.PaymentMethod),
	}
	if d.Slot != nil {
		draft.Slot = string(*d.Slot)
	}
	if d.Service != nil {
		price := pricing.ComputePrice(d.Service.BasePrice, d.Cadence)
		draft.Price = &price
	}
	return &SessionDTO{
		ID:         w.ID(),
		Step:       string(w.Step()),
		StepNumber: w.Step().Number(),
		Draft:      draft,
		Redirect:   string(out.Redirect),
		Exited:     out.Exited,
	}
}
