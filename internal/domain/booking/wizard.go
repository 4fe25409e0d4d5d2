package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/domain/catalog"
)

// Step is a state of the booking wizard.
type Step string

const (
	StepSelectingService Step = "selecting_service"
	StepSelectingAddress Step = "selecting_address"
	StepSelectingSlot    Step = "selecting_slot"
	StepSelectingPayment Step = "selecting_payment"
	StepFinalized        Step = "finalized"
)

// forward is the only transition out of each step via Next. Payment has none:
// leaving it requires an explicit Finalize.
var forward = map[Step]Step{
	StepSelectingService: StepSelectingAddress,
	StepSelectingAddress: StepSelectingSlot,
	StepSelectingSlot:    StepSelectingPayment,
}

var backward = map[Step]Step{
	StepSelectingAddress: StepSelectingService,
	StepSelectingSlot:    StepSelectingAddress,
	StepSelectingPayment: StepSelectingSlot,
}

// IsValid returns true if the step is recognized.
func (s Step) IsValid() bool {
	switch s {
	case StepSelectingService, StepSelectingAddress, StepSelectingSlot, StepSelectingPayment, StepFinalized:
		return true
	}
	return false
}

// Number returns the 1-based wizard step, 5 once finalized.
func (s Step) Number() int {
	switch s {
	case StepSelectingService:
		return 1
	case StepSelectingAddress:
		return 2
	case StepSelectingSlot:
		return 3
	case StepSelectingPayment:
		return 4
	case StepFinalized:
		return 5
	}
	return 0
}

// Redirect tells the caller to leave the wizard for another flow.
type Redirect string

const (
	RedirectNone            Redirect = ""
	RedirectVehicleCreation Redirect = "vehicle_creation"
)

// Outcome is the result of a navigation attempt.
type Outcome struct {
	Step     Step     `json:"step"`
	Redirect Redirect `json:"redirect,omitempty"`
	Exited   bool     `json:"exited,omitempty"`
}

// Wizard is the four-step booking flow for one customer session.
type Wizard struct {
	id           uuid.UUID
	customerID   uuid.UUID
	step         Step
	draft        Draft
	vehicleCount int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewWizard starts a wizard at step 1. preselected is the customer's default
// (or first) vehicle, if any.
func NewWizard(customerID uuid.UUID, vehicleCount int, preselected *uuid.UUID) *Wizard {
	now := time.Now().UTC()
	draft := NewDraft()
	if preselected != nil && vehicleCount > 0 {
		id := *preselected
		draft.VehicleID = &id
	}
	return &Wizard{
		id:           uuid.New(),
		customerID:   customerID,
		step:         StepSelectingService,
		draft:        draft,
		vehicleCount: vehicleCount,
		createdAt:    now,
		updatedAt:    now,
	}
}

// WizardSnapshot is the serializable form of a Wizard.
type WizardSnapshot struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	Step         Step      `json:"step"`
	Draft        Draft     `json:"draft"`
	VehicleCount int       `json:"vehicle_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot captures the wizard state.
func (w *Wizard) Snapshot() WizardSnapshot {
	return WizardSnapshot{
		ID:           w.id,
		CustomerID:   w.customerID,
		Step:         w.step,
		Draft:        w.draft,
		VehicleCount: w.vehicleCount,
		CreatedAt:    w.createdAt,
		UpdatedAt:    w.updatedAt,
	}
}

// RestoreWizard rebuilds a Wizard from a snapshot (no validation).
func RestoreWizard(s WizardSnapshot) *Wizard {
	return &Wizard{
		id:           s.ID,
		customerID:   s.CustomerID,
		step:         s.Step,
		draft:        s.Draft,
		vehicleCount: s.VehicleCount,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}
}

// --- Getters ---

func (w *Wizard) ID() uuid.UUID         { return w.id }
func (w *Wizard) CustomerID() uuid.UUID { return w.customerID }
func (w *Wizard) Step() Step            { return w.step }
func (w *Wizard) Draft() Draft          { return w.draft }
func (w *Wizard) VehicleCount() int     { return w.vehicleCount }

// IsOwnedBy checks if the session belongs to the given customer.
func (w *Wizard) IsOwnedBy(customerID uuid.UUID) bool {
	return w.customerID == customerID
}

// --- Step 1 ---

// SelectService picks the catalog entry to book.
func (w *Wizard) SelectService(svc catalog.Service) error {
	if w.step != StepSelectingService {
		return wrongStep("selecting a service", w.step)
	}
	w.draft.Service = &svc
	w.touch()
	return nil
}

// SelectVehicle picks the vehicle to wash. Ownership is checked by the caller.
func (w *Wizard) SelectVehicle(vehicleID uuid.UUID) error {
	if w.step != StepSelectingService {
		return wrongStep("selecting a vehicle", w.step)
	}
	if vehicleID == uuid.Nil {
		return missing(ReasonMissingVehicle)
	}
	w.draft.VehicleID = &vehicleID
	w.touch()
	return nil
}

// SetVehicleCount refreshes how many vehicles the customer owns, e.g. after
// returning from vehicle creation.
func (w *Wizard) SetVehicleCount(n int, preselected *uuid.UUID) {
	w.vehicleCount = n
	if w.draft.VehicleID == nil && preselected != nil && n > 0 {
		id := *preselected
		w.draft.VehicleID = &id
	}
	w.touch()
}

// --- Step 2 ---

// SetAddress records the service address. Zone coverage is not checked.
func (w *Wizard) SetAddress(address string) error {
	if w.step != StepSelectingAddress {
		return wrongStep("setting the address", w.step)
	}
	w.draft.Address = strings.TrimSpace(address)
	w.touch()
	return nil
}

// --- Step 3 ---

// SelectSlot picks the start time and, optionally, the calendar day.
func (w *Wizard) SelectSlot(slot TimeSlot, date *time.Time) error {
	if w.step != StepSelectingSlot {
		return wrongStep("selecting a time slot", w.step)
	}
	if !slot.IsValid() {
		return missing(ReasonMissingSlot)
	}
	w.draft.Slot = &slot
	if date != nil {
		d := *date
		w.draft.ServiceDate = &d
	} else {
		w.draft.ServiceDate = nil
	}
	w.touch()
	return nil
}

// SelectCadence sets the recurrence cadence. It is optional and defaults to none.
func (w *Wizard) SelectCadence(c Cadence) error {
	if w.step != StepSelectingSlot {
		return wrongStep("selecting a recurrence", w.step)
	}
	if !c.IsValid() {
		return &ValidationError{Reason: ValidationReason("invalid_cadence")}
	}
	w.draft.Cadence = c
	w.touch()
	return nil
}

// --- Step 4 ---

// SelectPaymentMethod sets the payment method tag. It defaults to card.
func (w *Wizard) SelectPaymentMethod(m PaymentMethod) error {
	if w.step != StepSelectingPayment {
		return wrongStep("selecting a payment method", w.step)
	}
	if !m.IsValid() {
		return &ValidationError{Reason: ValidationReason("invalid_payment_method")}
	}
	w.draft.PaymentMethod = m
	w.touch()
	return nil
}

// --- Navigation ---

// Next validates the current step and advances one step. On step 1 a customer
// without vehicles is redirected to vehicle creation instead; the step does not change.
func (w *Wizard) Next() (Outcome, error) {
	switch w.step {
	case StepSelectingService:
		if w.vehicleCount == 0 {
			return Outcome{Step: w.step, Redirect: RedirectVehicleCreation}, nil
		}
		if w.draft.Service == nil {
			return Outcome{Step: w.step}, missing(ReasonMissingService)
		}
		if w.draft.VehicleID == nil {
			return Outcome{Step: w.step}, missing(ReasonMissingVehicle)
		}
	case StepSelectingAddress:
		if w.draft.Address == "" {
			return Outcome{Step: w.step}, missing(ReasonMissingAddress)
		}
	case StepSelectingSlot:
		if w.draft.Slot == nil {
			return Outcome{Step: w.step}, missing(ReasonMissingSlot)
		}
	}

	next, ok := forward[w.step]
	if !ok {
		return Outcome{Step: w.step}, wrongStep("advancing", w.step)
	}
	w.step = next
	w.touch()
	return Outcome{Step: w.step}, nil
}

// Back returns to the previous step. From step 1 it exits the flow and
// discards the draft.
func (w *Wizard) Back() (Outcome, error) {
	if w.step == StepSelectingService {
		w.draft = NewDraft()
		w.touch()
		return Outcome{Step: w.step, Exited: true}, nil
	}
	prev, ok := backward[w.step]
	if !ok {
		return Outcome{Step: w.step}, wrongStep("going back", w.step)
	}
	w.step = prev
	w.touch()
	return Outcome{Step: w.step}, nil
}

// Finalize turns the draft into a BookingRequest. It is only allowed from the
// payment step; afterwards the wizard accepts no further changes.
func (w *Wizard) Finalize(pricing PricingStrategy) (BookingRequest, error) {
	if w.step != StepSelectingPayment {
		return BookingRequest{}, wrongStep("finalizing", w.step)
	}
	req, err := Finalize(w.draft, pricing)
	if err != nil {
		return BookingRequest{}, err
	}
	w.step = StepFinalized
	w.touch()
	return req, nil
}

func (w *Wizard) touch() {
	w.updatedAt = time.Now().UTC()
}
