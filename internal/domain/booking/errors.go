package booking

import (
	"fmt"

	"github.com/washline/service-booking/internal/platform/domain"
)

// ValidationReason names the required wizard field that is missing.
type ValidationReason string

const (
	ReasonMissingService ValidationReason = "missing_service"
	ReasonMissingVehicle ValidationReason = "missing_vehicle"
	ReasonMissingAddress ValidationReason = "missing_address"
	ReasonMissingSlot    ValidationReason = "missing_slot"
)

var reasonMessages = map[ValidationReason]string{
	ReasonMissingService: "a service must be selected",
	ReasonMissingVehicle: "a vehicle must be selected",
	ReasonMissingAddress: "an address is required",
	ReasonMissingSlot:    "a time slot must be selected",
}

// ValidationError reports a required booking field that is absent.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	if msg, ok := reasonMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

// Unwrap exposes the error as a domain validation error.
func (e *ValidationError) Unwrap() error {
	return domain.NewValidationError(e.Error())
}

func missing(reason ValidationReason) error {
	return &ValidationError{Reason: reason}
}

// wrongStep reports an operation attempted from a step that does not allow it.
func wrongStep(op string, step Step) error {
	return &domain.Error{
		Kind:    domain.KindInvalidState,
		Message: fmt.Sprintf("%s is not allowed while %s", op, step),
	}
}
