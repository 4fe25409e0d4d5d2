package booking

import "fmt"

// PaymentMethod tags how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentApple  PaymentMethod = "apple"
	PaymentGoogle PaymentMethod = "google"
)

// DefaultPaymentMethod is preselected in the wizard.
const DefaultPaymentMethod = PaymentCard

// IsValid returns true if the payment method is recognized.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCard, PaymentApple, PaymentGoogle:
		return true
	}
	return false
}

// ParsePaymentMethod converts a string to a PaymentMethod. An empty string means card.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if s == "" {
		return DefaultPaymentMethod, nil
	}
	p := PaymentMethod(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid payment method: %s", s)
	}
	return p, nil
}
