package booking

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// ComputePrice returns the price in whole currency units for a service
	// with the given base price booked at the given cadence.
	ComputePrice(basePrice int64, cadence Cadence) int64
}

// Recurring bookings are charged 90% of the base price.
const (
	recurrenceDiscountNumerator   = 9
	recurrenceDiscountDenominator = 10
)

// RecurrencePricingStrategy applies a flat discount to recurring bookings.
type RecurrencePricingStrategy struct{}

// NewRecurrencePricingStrategy creates a new RecurrencePricingStrategy.
func NewRecurrencePricingStrategy() *RecurrencePricingStrategy {
	return &RecurrencePricingStrategy{}
}

// ComputePrice returns basePrice for one-off bookings and round(basePrice*0.9),
// halves rounded up, for recurring ones. Negative base prices are treated as 0.
//
// The discount is computed in integers so that e.g. 35*0.9 = 31.5 rounds to 32
// without float error.
func (s *RecurrencePricingStrategy) ComputePrice(basePrice int64, cadence Cadence) int64 {
	if basePrice <= 0 {
		return 0
	}
	if !cadence.IsRecurring() {
		return basePrice
	}
	return (basePrice*recurrenceDiscountNumerator + recurrenceDiscountDenominator/2) / recurrenceDiscountDenominator
}
