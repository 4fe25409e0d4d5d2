package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// IntentStatus mirrors the processor's payment intent status.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

// Intent is a processor-side payment attempt for one booking.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	AmountCents  int64
	Currency     string
}

// IntentRequest describes the charge for a booking.
type IntentRequest struct {
	BookingID     uuid.UUID
	BookingNumber string
	CustomerID    uuid.UUID
	AmountCents   int64
	Currency      string
}

// StripeGateway creates and reads Stripe PaymentIntents.
type StripeGateway struct {
	intents *paymentintent.Client
	logger  *zap.Logger
}

// NewStripeGateway creates a gateway using the given secret key.
func NewStripeGateway(secretKey string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		intents: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		logger:  logger,
	}
}

// CreateIntent creates a PaymentIntent for the booking. Retries for the same
// booking reuse the processor's idempotency key.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Wash booking " + req.BookingNumber),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID.String())
	params.AddMetadata("customer_id", req.CustomerID.String())
	params.SetIdempotencyKey(fmt.Sprintf("booking-%s-%d", req.BookingID, req.AmountCents))

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	g.logger.Info("payment intent created",
		zap.String("booking_id", req.BookingID.String()),
		zap.String("payment_intent_id", pi.ID),
	)
	return toIntent(pi), nil
}

// GetIntent reads the current state of a PaymentIntent.
func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.intents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}
}
