package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/payment"
	"github.com/washline/service-booking/internal/platform/domain"
	"github.com/washline/service-booking/internal/platform/metrics"
)

// PaymentOutcome is the result the payment sheet reports back.
type PaymentOutcome string

const (
	OutcomeSuccess   PaymentOutcome = "success"
	OutcomeCancelled PaymentOutcome = "cancelled"
	OutcomeError     PaymentOutcome = "error"
)

// ParsePaymentOutcome converts a string to a PaymentOutcome.
func ParsePaymentOutcome(s string) (PaymentOutcome, error) {
	switch o := PaymentOutcome(strings.ToLower(s)); o {
	case OutcomeSuccess, OutcomeCancelled, OutcomeError:
		return o, nil
	}
	return "", domain.NewValidationError(fmt.Sprintf("invalid payment outcome: %s", s))
}

// PaymentError reports a payment that failed or could not be verified. The
// booking it concerns is left pending.
type PaymentError struct {
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause, if any, and a domain payment error.
func (e *PaymentError) Unwrap() []error {
	errs := []error{domain.NewPaymentError(e.Message)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// PaymentGateway is the payment processor. *payment.StripeGateway implements it.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*payment.Intent, error)
}

// PaymentIntentDTO is what the client needs to present the payment sheet.
type PaymentIntentDTO struct {
	BookingID       uuid.UUID `json:"booking_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	ClientSecret    string    `json:"client_secret"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
}

// PaymentService hands primary bookings over to the payment processor and
// confirms them once paid.
type PaymentService struct {
	repo      bookingDomain.BookingRepository
	gateway   PaymentGateway
	currency  string
	publisher EventPublisher
	metrics   *metrics.BookingMetrics
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	repo bookingDomain.BookingRepository,
	gateway PaymentGateway,
	currency string,
	publisher EventPublisher,
	m *metrics.BookingMetrics,
	logger *zap.Logger,
) *PaymentService {
	if currency == "" {
		currency = "eur"
	}
	return &PaymentService{
		repo:      repo,
		gateway:   gateway,
		currency:  strings.ToLower(currency),
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// InitiatePayment creates a payment intent for a pending primary booking,
// charging its price in cents, and records the intent on the booking.
func (s *PaymentService) InitiatePayment(ctx context.Context, customerID, bookingID uuid.UUID) (*PaymentIntentDTO, error) {
	bk, err := s.loadOwned(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.Status() != bookingDomain.StatusPending {
		return nil, domain.NewInvalidStateError(string(bk.Status()), "payment")
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    customerID,
		AmountCents:   bk.Price() * 100,
		Currency:      s.currency,
	})
	if err != nil {
		s.countOutcome("intent_failed")
		return nil, &PaymentError{Message: "could not start payment", Err: err}
	}

	if err := bk.AttachPaymentIntent(intent.ID); err != nil {
		return nil, err
	}
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	return &PaymentIntentDTO{
		BookingID:       bk.ID(),
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     intent.AmountCents,
		Currency:        intent.Currency,
	}, nil
}

// CompletePayment applies the payment sheet's outcome. Success is verified
// with the processor and confirms the booking; cancelled changes nothing;
// error returns a PaymentError and leaves the booking pending.
func (s *PaymentService) CompletePayment(ctx context.Context, customerID, bookingID uuid.UUID, outcome PaymentOutcome) (*BookingDTO, error) {
	bk, err := s.loadOwned(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case OutcomeCancelled:
		s.countOutcome(string(OutcomeCancelled))
		result := toBookingDTO(bk)
		return &result, nil
	case OutcomeError:
		s.countOutcome(string(OutcomeError))
		s.logger.Warn("payment failed",
			zap.String("booking_id", bk.ID().String()),
			zap.String("customer_id", customerID.String()),
		)
		return nil, &PaymentError{Message: "payment failed"}
	case OutcomeSuccess:
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment outcome: %s", outcome))
	}

	if bk.Status() == bookingDomain.StatusConfirmed {
		result := toBookingDTO(bk)
		return &result, nil
	}
	if bk.PaymentIntentID() == "" {
		return nil, domain.NewValidationError("booking has no payment intent")
	}

	intent, err := s.gateway.GetIntent(ctx, bk.PaymentIntentID())
	if err != nil {
		s.countOutcome("verify_failed")
		return nil, &PaymentError{Message: "could not verify payment", Err: err}
	}
	if intent.Status != payment.IntentSucceeded {
		s.countOutcome("unverified")
		return nil, &PaymentError{Message: fmt.Sprintf("payment not completed: %s", intent.Status)}
	}

	if err := s.confirm(ctx, bk); err != nil {
		return nil, err
	}
	s.countOutcome(string(OutcomeSuccess))
	result := toBookingDTO(bk)
	return &result, nil
}

// HandlePaymentSucceeded confirms the booking named by a payment.succeeded
// event. Replays for an already confirmed booking are no-ops.
func (s *PaymentService) HandlePaymentSucceeded(ctx context.Context, evt PaymentSucceededEvent) error {
	var (
		bk  *bookingDomain.Booking
		err error
	)
	if evt.BookingID != uuid.Nil {
		bk, err = s.repo.FindByID(ctx, evt.BookingID)
	} else {
		bk, err = s.repo.FindByPaymentIntentID(ctx, evt.PaymentIntentID)
	}
	if err != nil {
		return err
	}

	switch bk.Status() {
	case bookingDomain.StatusConfirmed, bookingDomain.StatusInProgress, bookingDomain.StatusCompleted:
		s.logger.Debug("payment already applied", zap.String("booking_id", bk.ID().String()))
		return nil
	case bookingDomain.StatusPending:
	default:
		s.logger.Warn("payment received for a booking that cannot be confirmed",
			zap.String("booking_id", bk.ID().String()),
			zap.String("status", string(bk.Status())),
			zap.String("payment_intent_id", evt.PaymentIntentID),
		)
		return nil
	}

	if evt.PaymentIntentID != "" && bk.PaymentIntentID() == "" {
		if err := bk.AttachPaymentIntent(evt.PaymentIntentID); err != nil {
			return err
		}
	}
	if err := s.confirm(ctx, bk); err != nil {
		return err
	}
	s.countOutcome(string(OutcomeSuccess))
	return nil
}

// ReconcilePending checks a pending booking's intent with the processor
// before the booking is given up on. A succeeded intent confirms the booking
// and a processing one leaves it pending; both report keep. A booking without
// an intent is not kept.
func (s *PaymentService) ReconcilePending(ctx context.Context, bk *bookingDomain.Booking) (bool, error) {
	if bk.PaymentIntentID() == "" {
		return false, nil
	}
	intent, err := s.gateway.GetIntent(ctx, bk.PaymentIntentID())
	if err != nil {
		return false, fmt.Errorf("failed to read payment intent %s: %w", bk.PaymentIntentID(), err)
	}

	switch intent.Status {
	case payment.IntentSucceeded:
		if err := s.confirm(ctx, bk); err != nil {
			return false, err
		}
		s.countOutcome(string(OutcomeSuccess))
		return true, nil
	case payment.IntentProcessing:
		return true, nil
	default:
		return false, nil
	}
}

func (s *PaymentService) confirm(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := bk.Confirm(); err != nil {
		return err
	}
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}

	s.logger.Info("booking confirmed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("payment_intent_id", bk.PaymentIntentID()),
	)

	evt := BookingConfirmedEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		CustomerID:      bk.CustomerID(),
		PaymentIntentID: bk.PaymentIntentID(),
		OccurredAt:      time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, TopicBookingEvents, EventBookingConfirmed, bk.ID().String(), evt)
	return nil
}

func (s *PaymentService) loadOwned(ctx context.Context, customerID, bookingID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(customerID) {
		return nil, domain.NewForbiddenError("booking belongs to another customer")
	}
	return bk, nil
}

func (s *PaymentService) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.Payments.WithLabelValues(outcome).Inc()
	}
}
