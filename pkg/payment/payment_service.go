package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// ServiceInterface defines the contract for a payment processing service.
type ServiceInterface interface {
	ProcessPayment(ctx context.Context, customerID string, amount float64, paymentMethodID string) (string, error)
}

// StripeService charges card payments through Stripe. Cash and mobile-money
// settlements happen outside the platform and never reach this service.
type StripeService struct {
	api *client.API
}

func NewStripeService(apiKey string) *StripeService {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeService{api: api}
}

// ProcessPayment creates and confirms a payment intent in GHS minor units.
func (s *StripeService) ProcessPayment(ctx context.Context, customerID string, amount float64, paymentMethodID string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("invalid payment amount")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(amount * 100)),
		Currency:      stripe.String("ghs"),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("customer_id", customerID)

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("payment.ProcessPayment: %w", err)
	}
	return intent.ID, nil
}
