package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"optovik-store/logger"
	"optovik-store/utils"
)

// ErrPaymentsDisabled is returned for card checkouts when no gateway is configured.
var ErrPaymentsDisabled = errors.New("card payments are not configured")

// PaymentRequest describes a payment for one order
type PaymentRequest struct {
	OrderNumber string
	Amount      decimal.Decimal
	Description string
	Email       string
	Metadata    map[string]string
}

// PaymentResult is what the storefront needs to complete a card payment
type PaymentResult struct {
	PaymentID    string
	ClientSecret string
	Status       string
}

// PaymentGateway starts and inspects card payments
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (PaymentResult, error)
	PaymentSucceeded(ctx context.Context, paymentID string) (bool, error)
}

type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway implements PaymentGateway on Stripe PaymentIntents
type StripeGateway struct {
	intents  stripeIntentAPI
	currency string
}

// NewStripeGateway creates a gateway for the given secret key
func NewStripeGateway(apiKey, currency string) (*StripeGateway, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stripe: api key is required")
	}
	sc := client.New(apiKey, nil)
	return newStripeGateway(sc.PaymentIntents, currency), nil
}

func newStripeGateway(intents stripeIntentAPI, currency string) *StripeGateway {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "rub"
	}
	return &StripeGateway{intents: intents, currency: currency}
}

var _ PaymentGateway = (*StripeGateway)(nil)

// CreatePayment creates a PaymentIntent. The order number is the idempotency key
// so a retried checkout never charges twice.
func (g *StripeGateway) CreatePayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	amount := utils.ToMinorUnits(req.Amount)
	if amount <= 0 {
		return PaymentResult{}, fmt.Errorf("stripe: amount must be positive, got %s", req.Amount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.OrderNumber != "" {
		params.SetIdempotencyKey("order-" + req.OrderNumber)
		params.AddMetadata("order_number", req.OrderNumber)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}

	intent, err := g.intents.New(params)
	if err != nil {
		logger.Log.Errorf("❌ Stripe: create payment intent for order %s: %v", req.OrderNumber, err)
		return PaymentResult{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	logger.Log.Infof("💳 Stripe: payment intent %s created for order %s (%d %s)", intent.ID, req.OrderNumber, amount, g.currency)
	return PaymentResult{
		PaymentID:    intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

// PaymentSucceeded reports whether the PaymentIntent has been paid
func (g *StripeGateway) PaymentSucceeded(ctx context.Context, paymentID string) (bool, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := g.intents.Get(paymentID, params)
	if err != nil {
		return false, fmt.Errorf("stripe: get payment intent %s: %w", paymentID, err)
	}
	return intent.Status == stripe.PaymentIntentStatusSucceeded, nil
}
