package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
)

type fakeIntents struct {
	created *stripe.PaymentIntentParams
	status  stripe.PaymentIntentStatus
	err     error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: id, Status: f.status}, nil
}

func TestStripeGateway_CreatePayment(t *testing.T) {
	intents := &fakeIntents{}
	g := newStripeGateway(intents, " RUB ")

	res, err := g.CreatePayment(context.Background(), PaymentRequest{
		OrderNumber: "01HX",
		Amount:      dec("8100.50"),
		Description: "Заказ 01HX",
		Email:       "buyer@example.com",
		Metadata:    map[string]string{"order_type": "wholesale"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", res.PaymentID)
	assert.Equal(t, "pi_123_secret", res.ClientSecret)

	p := intents.created
	require.NotNil(t, p)
	assert.Equal(t, int64(810050), *p.Amount)
	assert.Equal(t, "rub", *p.Currency)
	assert.Equal(t, "order-01HX", *p.IdempotencyKey)
	assert.Equal(t, "01HX", p.Metadata["order_number"])
	assert.Equal(t, "wholesale", p.Metadata["order_type"])
	assert.Equal(t, "buyer@example.com", *p.ReceiptEmail)
}

func TestStripeGateway_RejectsNonPositiveAmount(t *testing.T) {
	intents := &fakeIntents{}
	g := newStripeGateway(intents, "")
	_, err := g.CreatePayment(context.Background(), PaymentRequest{OrderNumber: "X", Amount: dec("0")})
	assert.Error(t, err)
	assert.Nil(t, intents.created)
}

func TestStripeGateway_Errors(t *testing.T) {
	intents := &fakeIntents{err: errors.New("card_declined")}
	g := newStripeGateway(intents, "")
	_, err := g.CreatePayment(context.Background(), PaymentRequest{OrderNumber: "X", Amount: dec("10")})
	assert.ErrorContains(t, err, "card_declined")

	_, err = g.PaymentSucceeded(context.Background(), "pi_1")
	assert.Error(t, err)
}

func TestStripeGateway_PaymentSucceeded(t *testing.T) {
	intents := &fakeIntents{status: stripe.PaymentIntentStatusProcessing}
	g := newStripeGateway(intents, "")

	ok, err := g.PaymentSucceeded(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.False(t, ok)

	intents.status = stripe.PaymentIntentStatusSucceeded
	ok, err = g.PaymentSucceeded(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewStripeGateway_RequiresKey(t *testing.T) {
	_, err := NewStripeGateway("  ", "rub")
	assert.Error(t, err)
}
