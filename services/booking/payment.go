package booking

import (
	"context"
	"errors"
	"fmt"

	"medibook/models"
	"medibook/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// ErrGatewayUnavailable means the payment gateway itself cannot be reached
// or is not configured. Distinct from a payment decline: the caller may
// retry the whole flow once the gateway is back.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// PaymentGateway is the boundary to the external payment provider. Order
// creation happens synchronously here; the payment outcome arrives later
// through the gateway's success/failure callbacks.
type PaymentGateway interface {
	// Ready reports whether the gateway can take orders at all.
	Ready() error
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency, reference string) (*models.PaymentOrder, error)
}

// StripeGateway implements PaymentGateway on Stripe payment intents. The
// intent id doubles as the order id; the charge id arrives on the success
// callback as the payment id.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func (g *StripeGateway) Ready() error {
	if stripe.Key == "" {
		return ErrGatewayUnavailable
	}
	return nil
}

func (g *StripeGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, reference string) (*models.PaymentOrder, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata("attemptId", reference)

	intent, err := paymentintent.New(params)
	if err != nil {
		utils.GetLogger().Error("payment order creation failed",
			zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	return &models.PaymentOrder{
		OrderID:          intent.ID,
		AmountMinorUnits: amountMinorUnits,
		Currency:         currency,
		Reference:        reference,
		ClientSecret:     intent.ClientSecret,
	}, nil
}
