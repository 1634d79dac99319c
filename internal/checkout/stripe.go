package checkout

import (
	"context"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Session is the slice of a processor checkout session the storefront cares
// about: an opaque id and the hosted-payment-page URL the client redirects to.
type Session struct {
	ID  string
	URL string
}

type SessionParams struct {
	AmountCents int64
	Currency    string
	Name        string
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// SessionCreator is the payment-processor boundary. The service never touches
// payment instruments; it only asks the processor for a hosted session.
type SessionCreator interface {
	CreateSession(ctx context.Context, p SessionParams) (Session, error)
}

type StripeSessions struct {
	api *client.API
}

func NewStripeSessions(apiKey string) *StripeSessions {
	return &StripeSessions{api: client.New(apiKey, nil)}
}

func (s *StripeSessions) CreateSession(ctx context.Context, p SessionParams) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.Name),
						Description: stripe.String(p.Description),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}
