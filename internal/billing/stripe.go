package billing

import (
	"errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/subscription"

	"github.com/planboardhq/planboard/internal/models"
)

// Fixed price catalog, in cents USD. The annual amount carries the built-in
// two-months-free framing relative to twelve monthly cycles.
const (
	MonthlyAmountCents = int64(900)
	AnnualAmountCents  = int64(9000)

	productName = "Planboard Premium"
)

// ErrNoCustomer is returned when no provider customer matches an email.
var ErrNoCustomer = errors.New("no customer found")

// CatalogAmount returns the fixed amount for a billing cadence.
func CatalogAmount(interval models.BillingInterval) int64 {
	if interval == models.IntervalAnnual {
		return AnnualAmountCents
	}
	return MonthlyAmountCents
}

// PaymentsClient is the narrow surface of the payments provider used by the
// handlers. The production implementation wraps the Stripe SDK; tests supply
// an in-memory fake.
type PaymentsClient interface {
	// FindCustomerByEmail returns the first customer matching the email,
	// or ErrNoCustomer when there are no matches.
	FindCustomerByEmail(email string) (*stripe.Customer, error)

	// ListSubscriptions returns the customer's subscriptions in the
	// provider's default ordering (most recent first).
	ListSubscriptions(customerID string) ([]*stripe.Subscription, error)

	// GetSubscription fetches a single subscription by id.
	GetSubscription(id string) (*stripe.Subscription, error)

	// SetCancelAtPeriodEnd flips the provider's cancel-at-period-end flag.
	SetCancelAtPeriodEnd(id string, cancel bool) (*stripe.Subscription, error)

	// CreatePrice creates a catalog price for the given cadence.
	CreatePrice(interval models.BillingInterval) (*stripe.Price, error)

	// SwitchSubscriptionPrice moves the subscription's single line item to a
	// new price without proration and without moving the billing-cycle anchor.
	SwitchSubscriptionPrice(subID, itemID, priceID string) (*stripe.Subscription, error)
}

// StripeClient implements PaymentsClient against the Stripe API.
type StripeClient struct{}

// NewStripeClient wires the Stripe API key and returns a client. Test or live
// mode follows from the key prefix; nothing else is configured here.
func NewStripeClient(secretKey string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{}
}

func (s *StripeClient) FindCustomerByEmail(email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	it := customer.List(params)
	for it.Next() {
		return it.Customer(), nil
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoCustomer
}

func (s *StripeClient) ListSubscriptions(customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	var subs []*stripe.Subscription
	it := subscription.List(params)
	for it.Next() {
		subs = append(subs, it.Subscription())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *StripeClient) GetSubscription(id string) (*stripe.Subscription, error) {
	return subscription.Get(id, nil)
}

func (s *StripeClient) SetCancelAtPeriodEnd(id string, cancel bool) (*stripe.Subscription, error) {
	return subscription.Update(id, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	})
}

func (s *StripeClient) CreatePrice(interval models.BillingInterval) (*stripe.Price, error) {
	recurring := string(stripe.PriceRecurringIntervalMonth)
	if interval == models.IntervalAnnual {
		recurring = string(stripe.PriceRecurringIntervalYear)
	}
	return price.New(&stripe.PriceParams{
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(CatalogAmount(interval)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(recurring),
		},
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(productName),
		},
	})
}

func (s *StripeClient) SwitchSubscriptionPrice(subID, itemID, priceID string) (*stripe.Subscription, error) {
	return subscription.Update(subID, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior:           stripe.String("none"),
		BillingCycleAnchorUnchanged: stripe.Bool(true),
	})
}
