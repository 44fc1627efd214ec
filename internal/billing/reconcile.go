package billing

import (
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/planboardhq/planboard/internal/models"
)

// IntervalFromSubscription derives the local billing cadence from the
// subscription's first line item. Anything that is not a yearly recurrence
// maps to monthly.
func IntervalFromSubscription(sub *stripe.Subscription) models.BillingInterval {
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		price := sub.Items.Data[0].Price
		if price != nil && price.Recurring != nil && price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
			return models.IntervalAnnual
		}
	}
	return models.IntervalMonthly
}

// PlanFromStatus maps a provider subscription status to the local plan.
// Unknown statuses fail closed to free.
func PlanFromStatus(status stripe.SubscriptionStatus) models.Plan {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.PlanPremium
	default:
		return models.PlanFree
	}
}

// SubscriptionStart derives the local subscription start. For an active
// subscription it is the provider's current period start; otherwise it falls
// back to now, which keeps the field populated for non-active statuses even
// though it then records the sync time rather than a true start.
func SubscriptionStart(sub *stripe.Subscription, now time.Time) time.Time {
	if sub.Status == stripe.SubscriptionStatusActive && sub.CurrentPeriodStart > 0 {
		return time.Unix(sub.CurrentPeriodStart, 0).UTC()
	}
	return now.UTC()
}

// SubscriptionEnd derives the local subscription end: the scheduled
// cancellation time when one is set, else the current period end.
func SubscriptionEnd(sub *stripe.Subscription) time.Time {
	if sub.CancelAt > 0 {
		return time.Unix(sub.CancelAt, 0).UTC()
	}
	return time.Unix(sub.CurrentPeriodEnd, 0).UTC()
}

// Snapshot projects the provider subscription into the read-only shape
// returned by the details endpoint.
func Snapshot(sub *stripe.Subscription) models.SubscriptionSnapshot {
	snap := models.SubscriptionSnapshot{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAt:           sub.CancelAt,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		TrialEnd:           sub.TrialEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		if price := sub.Items.Data[0].Price; price != nil {
			snap.Amount = price.UnitAmount
			snap.Currency = string(price.Currency)
			if price.Recurring != nil {
				snap.Interval = string(price.Recurring.Interval)
			}
		}
	}
	return snap
}
