package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79"

	"github.com/planboardhq/planboard/internal/models"
)

func subWithInterval(interval stripe.PriceRecurringInterval) *stripe.Subscription {
	return &stripe.Subscription{
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{
					Price: &stripe.Price{
						UnitAmount: 900,
						Currency:   stripe.CurrencyUSD,
						Recurring:  &stripe.PriceRecurring{Interval: interval},
					},
				},
			},
		},
	}
}

func TestIntervalFromSubscription(t *testing.T) {
	assert.Equal(t, models.IntervalAnnual, IntervalFromSubscription(subWithInterval(stripe.PriceRecurringIntervalYear)))
	assert.Equal(t, models.IntervalMonthly, IntervalFromSubscription(subWithInterval(stripe.PriceRecurringIntervalMonth)))

	// Anything that is not yearly maps to monthly.
	assert.Equal(t, models.IntervalMonthly, IntervalFromSubscription(subWithInterval(stripe.PriceRecurringIntervalWeek)))
	assert.Equal(t, models.IntervalMonthly, IntervalFromSubscription(&stripe.Subscription{}))
}

func TestPlanFromStatus(t *testing.T) {
	tests := []struct {
		status stripe.SubscriptionStatus
		want   models.Plan
	}{
		{stripe.SubscriptionStatusActive, models.PlanPremium},
		{stripe.SubscriptionStatusTrialing, models.PlanPremium},
		{stripe.SubscriptionStatusCanceled, models.PlanFree},
		{stripe.SubscriptionStatusPastDue, models.PlanFree},
		{stripe.SubscriptionStatusIncomplete, models.PlanFree},
		{stripe.SubscriptionStatus("something-new"), models.PlanFree},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PlanFromStatus(tt.status), "status %s", tt.status)
	}
}

func TestSubscriptionStart(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodStart := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)

	active := &stripe.Subscription{
		Status:             stripe.SubscriptionStatusActive,
		CurrentPeriodStart: periodStart.Unix(),
	}
	assert.Equal(t, periodStart, SubscriptionStart(active, now))

	// Non-active statuses fall back to now.
	canceled := &stripe.Subscription{
		Status:             stripe.SubscriptionStatusCanceled,
		CurrentPeriodStart: periodStart.Unix(),
	}
	assert.Equal(t, now, SubscriptionStart(canceled, now))
}

func TestSubscriptionEnd(t *testing.T) {
	periodEnd := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	cancelAt := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	withCancel := &stripe.Subscription{
		CancelAt:         cancelAt.Unix(),
		CurrentPeriodEnd: periodEnd.Unix(),
	}
	assert.Equal(t, cancelAt, SubscriptionEnd(withCancel))

	withoutCancel := &stripe.Subscription{CurrentPeriodEnd: periodEnd.Unix()}
	assert.Equal(t, periodEnd, SubscriptionEnd(withoutCancel))
}

func TestSnapshot(t *testing.T) {
	sub := subWithInterval(stripe.PriceRecurringIntervalMonth)
	sub.ID = "sub_123"
	sub.Status = stripe.SubscriptionStatusActive
	sub.CurrentPeriodStart = 100
	sub.CurrentPeriodEnd = 200
	sub.CancelAtPeriodEnd = true
	sub.TrialEnd = 150

	snap := Snapshot(sub)
	assert.Equal(t, "sub_123", snap.ID)
	assert.Equal(t, "active", snap.Status)
	assert.Equal(t, int64(100), snap.CurrentPeriodStart)
	assert.Equal(t, int64(200), snap.CurrentPeriodEnd)
	assert.True(t, snap.CancelAtPeriodEnd)
	assert.Equal(t, int64(150), snap.TrialEnd)
	assert.Equal(t, int64(900), snap.Amount)
	assert.Equal(t, "usd", snap.Currency)
	assert.Equal(t, "month", snap.Interval)
}

func TestCatalogAmount(t *testing.T) {
	assert.Equal(t, MonthlyAmountCents, CatalogAmount(models.IntervalMonthly))
	assert.Equal(t, AnnualAmountCents, CatalogAmount(models.IntervalAnnual))
}
