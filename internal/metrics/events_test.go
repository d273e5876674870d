package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
)

func TestEventMetricsCollector(t *testing.T) {
	bus := event.NewMemoryBus()
	require.NoError(t, NewEventMetricsCollector().Register(bus))
	ctx := context.Background()

	beforePlan := testutil.ToFloat64(PlanChanges.WithLabelValues("free", "pro"))
	beforeDenied := testutil.ToFloat64(Actions.WithLabelValues(OutcomeDenied))
	beforeStale := testutil.ToFloat64(StalePlanOverrides)
	beforeDowngrade := testutil.ToFloat64(Downgrades.WithLabelValues("false"))

	require.NoError(t, bus.Publish(ctx, event.NewPlanChangedEvent("u", domain.PlanFree, domain.PlanPro, "purchase")))
	require.NoError(t, bus.Publish(ctx, event.NewUsageEvent(event.ActionDenied, "u", domain.SubscriptionState{})))
	require.NoError(t, bus.Publish(ctx, event.NewStalePlanOverriddenEvent("u", domain.PlanFree, domain.PlanPremium)))
	require.NoError(t, bus.Publish(ctx, event.NewDowngradedEvent("u", domain.PlanPremium, false)))

	assert.Equal(t, beforePlan+1, testutil.ToFloat64(PlanChanges.WithLabelValues("free", "pro")))
	assert.Equal(t, beforeDenied+1, testutil.ToFloat64(Actions.WithLabelValues(OutcomeDenied)))
	assert.Equal(t, beforeStale+1, testutil.ToFloat64(StalePlanOverrides))
	assert.Equal(t, beforeDowngrade+1, testutil.ToFloat64(Downgrades.WithLabelValues("false")))
}

func TestEventMetricsCollector_UndecodablePayload(t *testing.T) {
	c := NewEventMetricsCollector()
	err := c.HandleEvent(context.Background(), event.Event{Type: event.PurchaseCompleted, Payload: make(chan int)})
	assert.NoError(t, err, "bad payloads are logged, not returned")
}
