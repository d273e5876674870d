package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
	"github.com/osse101/SmartList_Go/internal/metrics"
)

// auditedEvents are written to the log as they happen
var auditedEvents = []event.Type{
	event.PlanChanged,
	event.StalePlanOverridden,
	event.Downgraded,
	event.PromoRedeemed,
	event.ReferralRedeemed,
	event.PurchaseCompleted,
	event.DailyResetComplete,
}

// RegisterEventHandlers subscribes the metrics collector and the audit log
func RegisterEventHandlers(bus event.Bus) error {
	collector := metrics.NewEventMetricsCollector()
	if err := collector.Register(bus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered)

	for _, t := range auditedEvents {
		bus.Subscribe(t, auditEvent)
	}
	slog.Info(LogMsgEventLoggerInitialized, "event_types", len(auditedEvents))
	return nil
}

func auditEvent(ctx context.Context, evt event.Event) error {
	logger.FromContext(ctx).Info(LogMsgEntitlementEvent,
		"type", evt.Type,
		"version", evt.Version,
		"payload", evt.Payload)
	return nil
}
