package metrics

import (
	"context"
	"strconv"

	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all entitlement events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
		event.PlanChanged,
		event.StalePlanOverridden,
		event.DailyResetRequested,
		event.Downgraded,
		event.PromoRedeemed,
		event.ReferralRedeemed,
		event.AdRewarded,
		event.ActionConsumed,
		event.ActionDenied,
		event.PurchaseCompleted,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.PlanChanged:
		p, err := event.DecodePayload[event.PlanChangedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
			return nil
		}
		PlanChanges.WithLabelValues(string(p.OldPlan), string(p.NewPlan)).Inc()

	case event.StalePlanOverridden:
		StalePlanOverrides.Inc()

	case event.Downgraded:
		p, err := event.DecodePayload[event.DowngradedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
			return nil
		}
		Downgrades.WithLabelValues(strconv.FormatBool(p.Remote)).Inc()

	case event.PromoRedeemed:
		Redemptions.WithLabelValues(KindPromo).Inc()

	case event.ReferralRedeemed:
		Redemptions.WithLabelValues(KindReferral).Inc()

	case event.ActionConsumed:
		Actions.WithLabelValues(OutcomeConsumed).Inc()

	case event.ActionDenied:
		Actions.WithLabelValues(OutcomeDenied).Inc()

	case event.AdRewarded:
		AdRewards.Inc()

	case event.PurchaseCompleted:
		p, err := event.DecodePayload[event.PurchaseCompletedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
			return nil
		}
		Purchases.WithLabelValues(string(p.Family)).Inc()

	case event.DailyResetRequested:
		p, err := event.DecodePayload[event.DailyResetRequestedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
			return nil
		}
		DailyResets.WithLabelValues(strconv.FormatBool(p.Local)).Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
