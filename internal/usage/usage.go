// Package usage gates billable actions on the entitlement engine's daily allowance.
package usage

import (
	"context"
	"fmt"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/entitlement"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// Action is a billable operation
type Action string

const (
	ActionAddItem           Action = "add_item"
	ActionGenerateRecipe    Action = "generate_recipe"
	ActionScanProduct       Action = "scan_product"
	ActionSendFriendRequest Action = "send_friend_request"
)

// Actions lists every gated action
func Actions() []Action {
	return []Action{ActionAddItem, ActionGenerateRecipe, ActionScanProduct, ActionSendFriendRequest}
}

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}

// Counter is the slice of the entitlement engine the gate needs
type Counter interface {
	TryConsume(ctx context.Context) (entitlement.Reservation, bool)
	Release(ctx context.Context, r entitlement.Reservation)
	State() domain.SubscriptionState
	Identity() domain.Identity
}

// Gate runs actions against one session's allowance
type Gate struct {
	counter   Counter
	publisher event.Publisher
}

// NewGate creates a gate. A nil publisher drops denial events.
func NewGate(counter Counter, publisher event.Publisher) *Gate {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &Gate{counter: counter, publisher: publisher}
}

// Perform takes one action from the allowance and runs fn. The action is
// given back when fn fails. A denied action returns domain.ErrDailyLimitReached
// without running fn.
func (g *Gate) Perform(ctx context.Context, action Action, fn func(ctx context.Context) error) error {
	if !action.Valid() {
		return fmt.Errorf("%s: %q", ErrMsgUnknownAction, action)
	}
	log := logger.FromContext(ctx).With("action", action)

	reservation, ok := g.counter.TryConsume(ctx)
	if !ok {
		log.Info(LogMsgActionDenied)
		g.publisher.PublishWithRetry(ctx, event.NewUsageEvent(event.ActionDenied, g.counter.Identity().Key, g.counter.State()))
		return domain.ErrDailyLimitReached
	}

	if fn != nil {
		if err := fn(ctx); err != nil {
			g.counter.Release(ctx, reservation)
			log.Info(LogMsgActionReleased, "error", err)
			return err
		}
	}

	log.Debug(LogMsgActionConsumed)
	return nil
}
