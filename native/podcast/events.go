package podcast

import (
	"fmt"
	"math/big"

	"podledger/core/events"
	"podledger/core/types"
)

const (
	// EventTypePodcastCreated is emitted when a creator registers a podcast.
	EventTypePodcastCreated = "podcast.created"
	// EventTypePodcastDeactivated is emitted the first time a podcast is
	// deactivated.
	EventTypePodcastDeactivated = "podcast.deactivated"
	// EventTypeSubscriptionPurchased is emitted on every successful purchase.
	EventTypeSubscriptionPurchased = "podcast.subscription.purchased"
	// EventTypeCreatorPaidOut is emitted when a creator withdraws earnings.
	EventTypeCreatorPaidOut = "podcast.payout.claimed"
	// EventTypeFeeRateUpdated is emitted when the owner changes the fee rate.
	EventTypeFeeRateUpdated = "podcast.fee.updated"
	// EventTypePlatformFeesWithdrawn is emitted when the owner drains the
	// platform fee pool.
	EventTypePlatformFeesWithdrawn = "podcast.fees.withdrawn"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func bigAttr(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// PodcastCreatedEvent returns the structured payload for registrations.
func PodcastCreatedEvent(id uint64, creator string, title string, pricePerDay *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePodcastCreated,
		Attributes: map[string]string{
			"id":          fmt.Sprintf("%d", id),
			"creator":     creator,
			"title":       title,
			"pricePerDay": bigAttr(pricePerDay),
		},
	}
}

// PodcastDeactivatedEvent returns the structured payload for deactivations.
func PodcastDeactivatedEvent(id uint64, creator string) *types.Event {
	return &types.Event{
		Type: EventTypePodcastDeactivated,
		Attributes: map[string]string{
			"id":      fmt.Sprintf("%d", id),
			"creator": creator,
		},
	}
}

// SubscriptionPurchasedEvent returns the structured payload for purchases.
func SubscriptionPurchasedEvent(id uint64, subscriber string, duration int64, cost *big.Int, expiresAt int64) *types.Event {
	return &types.Event{
		Type: EventTypeSubscriptionPurchased,
		Attributes: map[string]string{
			"id":         fmt.Sprintf("%d", id),
			"subscriber": subscriber,
			"duration":   fmt.Sprintf("%d", duration),
			"cost":       bigAttr(cost),
			"expiresAt":  fmt.Sprintf("%d", expiresAt),
		},
	}
}

// CreatorPaidOutEvent returns the structured payload for creator withdrawals.
func CreatorPaidOutEvent(creator string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCreatorPaidOut,
		Attributes: map[string]string{
			"creator": creator,
			"amount":  bigAttr(amount),
		},
	}
}

// FeeRateUpdatedEvent returns the structured payload for fee rate changes.
func FeeRateUpdatedEvent(feeBps uint32) *types.Event {
	return &types.Event{
		Type: EventTypeFeeRateUpdated,
		Attributes: map[string]string{
			"feeBps": fmt.Sprintf("%d", feeBps),
		},
	}
}

// PlatformFeesWithdrawnEvent returns the structured payload for fee-pool
// withdrawals.
func PlatformFeesWithdrawnEvent(owner string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePlatformFeesWithdrawn,
		Attributes: map[string]string{
			"owner":  owner,
			"amount": bigAttr(amount),
		},
	}
}
