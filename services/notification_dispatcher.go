package services

import (
	"log"

	"mingle_server/models"
)

// DeliveryResult is the per-participant outcome of a delivery attempt.
// Transport problems are reported here, never propagated as a crash.
type DeliveryResult struct {
	UserID    string
	Delivered bool
	Err       error
}

// ProposalDelivery is the two-sided outcome of ProposeToBoth.
type ProposalDelivery struct {
	A DeliveryResult
	B DeliveryResult
}

// Complete reports whether both sides received the proposal.
func (d ProposalDelivery) Complete() bool {
	return d.A.Delivered && d.B.Delivered
}

// NotificationDispatcher delivers lifecycle events to live endpoints via the
// connection registry.
type NotificationDispatcher struct {
	Registry *ConnectionRegistry
}

// NewNotificationDispatcher creates a dispatcher backed by the registry.
func NewNotificationDispatcher(registry *ConnectionRegistry) *NotificationDispatcher {
	return &NotificationDispatcher{Registry: registry}
}

// Deliver sends one event to one participant. An absent or stale connection
// yields a delivery-failed result; a transport error additionally evicts the
// connection record, which is presumed dead.
func (d *NotificationDispatcher) Deliver(userID string, event models.Event) DeliveryResult {
	endpoint, live := d.Registry.Endpoint(userID)
	if !live {
		return DeliveryResult{UserID: userID}
	}
	if err := endpoint.Send(event); err != nil {
		log.Printf("❌ Delivery of %s to %s failed: %v", event.Name, userID, err)
		d.Registry.Evict(userID)
		return DeliveryResult{UserID: userID, Err: err}
	}
	return DeliveryResult{UserID: userID, Delivered: true}
}

// ProposeToBoth delivers the match.proposed event to both sides
// independently. When either side fails, any side that did receive the
// proposal gets a cancellation event so no participant is left believing a
// half-delivered proposal is live.
func (d *NotificationDispatcher) ProposeToBoth(match *models.ProposedMatch) ProposalDelivery {
	event := ProposalEvent(match)

	delivery := ProposalDelivery{
		A: d.Deliver(match.Users[0], event),
		B: d.Deliver(match.Users[1], event),
	}
	if delivery.Complete() {
		return delivery
	}

	cancellation := models.Event{Name: models.EventMatchCancelled, MatchID: match.MatchID}
	for _, result := range []DeliveryResult{delivery.A, delivery.B} {
		if result.Delivered {
			d.Deliver(result.UserID, cancellation)
		}
	}
	return delivery
}

// ProposalEvent builds the match.proposed event for a match.
func ProposalEvent(match *models.ProposedMatch) models.Event {
	return models.Event{
		Name:    models.EventMatchProposed,
		MatchID: match.MatchID,
		Payload: map[string]interface{}{
			"sharedInterests": match.SharedInterests,
			"expiresAt":       match.ExpiresAt,
		},
	}
}
