package domain

import "time"

type EventType string

const (
	EventCreditsMinted        EventType = "ledger.minted"
	EventCreditsRedeemed      EventType = "ledger.redeemed"
	EventCreditsTransferred   EventType = "ledger.transferred"
	EventPropertyCreated      EventType = "property.created"
	EventPropertyUpdated      EventType = "property.updated"
	EventPropertyDeleted      EventType = "property.deleted"
	EventPropertyListed       EventType = "property.listed"
	EventPropertyUnlisted     EventType = "property.unlisted"
	EventDepositFeeUpdated    EventType = "property.deposit_fee_updated"
	EventApplicationSubmitted EventType = "application.submitted"
	EventApplicationAccepted  EventType = "application.accepted"
	EventApplicationClosed    EventType = "application.cancelled_or_rejected"
	EventPaymentMade          EventType = "application.payment_made"
	EventPaymentAccepted      EventType = "application.payment_accepted"
	EventTenantMovedOut       EventType = "application.moved_out"
	EventDisputeCreated       EventType = "dispute.created"
	EventVoteCast             EventType = "dispute.vote_cast"
	EventDisputeResolved      EventType = "dispute.resolved"
)

// Event is the externally observable record of one successful operation.
type Event struct {
	Seq           int64             `json:"seq"`
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	Actor         string            `json:"actor"`
	PropertyID    int64             `json:"property_id,omitempty"`
	ApplicationID int64             `json:"application_id,omitempty"`
	DisputeID     int64             `json:"dispute_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
