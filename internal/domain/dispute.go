package domain

import "time"

type DisputeType string

const (
	DisputeTypeMaintenance     DisputeType = "MAINTENANCE_AND_REPAIRS"
	DisputeTypeHealthSafety    DisputeType = "HEALTH_AND_SAFETY"
	DisputeTypePrivacy         DisputeType = "PRIVACY"
	DisputeTypeDiscrimination  DisputeType = "DISCRIMINATION"
	DisputeTypeNoiseComplaints DisputeType = "NOISE_COMPLAINTS"
	DisputeTypeLeaseTerms      DisputeType = "LEASE_TERMS"
	DisputeTypeOther           DisputeType = "OTHER"
)

var disputeTypes = []DisputeType{
	DisputeTypeMaintenance,
	DisputeTypeHealthSafety,
	DisputeTypePrivacy,
	DisputeTypeDiscrimination,
	DisputeTypeNoiseComplaints,
	DisputeTypeLeaseTerms,
	DisputeTypeOther,
}

func DisputeTypeFromIndex(i int) (DisputeType, error) {
	if i < 0 || i >= len(disputeTypes) {
		return "", Errorf(KindInvalidArgument, "unknown dispute type index %d", i)
	}
	return disputeTypes[i], nil
}

func (t DisputeType) Index() int {
	for i, v := range disputeTypes {
		if v == t {
			return i
		}
	}
	return -1
}

func (t DisputeType) Valid() bool {
	return t.Index() >= 0
}

type DisputeStatus string

const (
	DisputeStatusPending  DisputeStatus = "PENDING"
	DisputeStatusApproved DisputeStatus = "APPROVED"
	DisputeStatusRejected DisputeStatus = "REJECTED"
	DisputeStatusDraw     DisputeStatus = "DRAW"
)

type VoteChoice string

const (
	VoteVoid    VoteChoice = "VOID"
	VoteApprove VoteChoice = "APPROVE"
	VoteReject  VoteChoice = "REJECT"
)

var voteChoices = []VoteChoice{VoteVoid, VoteApprove, VoteReject}

func VoteChoiceFromIndex(i int) (VoteChoice, error) {
	if i < 0 || i >= len(voteChoices) {
		return "", Errorf(KindInvalidArgument, "unknown vote index %d", i)
	}
	return voteChoices[i], nil
}

func (c VoteChoice) Index() int {
	for i, v := range voteChoices {
		if v == c {
			return i
		}
	}
	return -1
}

type Vote struct {
	DisputeID int64      `json:"dispute_id"`
	Validator string     `json:"validator"`
	Choice    VoteChoice `json:"choice"`
	CastAt    time.Time  `json:"cast_at"`
}

type Dispute struct {
	ID            int64         `json:"id"`
	PropertyID    int64         `json:"property_id"`
	ApplicationID int64         `json:"application_id"`
	Tenant        string        `json:"tenant"`
	Landlord      string        `json:"landlord"`
	Type          DisputeType   `json:"dispute_type"`
	Reason        string        `json:"reason"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Status        DisputeStatus `json:"status"`
	Votes         []Vote        `json:"votes"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
}

// Tally counts approve and reject votes.
func (d *Dispute) Tally() (approve, reject int) {
	for _, v := range d.Votes {
		switch v.Choice {
		case VoteApprove:
			approve++
		case VoteReject:
			reject++
		}
	}
	return approve, reject
}

func (d *Dispute) HasVoted(validator string) bool {
	for _, v := range d.Votes {
		if v.Validator == validator {
			return true
		}
	}
	return false
}

// Outcome is the majority decision of the recorded votes.
func (d *Dispute) Outcome() DisputeStatus {
	approve, reject := d.Tally()
	switch {
	case approve > reject:
		return DisputeStatusApproved
	case reject > approve:
		return DisputeStatusRejected
	}
	return DisputeStatusDraw
}

func (d *Dispute) Expired(now time.Time) bool {
	return !now.Before(d.EndTime)
}
