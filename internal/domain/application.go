package domain

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "PENDING"
	ApplicationStatusOngoing     ApplicationStatus = "ONGOING"
	ApplicationStatusMadePayment ApplicationStatus = "MADE_PAYMENT"
	ApplicationStatusCompleted   ApplicationStatus = "COMPLETED"
	ApplicationStatusDispute     ApplicationStatus = "DISPUTE"
)

// ContactInfo is what the tenant shares with the landlord when applying.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Application struct {
	PropertyID     int64             `json:"property_id"`
	ID             int64             `json:"id"`
	Tenant         string            `json:"tenant"`
	Landlord       string            `json:"landlord"`
	Contact        ContactInfo       `json:"contact"`
	Description    string            `json:"description"`
	DepositAmount  int64             `json:"deposit_amount"`
	MonthsPaid     int32             `json:"months_paid"`
	Status         ApplicationStatus `json:"status"`
	PreviousStatus ApplicationStatus `json:"previous_status,omitempty"`
	PaymentIDs     []int64           `json:"payment_ids"`
	DisputeID      int64             `json:"dispute_id"` // 0 means no dispute was ever filed
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Accepted reports whether the landlord has taken the tenant in.
func (a *Application) Accepted() bool {
	return a.Status != ApplicationStatusPending
}
