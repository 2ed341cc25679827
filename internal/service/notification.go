package service

import (
	"context"
	"fmt"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

type notificationService struct {
	store repository.Store
}

func NewNotificationService(store repository.Store) NotificationService {
	return &notificationService{store: store}
}

func (s *notificationService) GetNotifications(ctx context.Context, accountID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize
	var (
		notes []domain.Notification
		total int32
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		notes, total, err = tx.Notifications().List(ctx, accountID, pageSize, offset)
		return err
	})
	return notes, total, err
}

func (s *notificationService) MarkAsRead(ctx context.Context, accountID string, notificationID int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Notifications().MarkAsRead(ctx, notificationID, accountID)
	})
}

// notificationsFor derives the in-app notifications for an event. Recipients
// come from the tenant and landlord attributes every marketplace event carries.
func notificationsFor(e domain.Event) []domain.Notification {
	tenant, landlord := e.Attributes["tenant"], e.Attributes["landlord"]
	note := func(to, title, msg string) domain.Notification {
		return domain.Notification{
			AccountID: to,
			Title:     title,
			Message:   msg,
			Attributes: map[string]string{
				"type":           string(e.Type),
				"event_id":       e.ID,
				"property_id":    itoa(e.PropertyID),
				"application_id": itoa(e.ApplicationID),
				"dispute_id":     itoa(e.DisputeID),
			},
			CreatedAt: e.CreatedAt,
		}
	}

	var out []domain.Notification
	switch e.Type {
	case domain.EventApplicationSubmitted:
		out = append(out, note(landlord, "New Rental Application", fmt.Sprintf("%s applied to rent property %d", tenant, e.PropertyID)))
	case domain.EventApplicationAccepted:
		out = append(out, note(tenant, "Application Accepted", fmt.Sprintf("Your application for property %d was accepted", e.PropertyID)))
	case domain.EventApplicationClosed:
		if e.Attributes["closed_by"] == string(domain.RoleLandlord) {
			out = append(out, note(tenant, "Application Rejected", fmt.Sprintf("Your application for property %d was rejected", e.PropertyID)))
		} else {
			out = append(out, note(landlord, "Application Cancelled", fmt.Sprintf("%s cancelled their application for property %d", tenant, e.PropertyID)))
		}
	case domain.EventPaymentMade:
		out = append(out, note(landlord, "Rent Paid", fmt.Sprintf("%s paid rent for property %d", tenant, e.PropertyID)))
	case domain.EventPaymentAccepted:
		out = append(out, note(tenant, "Payment Accepted", fmt.Sprintf("Your rent payment for property %d was accepted (%s months paid)", e.PropertyID, e.Attributes["months_paid"])))
	case domain.EventTenantMovedOut:
		out = append(out, note(landlord, "Tenant Moved Out", fmt.Sprintf("%s moved out of property %d", tenant, e.PropertyID)))
	case domain.EventDisputeCreated:
		out = append(out, note(landlord, "Dispute Filed", fmt.Sprintf("%s filed dispute %d on property %d", tenant, e.DisputeID, e.PropertyID)))
	case domain.EventDisputeResolved:
		msg := fmt.Sprintf("Dispute %d was resolved: %s", e.DisputeID, e.Attributes["outcome"])
		out = append(out, note(tenant, "Dispute Resolved", msg), note(landlord, "Dispute Resolved", msg))
	}

	filtered := out[:0]
	for _, n := range out {
		if n.AccountID != "" {
			filtered = append(filtered, n)
		}
	}
	return filtered
}
