package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/metrics"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewEmailService sends through SendGrid. An empty API key returns a service
// that only logs.
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	if apiKey == "" {
		return logOnlyEmailService{}
	}
	return &emailService{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (s *emailService) SendApplicationDecision(ctx context.Context, tenantEmail, tenantName string, propertyID int64, accepted bool) error {
	subject := fmt.Sprintf("Your application for property %d was rejected", propertyID)
	body := fmt.Sprintf("Hello %s,\n\nThe landlord has rejected your application for property %d. Your deposit has been refunded to your account.\n\nBest regards,\nThe RentChain Team", tenantName, propertyID)
	if accepted {
		subject = fmt.Sprintf("Your application for property %d was accepted", propertyID)
		body = fmt.Sprintf("Hello %s,\n\nThe landlord has accepted your application for property %d. You can now make your first rent payment.\n\nBest regards,\nThe RentChain Team", tenantName, propertyID)
	}
	return s.send(ctx, tenantEmail, tenantName, subject, body)
}

func (s *emailService) SendDisputeOutcome(ctx context.Context, email, name string, disputeID int64, outcome domain.DisputeStatus) error {
	subject := fmt.Sprintf("Dispute %d resolved: %s", disputeID, outcome)
	body := fmt.Sprintf("Hello %s,\n\nValidators have resolved dispute %d with the outcome %s. Any payouts have been credited to your account.\n\nBest regards,\nThe RentChain Team", name, disputeID, outcome)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) send(ctx context.Context, to, toName, subject, body string) error {
	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)

	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), subject, mail.NewEmail(toName, to), body, "")
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
	}

	logger.ExternalServiceResult("sendgrid", "send", err, "to", to)
	return err
}

type logOnlyEmailService struct{}

func (logOnlyEmailService) SendApplicationDecision(ctx context.Context, tenantEmail, tenantName string, propertyID int64, accepted bool) error {
	logger.Info("Email disabled, skipping application decision", "to", tenantEmail, "property_id", propertyID, "accepted", accepted)
	return nil
}

func (logOnlyEmailService) SendDisputeOutcome(ctx context.Context, email, name string, disputeID int64, outcome domain.DisputeStatus) error {
	logger.Info("Email disabled, skipping dispute outcome", "to", email, "dispute_id", disputeID, "outcome", outcome)
	return nil
}

// EmailNotifier mails tenants about decisions on their applications and
// disputes, using the contact address they gave when applying.
type EmailNotifier struct {
	email EmailService
}

func NewEmailNotifier(email EmailService) *EmailNotifier {
	return &EmailNotifier{email: email}
}

func (n *EmailNotifier) Consume(ctx context.Context, events []domain.Event) {
	for _, e := range events {
		to, name := e.Attributes["contact_email"], e.Attributes["contact_name"]
		if to == "" {
			continue
		}
		var err error
		switch e.Type {
		case domain.EventApplicationAccepted:
			err = n.email.SendApplicationDecision(ctx, to, name, e.PropertyID, true)
		case domain.EventApplicationClosed:
			if e.Attributes["closed_by"] != string(domain.RoleLandlord) {
				continue
			}
			err = n.email.SendApplicationDecision(ctx, to, name, e.PropertyID, false)
		case domain.EventDisputeResolved:
			err = n.email.SendDisputeOutcome(ctx, to, name, e.DisputeID, domain.DisputeStatus(e.Attributes["outcome"]))
		default:
			continue
		}
		metrics.Core().RecordEmail(err)
		if err != nil {
			logger.Error("Failed to email tenant", "event", e.Type, "event_id", e.ID, "error", err)
		}
	}
}
