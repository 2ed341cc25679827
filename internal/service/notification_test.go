package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/service"
)

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendApplicationDecision(ctx context.Context, tenantEmail, tenantName string, propertyID int64, accepted bool) error {
	args := m.Called(ctx, tenantEmail, tenantName, propertyID, accepted)
	return args.Error(0)
}

func (m *MockEmailService) SendDisputeOutcome(ctx context.Context, email, name string, disputeID int64, outcome domain.DisputeStatus) error {
	args := m.Called(ctx, email, name, disputeID, outcome)
	return args.Error(0)
}

type recordingSink struct {
	events []domain.Event
}

func (s *recordingSink) Consume(ctx context.Context, events []domain.Event) {
	s.events = append(s.events, events...)
}

func (s *recordingSink) types() []domain.EventType {
	out := make([]domain.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func TestNotifications_ApplicationLifecycle(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord, tenant, tenant2)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)
	b := f.apply(t, tenant2, p.ID)

	_, err := f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.core.Marketplace.CancelOrReject(f.ctx, landlord, p.ID, b.ID))

	notes, total, err := f.core.Notifications.GetNotifications(f.ctx, landlord.AccountID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	for _, n := range notes {
		assert.Equal(t, "New Rental Application", n.Title)
	}

	notes, _, err = f.core.Notifications.GetNotifications(f.ctx, tenant.AccountID, 1, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Application Accepted", notes[0].Title)
	assert.Equal(t, string(domain.EventApplicationAccepted), notes[0].Attributes["type"])

	notes, _, err = f.core.Notifications.GetNotifications(f.ctx, tenant2.AccountID, 1, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Application Rejected", notes[0].Title)
	assert.False(t, notes[0].IsRead)

	t.Run("Mark as read", func(t *testing.T) {
		err := f.core.Notifications.MarkAsRead(f.ctx, tenant.AccountID, notes[0].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, f.core.Notifications.MarkAsRead(f.ctx, tenant2.AccountID, notes[0].ID))
		after, _, err := f.core.Notifications.GetNotifications(f.ctx, tenant2.AccountID, 1, 10)
		require.NoError(t, err)
		assert.True(t, after[0].IsRead)
	})
}

func TestNotifications_FailedOperationLeavesNothing(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1, landlord)
	p := f.listedProperty(t)

	_, err := f.core.Marketplace.Apply(f.ctx, tenant, p.ID, domain.ContactInfo{}, "")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, total, err := f.core.Notifications.GetNotifications(f.ctx, landlord.AccountID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEvents_PublishedAfterCommit(t *testing.T) {
	sink := &recordingSink{}
	f := newFixture(t, sink)
	f.fund(t, 1, landlord, tenant)
	p := f.listedProperty(t)

	_, err := f.core.Properties.List(f.ctx, landlord, p.ID, 10)
	require.ErrorIs(t, err, domain.ErrPropertyLocked)

	assert.Equal(t, []domain.EventType{
		domain.EventCreditsMinted,
		domain.EventCreditsMinted,
		domain.EventPropertyCreated,
		domain.EventPropertyListed,
	}, sink.types())

	events, err := f.core.Events.ListEvents(f.ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.NotEmpty(t, e.ID)
	}
	assert.Equal(t, landlord.AccountID, events[3].Actor)
	assert.Equal(t, p.ID, events[3].PropertyID)

	tail, err := f.core.Events.ListEvents(f.ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, domain.EventPropertyCreated, tail[0].Type)
}

func TestEmailNotifier(t *testing.T) {
	email := new(MockEmailService)
	f := newFixture(t, service.NewEmailNotifier(email))
	f.fund(t, 1, landlord, tenant, tenant2)
	f.fund(t, 2, tenant)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)
	b := f.apply(t, tenant2, p.ID)

	email.On("SendApplicationDecision", mock.Anything, "tenant@example.com", "tenant", p.ID, true).Return(nil).Once()
	email.On("SendApplicationDecision", mock.Anything, "tenant2@example.com", "tenant2", p.ID, false).Return(errors.New("smtp down")).Once()

	_, err := f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)
	// a failing email never undoes the rejection
	require.NoError(t, f.core.Marketplace.CancelOrReject(f.ctx, landlord, p.ID, b.ID))

	d, err := f.core.Disputes.CreateDispute(f.ctx, tenant, p.ID, a.ID, domain.DisputeTypeNoiseComplaints, "parties")
	require.NoError(t, err)
	email.On("SendDisputeOutcome", mock.Anything, "tenant@example.com", "tenant", d.ID, domain.DisputeStatusDraw).Return(nil).Once()
	_, err = f.core.Disputes.Resolve(f.ctx, admin, d.ID)
	require.NoError(t, err)

	email.AssertExpectations(t)
	assert.Equal(t, int64(100), f.balance(t, tenant2))
}

func TestListEventsHidesContactDetails(t *testing.T) {
	sink := &recordingSink{}
	f := newFixture(t, sink)
	f.fund(t, 1, landlord, tenant)
	p := f.listedProperty(t)
	a := f.apply(t, tenant, p.ID)
	_, err := f.core.Marketplace.AcceptApplication(f.ctx, landlord, p.ID, a.ID)
	require.NoError(t, err)

	last := sink.events[len(sink.events)-1]
	require.Equal(t, domain.EventApplicationAccepted, last.Type)
	assert.Equal(t, "tenant@example.com", last.Attributes["contact_email"])

	events, err := f.core.Events.ListEvents(f.ctx, 0, 0)
	require.NoError(t, err)
	for _, e := range events {
		assert.NotContains(t, e.Attributes, "contact_email", e.Type)
		assert.NotContains(t, e.Attributes, "contact_name", e.Type)
	}
}
