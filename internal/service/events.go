package service

import (
	"context"
	"strings"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/metrics"
	"rentchain-backend/internal/repository"
)

// EventSink reacts to committed events. Sinks run after the operation has
// committed, so a failing sink never undoes the operation.
type EventSink interface {
	Consume(ctx context.Context, events []domain.Event)
}

type EventPublisher struct {
	sinks []EventSink
}

func NewEventPublisher(sinks ...EventSink) *EventPublisher {
	return &EventPublisher{sinks: sinks}
}

func (p *EventPublisher) AddSink(s EventSink) {
	p.sinks = append(p.sinks, s)
}

func (p *EventPublisher) Publish(ctx context.Context, events []domain.Event) {
	if p == nil || len(events) == 0 {
		return
	}
	for _, e := range events {
		metrics.Core().RecordEvent(string(e.Type))
		if e.Type == domain.EventDisputeResolved {
			metrics.Core().RecordDisputeResolved(e.Attributes["outcome"])
		}
		logger.Info("Event published", "type", e.Type, "seq", e.Seq, "actor", e.Actor,
			"property_id", e.PropertyID, "application_id", e.ApplicationID, "dispute_id", e.DisputeID)
	}
	for _, s := range p.sinks {
		s.Consume(ctx, events)
	}
}

type eventService struct {
	store repository.Store
}

func NewEventService(store repository.Store) EventService {
	return &eventService{store: store}
}

func (s *eventService) ListEvents(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var events []domain.Event
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		events, err = tx.Events().ListAfter(ctx, afterSeq, limit)
		return err
	})
	for i := range events {
		events[i].Attributes = redactContact(events[i].Attributes)
	}
	return events, err
}

// redactContact drops the tenant's contact details. They travel with the
// event to the email sink but are not part of the public log.
func redactContact(attrs map[string]string) map[string]string {
	var out map[string]string
	for k, v := range attrs {
		if strings.HasPrefix(k, "contact_") {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(attrs))
		}
		out[k] = v
	}
	return out
}
