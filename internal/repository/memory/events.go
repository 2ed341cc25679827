package memory

import (
	"context"

	"rentchain-backend/internal/domain"
)

type eventRepository struct {
	s  *state
	ro bool
}

func (r eventRepository) Append(ctx context.Context, e *domain.Event) error {
	if r.ro {
		return errReadOnly
	}
	e.Seq = int64(len(r.s.events)) + 1
	r.s.events = append(r.s.events, *e)
	return nil
}

func (r eventRepository) ListAfter(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error) {
	if afterSeq < 0 {
		afterSeq = 0
	}
	if afterSeq >= int64(len(r.s.events)) {
		return nil, nil
	}
	start, end := page(len(r.s.events), int(limit), int(afterSeq))
	return append([]domain.Event(nil), r.s.events[start:end]...), nil
}

type notificationRepository struct {
	s  *state
	ro bool
}

func (r notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if r.ro {
		return errReadOnly
	}
	n.ID = int64(len(r.s.notifications)) + 1
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepository) List(ctx context.Context, accountID string, limit, offset int32) ([]domain.Notification, int32, error) {
	var matched []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].AccountID == accountID {
			matched = append(matched, r.s.notifications[i])
		}
	}
	start, end := page(len(matched), int(limit), int(offset))
	return matched[start:end], int32(len(matched)), nil
}

func (r notificationRepository) MarkAsRead(ctx context.Context, id int64, accountID string) error {
	if r.ro {
		return errReadOnly
	}
	if id < 1 || id > int64(len(r.s.notifications)) || r.s.notifications[id-1].AccountID != accountID {
		return domain.Errorf(domain.KindNotFound, "notification %d not found", id)
	}
	r.s.notifications[id-1].IsRead = true
	return nil
}
