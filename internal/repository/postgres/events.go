package postgres

import (
	"context"
	"encoding/json"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/repository"
)

type eventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, e *domain.Event) error {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return err
	}
	query := `INSERT INTO events (id, type, actor, property_id, application_id, dispute_id, attributes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING seq`
	return r.db.QueryRowContext(ctx, query, e.ID, e.Type, e.Actor, e.PropertyID, e.ApplicationID, e.DisputeID,
		attrs, e.CreatedAt).Scan(&e.Seq)
}

func (r *eventRepository) ListAfter(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error) {
	query := `SELECT seq, id, type, actor, property_id, application_id, dispute_id, attributes, created_on
	          FROM events WHERE seq > $1 ORDER BY seq LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e     domain.Event
			attrs []byte
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.Type, &e.Actor, &e.PropertyID, &e.ApplicationID, &e.DisputeID, &attrs, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "accountID", n.AccountID, "title", n.Title)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}

	query := `INSERT INTO notifications (account_id, title, message, is_read, attributes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "accountID", n.AccountID)
	err = r.db.QueryRowContext(ctx, query, n.AccountID, n.Title, n.Message, n.IsRead, attrs, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "accountID", n.AccountID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) List(ctx context.Context, accountID string, limit, offset int32) ([]domain.Notification, int32, error) {
	query := `SELECT id, account_id, title, message, is_read, attributes, created_on
	          FROM notifications WHERE account_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var (
			n     domain.Notification
			attrs []byte
		)
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Message, &n.IsRead, &attrs, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE account_id = $1`, accountID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return notes, count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id int64, accountID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND account_id = $2`, id, accountID)
	return expectRow(res, err, "notification %d not found", id)
}
