package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/metrics"
	"rentchain-backend/internal/repository"
)

// runner executes one public operation as a single store transaction and
// publishes the events it produced once the transaction commits.
type runner struct {
	store     repository.Store
	publisher *EventPublisher

	mu  sync.RWMutex
	now func() time.Time
}

func (r *runner) clock() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.now().UTC()
}

func (r *runner) setNow(fn func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		fn = time.Now
	}
	r.now = fn
}

// journal collects what an operation emits while it runs.
type journal struct {
	actor  string
	now    time.Time
	events []domain.Event
	flows  []escrowFlow
}

type escrowFlow struct {
	purpose   domain.PoolPurpose
	direction string
	amount    int64
}

type refs struct {
	propertyID    int64
	applicationID int64
	disputeID     int64
}

func (j *journal) record(t domain.EventType, r refs, attrs map[string]string) {
	j.events = append(j.events, domain.Event{
		ID:            uuid.NewString(),
		Type:          t,
		Actor:         j.actor,
		PropertyID:    r.propertyID,
		ApplicationID: r.applicationID,
		DisputeID:     r.disputeID,
		Attributes:    attrs,
		CreatedAt:     j.now,
	})
}

func (j *journal) flow(purpose domain.PoolPurpose, direction string, amount int64) {
	j.flows = append(j.flows, escrowFlow{purpose: purpose, direction: direction, amount: amount})
}

func (r *runner) run(ctx context.Context, op string, caller domain.Caller, fn func(ctx context.Context, tx repository.Tx, j *journal) error) error {
	logger.EnterMethod(op, "caller", caller.AccountID, "role", caller.Role)

	var j *journal
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// the store may retry fn, so every attempt starts from a clean journal
		j = &journal{actor: caller.AccountID, now: r.clock()}
		if err := fn(ctx, tx, j); err != nil {
			return err
		}
		for i := range j.events {
			if err := tx.Events().Append(ctx, &j.events[i]); err != nil {
				return fmt.Errorf("failed to append event: %w", err)
			}
			for _, n := range notificationsFor(j.events[i]) {
				if err := tx.Notifications().Create(ctx, &n); err != nil {
					return fmt.Errorf("failed to create notification: %w", err)
				}
			}
		}
		return nil
	})

	metrics.Core().RecordOperation(op, resultLabel(err))
	if err != nil {
		switch domain.KindOf(err) {
		case "", domain.KindInvariantViolation:
			logger.ExitMethodWithError(op, err, "caller", caller.AccountID)
		default:
			logger.GuardRejected(op, err, "caller", caller.AccountID)
		}
		return err
	}

	for _, f := range j.flows {
		metrics.Core().RecordEscrow(string(f.purpose), f.direction, f.amount)
	}
	r.publisher.Publish(ctx, j.events)
	logger.ExitMethod(op, "events", len(j.events))
	return nil
}

func (r *runner) view(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return r.store.View(ctx, fn)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != "" {
		return strings.ToLower(string(kind))
	}
	return "internal"
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
