// Package memory is a process-local Store. Every transaction works on a
// private copy of the state that replaces the shared one only on success.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

type appKey struct {
	propertyID    int64
	applicationID int64
}

type state struct {
	balances       map[string]int64
	supply         int64
	ledgerTxs      []domain.LedgerTransaction
	pools          map[domain.PoolKey]int64
	properties     map[int64]domain.Property
	nextPropertyID int64
	applications   map[appKey]domain.Application
	disputes       map[int64]domain.Dispute
	nextDisputeID  int64
	events         []domain.Event
	notifications  []domain.Notification
}

func newState() *state {
	return &state{
		balances:     make(map[string]int64),
		pools:        make(map[domain.PoolKey]int64),
		properties:   make(map[int64]domain.Property),
		applications: make(map[appKey]domain.Application),
		disputes:     make(map[int64]domain.Dispute),
	}
}

func (s *state) clone() *state {
	c := *s
	c.balances = maps.Clone(s.balances)
	c.ledgerTxs = slices.Clone(s.ledgerTxs)
	c.pools = maps.Clone(s.pools)
	c.properties = maps.Clone(s.properties)
	c.applications = make(map[appKey]domain.Application, len(s.applications))
	for k, a := range s.applications {
		a.PaymentIDs = slices.Clone(a.PaymentIDs)
		c.applications[k] = a
	}
	c.disputes = make(map[int64]domain.Dispute, len(s.disputes))
	for k, d := range s.disputes {
		d.Votes = slices.Clone(d.Votes)
		c.disputes[k] = d
	}
	c.events = slices.Clone(s.events)
	c.notifications = slices.Clone(s.notifications)
	return &c
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &tx{s: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// View runs fn against the committed state under the lock. Reads return
// copies; writes fail with errReadOnly.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &tx{s: s.state, readOnly: true})
}

var errReadOnly = domain.Errorf(domain.KindInvariantViolation, "write inside a read-only view")

type tx struct {
	s        *state
	readOnly bool
}

func (t *tx) Accounts() repository.AccountRepository { return accountRepository{t.s, t.readOnly} }
func (t *tx) Escrow() repository.EscrowRepository     { return escrowRepository{t.s, t.readOnly} }
func (t *tx) Properties() repository.PropertyRepository {
	return propertyRepository{t.s, t.readOnly}
}
func (t *tx) Applications() repository.ApplicationRepository {
	return applicationRepository{t.s, t.readOnly}
}
func (t *tx) Disputes() repository.DisputeRepository { return disputeRepository{t.s, t.readOnly} }
func (t *tx) Events() repository.EventRepository     { return eventRepository{t.s, t.readOnly} }
func (t *tx) Notifications() repository.NotificationRepository {
	return notificationRepository{t.s, t.readOnly}
}

var _ repository.Store = (*Store)(nil)

func page(total, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return offset, end
}
