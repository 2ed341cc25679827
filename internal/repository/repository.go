package repository

import (
	"context"
	"time"

	"rentchain-backend/internal/domain"
)

// Store runs units of work. Everything fn writes through tx becomes visible
// together when fn returns nil, and nothing does when it returns an error.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Accounts() AccountRepository
	Escrow() EscrowRepository
	Properties() PropertyRepository
	Applications() ApplicationRepository
	Disputes() DisputeRepository
	Events() EventRepository
	Notifications() NotificationRepository
}

type AccountRepository interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	SetBalance(ctx context.Context, accountID string, balance int64) error
	ListBalances(ctx context.Context) ([]domain.AccountBalance, error)
	GetSupply(ctx context.Context) (int64, error)
	SetSupply(ctx context.Context, supply int64) error
	CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error
	ListTransactions(ctx context.Context, accountID string, page, pageSize int32) ([]domain.LedgerTransaction, int32, error)
}

type EscrowRepository interface {
	GetPool(ctx context.Context, key domain.PoolKey) (int64, error)
	SetPool(ctx context.Context, key domain.PoolKey, balance int64) error
	ListPools(ctx context.Context) ([]domain.EscrowPool, error)
}

type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) error
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	Delete(ctx context.Context, id int64) error
	ListByLandlord(ctx context.Context, landlord string, filter domain.ListingFilter) ([]domain.Property, error)
	ListListed(ctx context.Context) ([]domain.Property, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *domain.Application) error
	Get(ctx context.Context, propertyID, applicationID int64) (*domain.Application, error)
	FindByTenant(ctx context.Context, propertyID int64, tenant string) (*domain.Application, error) // nil when absent
	Update(ctx context.Context, a *domain.Application) error
	Delete(ctx context.Context, propertyID, applicationID int64) error
	ListByProperty(ctx context.Context, propertyID int64) ([]domain.Application, error)
	ListByTenant(ctx context.Context, tenant string) ([]domain.Application, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, d *domain.Dispute) error
	GetByID(ctx context.Context, id int64) (*domain.Dispute, error)
	UpdateStatus(ctx context.Context, d *domain.Dispute) error
	AddVote(ctx context.Context, v *domain.Vote) error
	ListByTenant(ctx context.Context, tenant string) ([]domain.Dispute, error)
	ListByLandlord(ctx context.Context, landlord string) ([]domain.Dispute, error)
	ListAll(ctx context.Context) ([]domain.Dispute, error)
	ListPendingEndedBefore(ctx context.Context, t time.Time) ([]domain.Dispute, error)
}

type EventRepository interface {
	Append(ctx context.Context, e *domain.Event) error
	ListAfter(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, accountID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id int64, accountID string) error
}
