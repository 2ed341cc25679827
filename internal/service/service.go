package service

import (
	"context"

	"rentchain-backend/internal/domain"
)

type LedgerService interface {
	Mint(ctx context.Context, caller domain.Caller, accountID string, nativeAmount int64) (int64, error)
	Redeem(ctx context.Context, caller domain.Caller, credits int64) (int64, error)
	Transfer(ctx context.Context, caller domain.Caller, to string, amount int64) error
	BalanceOf(ctx context.Context, accountID string) (int64, error)
	TotalSupply(ctx context.Context) (int64, error)
	Balances(ctx context.Context) ([]domain.AccountBalance, error)
	Reconcile(ctx context.Context) (domain.LedgerTotals, error)
	GetTransactions(ctx context.Context, accountID string, page, pageSize int32) ([]domain.LedgerTransaction, int32, error)
}

type EscrowService interface {
	FeeSchedule() domain.FeeSchedule
	ProtectionFee() int64
	VoterReward() int64
	VotePrice() int64
	PoolBalance(ctx context.Context, key domain.PoolKey) (int64, error)
	Pools(ctx context.Context) ([]domain.EscrowPool, error)
	TotalEscrowed(ctx context.Context) (int64, error)
}

type PropertyService interface {
	AddProperty(ctx context.Context, caller domain.Caller, fields domain.PropertyFields) (*domain.Property, error)
	UpdateProperty(ctx context.Context, caller domain.Caller, id int64, fields domain.PropertyFields) (*domain.Property, error)
	DeleteProperty(ctx context.Context, caller domain.Caller, id int64) error
	List(ctx context.Context, caller domain.Caller, id int64, depositFee int64) (*domain.Property, error)
	Unlist(ctx context.Context, caller domain.Caller, id int64) (int64, error)
	UpdateDepositFee(ctx context.Context, caller domain.Caller, id int64, depositFee int64) (*domain.Property, error)
	GetProperty(ctx context.Context, id int64) (*domain.Property, error)
	ListByLandlord(ctx context.Context, landlord string, filter domain.ListingFilter) ([]domain.Property, error)
	ListListed(ctx context.Context) ([]domain.Property, error)
}

type MarketplaceService interface {
	Apply(ctx context.Context, caller domain.Caller, propertyID int64, contact domain.ContactInfo, description string) (*domain.Application, error)
	AcceptApplication(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error)
	CancelOrReject(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) error
	MakePayment(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error)
	AcceptPayment(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error)
	MoveOut(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) error
	GetApplication(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error)
	ListApplicationsByProperty(ctx context.Context, caller domain.Caller, propertyID int64) ([]domain.Application, []domain.Application, error)
	ListApplicationsByTenant(ctx context.Context, tenant string) ([]domain.Application, error)
	CurrentApplication(ctx context.Context, tenant string) (*domain.Application, error)
	DepositAmount(ctx context.Context, propertyID int64) (int64, error)
}

type DisputeService interface {
	CreateDispute(ctx context.Context, caller domain.Caller, propertyID, applicationID int64, disputeType domain.DisputeType, reason string) (*domain.Dispute, error)
	Vote(ctx context.Context, caller domain.Caller, disputeID int64, choice domain.VoteChoice) error
	Resolve(ctx context.Context, caller domain.Caller, disputeID int64) (*domain.Dispute, error)
	ResolveExpired(ctx context.Context, caller domain.Caller) ([]domain.Dispute, error)
	GetDispute(ctx context.Context, id int64) (*domain.Dispute, error)
	ListByTenant(ctx context.Context, tenant string) ([]domain.Dispute, error)
	ListByLandlord(ctx context.Context, landlord string) ([]domain.Dispute, error)
	ListAll(ctx context.Context) ([]domain.Dispute, error)
	VoterCount(ctx context.Context, id int64) (int, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, accountID string, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, accountID string, notificationID int64) error
}

type EventService interface {
	ListEvents(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error)
}

type EmailService interface {
	SendApplicationDecision(ctx context.Context, tenantEmail, tenantName string, propertyID int64, accepted bool) error
	SendDisputeOutcome(ctx context.Context, email, name string, disputeID int64, outcome domain.DisputeStatus) error
}

var (
	_ LedgerService      = (*CreditLedger)(nil)
	_ EscrowService      = (*EscrowVault)(nil)
	_ PropertyService    = (*PropertyRegistry)(nil)
	_ MarketplaceService = (*RentalMarketplace)(nil)
	_ DisputeService     = (*DisputeEngine)(nil)
)
