package service

import (
	"time"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

// Core wires the five marketplace components over one store so they share
// a transaction runner, clock and event publisher.
type Core struct {
	Ledger        *CreditLedger
	Vault         *EscrowVault
	Properties    *PropertyRegistry
	Marketplace   *RentalMarketplace
	Disputes      *DisputeEngine
	Notifications NotificationService
	Events        EventService

	rt *runner
}

func NewCore(store repository.Store, fees domain.FeeSchedule, sinks ...EventSink) *Core {
	fees = withDefaults(fees)
	rt := &runner{store: store, publisher: NewEventPublisher(sinks...), now: time.Now}

	ledger := &CreditLedger{rt: rt, fees: fees}
	vault := &EscrowVault{rt: rt, ledger: ledger, fees: fees}
	properties := &PropertyRegistry{rt: rt, vault: vault}
	marketplace := &RentalMarketplace{rt: rt, vault: vault, properties: properties}
	disputes := &DisputeEngine{rt: rt, vault: vault, marketplace: marketplace, fees: fees}

	return &Core{
		Ledger:        ledger,
		Vault:         vault,
		Properties:    properties,
		Marketplace:   marketplace,
		Disputes:      disputes,
		Notifications: NewNotificationService(store),
		Events:        NewEventService(store),
		rt:            rt,
	}
}

// SetNowFunc overrides the clock used for timestamps and dispute windows.
func (c *Core) SetNowFunc(fn func() time.Time) {
	c.rt.setNow(fn)
}

// AddSink registers another consumer of committed events.
func (c *Core) AddSink(s EventSink) {
	c.rt.publisher.AddSink(s)
}

func withDefaults(fees domain.FeeSchedule) domain.FeeSchedule {
	def := domain.DefaultFeeSchedule()
	if fees.CreditsPerNativeUnit <= 0 {
		fees.CreditsPerNativeUnit = def.CreditsPerNativeUnit
	}
	if fees.MinimumVotes <= 0 {
		fees.MinimumVotes = def.MinimumVotes
	}
	if fees.DisputeWindow <= 0 {
		fees.DisputeWindow = def.DisputeWindow
	}
	if fees.TreasuryAccount == "" {
		fees.TreasuryAccount = def.TreasuryAccount
	}
	return fees
}
