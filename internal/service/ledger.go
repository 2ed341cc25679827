package service

import (
	"context"
	"fmt"
	"math"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository"
)

// CreditLedger owns account balances and the total credit supply.
type CreditLedger struct {
	rt   *runner
	fees domain.FeeSchedule
}

// posting is one side of a balance movement.
type posting struct {
	account      string
	amount       int64
	kind         domain.TransactionType
	counterparty string
	pool         domain.PoolPurpose
	refs         refs
	description  string
}

func (l *CreditLedger) Mint(ctx context.Context, caller domain.Caller, accountID string, nativeAmount int64) (int64, error) {
	var minted int64
	err := l.rt.run(ctx, "CreditLedger.Mint", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		if !caller.Is(domain.RoleAdmin) {
			return domain.Errorf(domain.KindUnauthorized, "only the settlement channel may mint")
		}
		if accountID == "" {
			return domain.Errorf(domain.KindInvalidArgument, "account is required")
		}
		if nativeAmount <= 0 {
			return domain.Errorf(domain.KindInvalidArgument, "native amount must be positive")
		}
		if nativeAmount > math.MaxInt64/l.fees.CreditsPerNativeUnit {
			return domain.Errorf(domain.KindInvalidArgument, "native amount %d overflows the credit range", nativeAmount)
		}
		minted = nativeAmount * l.fees.CreditsPerNativeUnit
		supply, err := tx.Accounts().GetSupply(ctx)
		if err != nil {
			return err
		}
		if minted > math.MaxInt64-supply {
			return domain.Errorf(domain.KindInvalidArgument, "minting %d credits would exceed the supply limit", minted)
		}

		if _, err := l.credit(ctx, tx, posting{
			account:     accountID,
			amount:      minted,
			kind:        domain.TransactionTypeMint,
			description: fmt.Sprintf("minted against %d native units", nativeAmount),
		}); err != nil {
			return err
		}
		if err := l.adjustSupply(ctx, tx, minted); err != nil {
			return err
		}

		j.record(domain.EventCreditsMinted, refs{}, map[string]string{
			"account": accountID,
			"amount":  itoa(minted),
			"native":  itoa(nativeAmount),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return minted, nil
}

// Redeem burns credits from the caller and returns the native amount released.
func (l *CreditLedger) Redeem(ctx context.Context, caller domain.Caller, credits int64) (int64, error) {
	var native int64
	err := l.rt.run(ctx, "CreditLedger.Redeem", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		if credits <= 0 || credits%l.fees.CreditsPerNativeUnit != 0 {
			return domain.Errorf(domain.KindInvalidArgument, "redeemed credits must be a positive multiple of %d", l.fees.CreditsPerNativeUnit)
		}
		native = credits / l.fees.CreditsPerNativeUnit

		if _, err := l.debit(ctx, tx, posting{
			account:     caller.AccountID,
			amount:      credits,
			kind:        domain.TransactionTypeRedeem,
			description: fmt.Sprintf("redeemed for %d native units", native),
		}); err != nil {
			return err
		}
		if err := l.adjustSupply(ctx, tx, -credits); err != nil {
			return err
		}

		j.record(domain.EventCreditsRedeemed, refs{}, map[string]string{
			"account": caller.AccountID,
			"amount":  itoa(credits),
			"native":  itoa(native),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return native, nil
}

func (l *CreditLedger) Transfer(ctx context.Context, caller domain.Caller, to string, amount int64) error {
	return l.rt.run(ctx, "CreditLedger.Transfer", caller, func(ctx context.Context, tx repository.Tx, j *journal) error {
		if to == "" || to == caller.AccountID {
			return domain.Errorf(domain.KindInvalidArgument, "invalid transfer recipient %q", to)
		}
		if amount <= 0 {
			return domain.Errorf(domain.KindInvalidArgument, "transfer amount must be positive")
		}
		if _, err := l.debit(ctx, tx, posting{
			account:      caller.AccountID,
			amount:       amount,
			kind:         domain.TransactionTypeTransfer,
			counterparty: to,
			description:  "transfer sent",
		}); err != nil {
			return err
		}
		if _, err := l.credit(ctx, tx, posting{
			account:      to,
			amount:       amount,
			kind:         domain.TransactionTypeTransfer,
			counterparty: caller.AccountID,
			description:  "transfer received",
		}); err != nil {
			return err
		}

		j.record(domain.EventCreditsTransferred, refs{}, map[string]string{
			"from":   caller.AccountID,
			"to":     to,
			"amount": itoa(amount),
		})
		return nil
	})
}

func (l *CreditLedger) BalanceOf(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := l.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balance, err = tx.Accounts().GetBalance(ctx, accountID)
		return err
	})
	return balance, err
}

func (l *CreditLedger) TotalSupply(ctx context.Context) (int64, error) {
	var supply int64
	err := l.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		supply, err = tx.Accounts().GetSupply(ctx)
		return err
	})
	return supply, err
}

func (l *CreditLedger) Balances(ctx context.Context) ([]domain.AccountBalance, error) {
	var balances []domain.AccountBalance
	err := l.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balances, err = tx.Accounts().ListBalances(ctx)
		return err
	})
	return balances, err
}

// Reconcile reads supply, account balances and escrow from one snapshot.
func (l *CreditLedger) Reconcile(ctx context.Context) (domain.LedgerTotals, error) {
	var totals domain.LedgerTotals
	err := l.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		supply, err := tx.Accounts().GetSupply(ctx)
		if err != nil {
			return err
		}
		balances, err := tx.Accounts().ListBalances(ctx)
		if err != nil {
			return err
		}
		pools, err := tx.Escrow().ListPools(ctx)
		if err != nil {
			return err
		}
		totals.Supply = supply
		for _, b := range balances {
			totals.Accounts += b.Balance
		}
		for _, p := range pools {
			totals.Escrowed += p.Balance
		}
		return nil
	})
	if err != nil {
		return domain.LedgerTotals{}, err
	}
	return totals, nil
}

func (l *CreditLedger) GetTransactions(ctx context.Context, accountID string, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	var (
		txs   []domain.LedgerTransaction
		total int32
	)
	err := l.rt.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		txs, total, err = tx.Accounts().ListTransactions(ctx, accountID, page, pageSize)
		return err
	})
	return txs, total, err
}

// debit removes p.amount from p.account and journals it. A zero amount is a
// no-op and returns transaction id 0.
func (l *CreditLedger) debit(ctx context.Context, tx repository.Tx, p posting) (int64, error) {
	if p.amount < 0 {
		return 0, domain.Errorf(domain.KindInvariantViolation, "negative debit of %d", p.amount)
	}
	if p.amount == 0 {
		return 0, nil
	}
	balance, err := tx.Accounts().GetBalance(ctx, p.account)
	if err != nil {
		return 0, err
	}
	if balance < p.amount {
		return 0, domain.Errorf(domain.KindInsufficientBalance, "account %s holds %d, needs %d", p.account, balance, p.amount)
	}
	if err := tx.Accounts().SetBalance(ctx, p.account, balance-p.amount); err != nil {
		return 0, err
	}
	return l.journal(ctx, tx, p, -p.amount)
}

func (l *CreditLedger) credit(ctx context.Context, tx repository.Tx, p posting) (int64, error) {
	if p.amount < 0 {
		return 0, domain.Errorf(domain.KindInvariantViolation, "negative credit of %d", p.amount)
	}
	if p.amount == 0 {
		return 0, nil
	}
	balance, err := tx.Accounts().GetBalance(ctx, p.account)
	if err != nil {
		return 0, err
	}
	if err := tx.Accounts().SetBalance(ctx, p.account, balance+p.amount); err != nil {
		return 0, err
	}
	return l.journal(ctx, tx, p, p.amount)
}

func (l *CreditLedger) journal(ctx context.Context, tx repository.Tx, p posting, signed int64) (int64, error) {
	entry := &domain.LedgerTransaction{
		AccountID:     p.account,
		Amount:        signed,
		Type:          p.kind,
		Counterparty:  p.counterparty,
		PoolPurpose:   p.pool,
		PropertyID:    p.refs.propertyID,
		ApplicationID: p.refs.applicationID,
		DisputeID:     p.refs.disputeID,
		Description:   p.description,
		CreatedAt:     l.rt.clock(),
	}
	if err := tx.Accounts().CreateTransaction(ctx, entry); err != nil {
		return 0, fmt.Errorf("failed to record ledger transaction: %w", err)
	}
	return entry.ID, nil
}

func (l *CreditLedger) adjustSupply(ctx context.Context, tx repository.Tx, delta int64) error {
	supply, err := tx.Accounts().GetSupply(ctx)
	if err != nil {
		return err
	}
	if supply+delta < 0 {
		return domain.Errorf(domain.KindInvariantViolation, "supply would drop below zero")
	}
	return tx.Accounts().SetSupply(ctx, supply+delta)
}
