package memory

import (
	"context"
	"sort"

	"rentchain-backend/internal/domain"
)

type accountRepository struct {
	s  *state
	ro bool
}

func (r accountRepository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	return r.s.balances[accountID], nil
}

func (r accountRepository) SetBalance(ctx context.Context, accountID string, balance int64) error {
	if r.ro {
		return errReadOnly
	}
	if balance == 0 {
		delete(r.s.balances, accountID)
		return nil
	}
	r.s.balances[accountID] = balance
	return nil
}

func (r accountRepository) ListBalances(ctx context.Context) ([]domain.AccountBalance, error) {
	out := make([]domain.AccountBalance, 0, len(r.s.balances))
	for id, b := range r.s.balances {
		out = append(out, domain.AccountBalance{AccountID: id, Balance: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (r accountRepository) GetSupply(ctx context.Context) (int64, error) {
	return r.s.supply, nil
}

func (r accountRepository) SetSupply(ctx context.Context, supply int64) error {
	if r.ro {
		return errReadOnly
	}
	r.s.supply = supply
	return nil
}

func (r accountRepository) CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	if r.ro {
		return errReadOnly
	}
	tx.ID = int64(len(r.s.ledgerTxs)) + 1
	r.s.ledgerTxs = append(r.s.ledgerTxs, *tx)
	return nil
}

func (r accountRepository) ListTransactions(ctx context.Context, accountID string, p, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	var matched []domain.LedgerTransaction
	for i := len(r.s.ledgerTxs) - 1; i >= 0; i-- {
		if r.s.ledgerTxs[i].AccountID == accountID {
			matched = append(matched, r.s.ledgerTxs[i])
		}
	}
	start, end := page(len(matched), int(pageSize), int((p-1)*pageSize))
	return matched[start:end], int32(len(matched)), nil
}
