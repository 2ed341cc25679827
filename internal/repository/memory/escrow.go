package memory

import (
	"context"
	"sort"

	"rentchain-backend/internal/domain"
)

type escrowRepository struct {
	s  *state
	ro bool
}

func (r escrowRepository) GetPool(ctx context.Context, key domain.PoolKey) (int64, error) {
	return r.s.pools[key], nil
}

func (r escrowRepository) SetPool(ctx context.Context, key domain.PoolKey, balance int64) error {
	if r.ro {
		return errReadOnly
	}
	if balance == 0 {
		delete(r.s.pools, key)
		return nil
	}
	r.s.pools[key] = balance
	return nil
}

func (r escrowRepository) ListPools(ctx context.Context) ([]domain.EscrowPool, error) {
	out := make([]domain.EscrowPool, 0, len(r.s.pools))
	for k, b := range r.s.pools {
		out = append(out, domain.EscrowPool{Key: k, Balance: b})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Purpose != b.Purpose {
			return a.Purpose < b.Purpose
		}
		if a.RefA != b.RefA {
			return a.RefA < b.RefA
		}
		return a.RefB < b.RefB
	})
	return out, nil
}
