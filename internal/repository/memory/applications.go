package memory

import (
	"context"
	"slices"
	"sort"

	"rentchain-backend/internal/domain"
)

type applicationRepository struct {
	s  *state
	ro bool
}

func (r applicationRepository) Create(ctx context.Context, a *domain.Application) error {
	if r.ro {
		return errReadOnly
	}
	k := appKey{a.PropertyID, a.ID}
	if _, ok := r.s.applications[k]; ok {
		return domain.Errorf(domain.KindInvariantViolation, "application %d/%d already exists", a.PropertyID, a.ID)
	}
	r.store(a)
	return nil
}

func (r applicationRepository) Get(ctx context.Context, propertyID, applicationID int64) (*domain.Application, error) {
	a, ok := r.s.applications[appKey{propertyID, applicationID}]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "application %d/%d not found", propertyID, applicationID)
	}
	a.PaymentIDs = slices.Clone(a.PaymentIDs)
	return &a, nil
}

func (r applicationRepository) FindByTenant(ctx context.Context, propertyID int64, tenant string) (*domain.Application, error) {
	for _, a := range r.s.applications {
		if a.PropertyID == propertyID && a.Tenant == tenant {
			a.PaymentIDs = slices.Clone(a.PaymentIDs)
			return &a, nil
		}
	}
	return nil, nil
}

func (r applicationRepository) Update(ctx context.Context, a *domain.Application) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.s.applications[appKey{a.PropertyID, a.ID}]; !ok {
		return domain.Errorf(domain.KindNotFound, "application %d/%d not found", a.PropertyID, a.ID)
	}
	r.store(a)
	return nil
}

func (r applicationRepository) Delete(ctx context.Context, propertyID, applicationID int64) error {
	if r.ro {
		return errReadOnly
	}
	k := appKey{propertyID, applicationID}
	if _, ok := r.s.applications[k]; !ok {
		return domain.Errorf(domain.KindNotFound, "application %d/%d not found", propertyID, applicationID)
	}
	delete(r.s.applications, k)
	return nil
}

func (r applicationRepository) ListByProperty(ctx context.Context, propertyID int64) ([]domain.Application, error) {
	return r.filter(func(a domain.Application) bool { return a.PropertyID == propertyID }), nil
}

func (r applicationRepository) ListByTenant(ctx context.Context, tenant string) ([]domain.Application, error) {
	return r.filter(func(a domain.Application) bool { return a.Tenant == tenant }), nil
}

func (r applicationRepository) store(a *domain.Application) {
	c := *a
	c.PaymentIDs = slices.Clone(a.PaymentIDs)
	r.s.applications[appKey{a.PropertyID, a.ID}] = c
}

func (r applicationRepository) filter(keep func(domain.Application) bool) []domain.Application {
	var out []domain.Application
	for _, a := range r.s.applications {
		if keep(a) {
			a.PaymentIDs = slices.Clone(a.PaymentIDs)
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PropertyID != out[j].PropertyID {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
