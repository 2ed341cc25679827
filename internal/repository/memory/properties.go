package memory

import (
	"context"
	"sort"

	"rentchain-backend/internal/domain"
)

type propertyRepository struct {
	s  *state
	ro bool
}

func (r propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	if r.ro {
		return errReadOnly
	}
	r.s.nextPropertyID++
	p.ID = r.s.nextPropertyID
	r.s.properties[p.ID] = *p
	return nil
}

func (r propertyRepository) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	p, ok := r.s.properties[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "property %d not found", id)
	}
	return &p, nil
}

func (r propertyRepository) Update(ctx context.Context, p *domain.Property) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.s.properties[p.ID]; !ok {
		return domain.Errorf(domain.KindNotFound, "property %d not found", p.ID)
	}
	r.s.properties[p.ID] = *p
	return nil
}

func (r propertyRepository) Delete(ctx context.Context, id int64) error {
	if r.ro {
		return errReadOnly
	}
	if _, ok := r.s.properties[id]; !ok {
		return domain.Errorf(domain.KindNotFound, "property %d not found", id)
	}
	delete(r.s.properties, id)
	return nil
}

func (r propertyRepository) ListByLandlord(ctx context.Context, landlord string, filter domain.ListingFilter) ([]domain.Property, error) {
	return r.filter(func(p domain.Property) bool {
		return p.Landlord == landlord && filter.Match(p)
	}), nil
}

func (r propertyRepository) ListListed(ctx context.Context) ([]domain.Property, error) {
	return r.filter(func(p domain.Property) bool { return p.IsListed }), nil
}

func (r propertyRepository) filter(keep func(domain.Property) bool) []domain.Property {
	var out []domain.Property
	for _, p := range r.s.properties {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
