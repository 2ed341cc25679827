package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"rentchain-backend/internal/domain"
)

type disputeRepository struct {
	s  *state
	ro bool
}

func (r disputeRepository) Create(ctx context.Context, d *domain.Dispute) error {
	if r.ro {
		return errReadOnly
	}
	r.s.nextDisputeID++
	d.ID = r.s.nextDisputeID
	c := *d
	c.Votes = slices.Clone(d.Votes)
	r.s.disputes[d.ID] = c
	return nil
}

func (r disputeRepository) GetByID(ctx context.Context, id int64) (*domain.Dispute, error) {
	d, ok := r.s.disputes[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "dispute %d not found", id)
	}
	d.Votes = slices.Clone(d.Votes)
	return &d, nil
}

func (r disputeRepository) UpdateStatus(ctx context.Context, d *domain.Dispute) error {
	if r.ro {
		return errReadOnly
	}
	cur, ok := r.s.disputes[d.ID]
	if !ok {
		return domain.Errorf(domain.KindNotFound, "dispute %d not found", d.ID)
	}
	cur.Status = d.Status
	cur.ResolvedAt = d.ResolvedAt
	r.s.disputes[d.ID] = cur
	return nil
}

func (r disputeRepository) AddVote(ctx context.Context, v *domain.Vote) error {
	if r.ro {
		return errReadOnly
	}
	d, ok := r.s.disputes[v.DisputeID]
	if !ok {
		return domain.Errorf(domain.KindNotFound, "dispute %d not found", v.DisputeID)
	}
	if d.HasVoted(v.Validator) {
		return domain.Errorf(domain.KindAlreadyVoted, "validator %s already voted on dispute %d", v.Validator, v.DisputeID)
	}
	d.Votes = append(slices.Clone(d.Votes), *v)
	r.s.disputes[v.DisputeID] = d
	return nil
}

func (r disputeRepository) ListByTenant(ctx context.Context, tenant string) ([]domain.Dispute, error) {
	return r.filter(func(d domain.Dispute) bool { return d.Tenant == tenant }), nil
}

func (r disputeRepository) ListByLandlord(ctx context.Context, landlord string) ([]domain.Dispute, error) {
	return r.filter(func(d domain.Dispute) bool { return d.Landlord == landlord }), nil
}

func (r disputeRepository) ListAll(ctx context.Context) ([]domain.Dispute, error) {
	return r.filter(func(domain.Dispute) bool { return true }), nil
}

func (r disputeRepository) ListPendingEndedBefore(ctx context.Context, t time.Time) ([]domain.Dispute, error) {
	return r.filter(func(d domain.Dispute) bool {
		return d.Status == domain.DisputeStatusPending && !t.Before(d.EndTime)
	}), nil
}

func (r disputeRepository) filter(keep func(domain.Dispute) bool) []domain.Dispute {
	var out []domain.Dispute
	for _, d := range r.s.disputes {
		if keep(d) {
			d.Votes = slices.Clone(d.Votes)
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
