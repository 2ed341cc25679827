package grpc

import (
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"rentchain-backend/internal/domain"
)

// request wraps the decoded Struct with typed field accessors. The first
// conversion failure is kept and reported by err.
type request struct {
	fields map[string]*structpb.Value
	bad    error
}

func newRequest(s *structpb.Struct) *request {
	return &request{fields: s.GetFields()}
}

func (r *request) fail(format string, args ...any) {
	if r.bad == nil {
		r.bad = domain.Errorf(domain.KindInvalidArgument, format, args...)
	}
}

func (r *request) err() error {
	return r.bad
}

func (r *request) has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

func (r *request) String(name string) string {
	v, ok := r.fields[name]
	if !ok {
		return ""
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		r.fail("%s must be a string", name)
		return ""
	}
	return s.StringValue
}

func (r *request) RequiredString(name string) string {
	if !r.has(name) {
		r.fail("%s is required", name)
		return ""
	}
	return r.String(name)
}

// Int64 reads a JSON number that must hold an integral value.
func (r *request) Int64(name string) int64 {
	v, ok := r.fields[name]
	if !ok {
		return 0
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		r.fail("%s must be a number", name)
		return 0
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
		r.fail("%s must be an integer", name)
		return 0
	}
	return int64(f)
}

func (r *request) RequiredInt64(name string) int64 {
	if !r.has(name) {
		r.fail("%s is required", name)
		return 0
	}
	return r.Int64(name)
}

func (r *request) Int32(name string) int32 {
	n := r.Int64(name)
	if n > math.MaxInt32 || n < math.MinInt32 {
		r.fail("%s is out of range", name)
		return 0
	}
	return int32(n)
}

func (r *request) Bool(name string) bool {
	v, ok := r.fields[name]
	if !ok {
		return false
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		r.fail("%s must be a boolean", name)
		return false
	}
	return b.BoolValue
}

func (r *request) PropertyFields() domain.PropertyFields {
	fields := domain.PropertyFields{
		Location:       r.String("location"),
		PostalCode:     r.String("postal_code"),
		UnitNumber:     r.String("unit_number"),
		Description:    r.String("description"),
		TenantCapacity: r.Int32("tenant_capacity"),
		RentalPrice:    r.Int64("rental_price"),
		LeaseMonths:    r.Int32("lease_months"),
	}
	pt, err := domain.PropertyTypeFromIndex(int(r.RequiredInt64("property_type")))
	if err != nil && r.bad == nil {
		r.bad = err
	}
	fields.PropertyType = pt
	return fields
}

func (r *request) ListingFilter() domain.ListingFilter {
	switch f := domain.ListingFilter(r.String("filter")); f {
	case domain.ListingAll, domain.ListingListed, domain.ListingUnlisted:
		return f
	default:
		r.fail("unknown listing filter %q", f)
		return domain.ListingAll
	}
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(m)
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func MapDomainPropertyToProto(p *domain.Property) map[string]any {
	return map[string]any{
		"id":                       p.ID,
		"landlord":                 p.Landlord,
		"location":                 p.Location,
		"postal_code":              p.PostalCode,
		"unit_number":              p.UnitNumber,
		"property_type":            p.PropertyType.Index(),
		"property_type_name":       string(p.PropertyType),
		"description":              p.Description,
		"tenant_capacity":          p.TenantCapacity,
		"rental_price":             p.RentalPrice,
		"lease_months":             p.LeaseMonths,
		"is_listed":                p.IsListed,
		"deposit_fee":              p.DepositFee,
		"payment_id":               p.PaymentID,
		"outstanding_applications": p.OutstandingApplications,
		"created_at":               timestamp(p.CreatedAt),
		"updated_at":               timestamp(p.UpdatedAt),
	}
}

func MapDomainPropertiesToProto(props []domain.Property) []any {
	out := make([]any, 0, len(props))
	for i := range props {
		out = append(out, MapDomainPropertyToProto(&props[i]))
	}
	return out
}

func MapDomainApplicationToProto(a *domain.Application) map[string]any {
	payments := make([]any, 0, len(a.PaymentIDs))
	for _, id := range a.PaymentIDs {
		payments = append(payments, id)
	}
	return map[string]any{
		"property_id":     a.PropertyID,
		"id":              a.ID,
		"tenant":          a.Tenant,
		"landlord":        a.Landlord,
		"contact_name":    a.Contact.Name,
		"contact_email":   a.Contact.Email,
		"contact_phone":   a.Contact.Phone,
		"description":     a.Description,
		"deposit_amount":  a.DepositAmount,
		"months_paid":     a.MonthsPaid,
		"status":          string(a.Status),
		"previous_status": string(a.PreviousStatus),
		"payment_ids":     payments,
		"dispute_id":      a.DisputeID,
		"created_at":      timestamp(a.CreatedAt),
		"updated_at":      timestamp(a.UpdatedAt),
	}
}

func MapDomainApplicationsToProto(apps []domain.Application) []any {
	out := make([]any, 0, len(apps))
	for i := range apps {
		out = append(out, MapDomainApplicationToProto(&apps[i]))
	}
	return out
}

func MapDomainDisputeToProto(d *domain.Dispute) map[string]any {
	approve, reject := d.Tally()
	votes := make([]any, 0, len(d.Votes))
	for _, v := range d.Votes {
		votes = append(votes, map[string]any{
			"validator": v.Validator,
			"choice":    v.Choice.Index(),
			"cast_at":   timestamp(v.CastAt),
		})
	}
	m := map[string]any{
		"id":             d.ID,
		"property_id":    d.PropertyID,
		"application_id": d.ApplicationID,
		"tenant":         d.Tenant,
		"landlord":       d.Landlord,
		"dispute_type":   d.Type.Index(),
		"reason":         d.Reason,
		"start_time":     timestamp(d.StartTime),
		"end_time":       timestamp(d.EndTime),
		"status":         string(d.Status),
		"approve_votes":  approve,
		"reject_votes":   reject,
		"votes":          votes,
		"resolved_at":    nil,
	}
	if d.ResolvedAt != nil {
		m["resolved_at"] = timestamp(*d.ResolvedAt)
	}
	return m
}

func MapDomainDisputesToProto(disputes []domain.Dispute) []any {
	out := make([]any, 0, len(disputes))
	for i := range disputes {
		out = append(out, MapDomainDisputeToProto(&disputes[i]))
	}
	return out
}

func MapDomainTransactionToProto(t *domain.LedgerTransaction) map[string]any {
	return map[string]any{
		"id":             t.ID,
		"account_id":     t.AccountID,
		"amount":         t.Amount,
		"type":           string(t.Type),
		"counterparty":   t.Counterparty,
		"pool_purpose":   string(t.PoolPurpose),
		"property_id":    t.PropertyID,
		"application_id": t.ApplicationID,
		"dispute_id":     t.DisputeID,
		"description":    t.Description,
		"created_at":     timestamp(t.CreatedAt),
	}
}

func MapDomainPoolToProto(p *domain.EscrowPool) map[string]any {
	return map[string]any{
		"purpose": string(p.Key.Purpose),
		"ref_a":   p.Key.RefA,
		"ref_b":   p.Key.RefB,
		"balance": p.Balance,
	}
}

func MapDomainNotificationToProto(n *domain.Notification) map[string]any {
	return map[string]any{
		"id":         n.ID,
		"account_id": n.AccountID,
		"title":      n.Title,
		"message":    n.Message,
		"is_read":    n.IsRead,
		"attributes": stringMap(n.Attributes),
		"created_at": timestamp(n.CreatedAt),
	}
}

func MapDomainEventToProto(e *domain.Event) map[string]any {
	return map[string]any{
		"seq":            e.Seq,
		"id":             e.ID,
		"type":           string(e.Type),
		"actor":          e.Actor,
		"property_id":    e.PropertyID,
		"application_id": e.ApplicationID,
		"dispute_id":     e.DisputeID,
		"attributes":     stringMap(e.Attributes),
		"created_at":     timestamp(e.CreatedAt),
	}
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
