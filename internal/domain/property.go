package domain

import "time"

type PropertyType string

const (
	PropertyTypeHDB    PropertyType = "HDB"
	PropertyTypeCondo  PropertyType = "CONDO"
	PropertyTypeLanded PropertyType = "LANDED"
	PropertyTypeOther  PropertyType = "OTHER"
)

var propertyTypes = []PropertyType{PropertyTypeHDB, PropertyTypeCondo, PropertyTypeLanded, PropertyTypeOther}

// PropertyTypeFromIndex translates the client's integer encoding.
func PropertyTypeFromIndex(i int) (PropertyType, error) {
	if i < 0 || i >= len(propertyTypes) {
		return "", Errorf(KindInvalidArgument, "unknown property type index %d", i)
	}
	return propertyTypes[i], nil
}

func (t PropertyType) Index() int {
	for i, v := range propertyTypes {
		if v == t {
			return i
		}
	}
	return -1
}

func (t PropertyType) Valid() bool {
	return t.Index() >= 0
}

type Property struct {
	ID                      int64        `json:"id"`
	Landlord                string       `json:"landlord"`
	Location                string       `json:"location"`
	PostalCode              string       `json:"postal_code"`
	UnitNumber              string       `json:"unit_number"`
	PropertyType            PropertyType `json:"property_type"`
	Description             string       `json:"description"`
	TenantCapacity          int32        `json:"tenant_capacity"`
	RentalPrice             int64        `json:"rental_price"`
	LeaseMonths             int32        `json:"lease_months"`
	IsListed                bool         `json:"is_listed"`
	DepositFee              int64        `json:"deposit_fee"`
	PaymentID               int64        `json:"payment_id"` // ledger transaction of the protection fee pay-in
	OutstandingApplications int32        `json:"outstanding_applications"`
	ApplicationSeq          int64        `json:"application_seq"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`
}

// PropertyFields are the landlord-editable attributes of a property.
type PropertyFields struct {
	Location       string       `json:"location"`
	PostalCode     string       `json:"postal_code"`
	UnitNumber     string       `json:"unit_number"`
	PropertyType   PropertyType `json:"property_type"`
	Description    string       `json:"description"`
	TenantCapacity int32        `json:"tenant_capacity"`
	RentalPrice    int64        `json:"rental_price"`
	LeaseMonths    int32        `json:"lease_months"`
}

func (f PropertyFields) Validate() error {
	if !f.PropertyType.Valid() {
		return Errorf(KindInvalidArgument, "unknown property type %q", f.PropertyType)
	}
	if f.TenantCapacity < 1 {
		return Errorf(KindInvalidArgument, "tenant capacity must be at least 1")
	}
	if f.LeaseMonths < 1 {
		return Errorf(KindInvalidArgument, "lease duration must be at least 1 month")
	}
	if f.RentalPrice < 0 {
		return Errorf(KindInvalidArgument, "rental price must not be negative")
	}
	return nil
}

func (p *Property) Apply(f PropertyFields) {
	p.Location = f.Location
	p.PostalCode = f.PostalCode
	p.UnitNumber = f.UnitNumber
	p.PropertyType = f.PropertyType
	p.Description = f.Description
	p.TenantCapacity = f.TenantCapacity
	p.RentalPrice = f.RentalPrice
	p.LeaseMonths = f.LeaseMonths
}

// Mutable reports whether update and delete are currently allowed.
func (p *Property) Mutable() bool {
	return !p.IsListed && p.OutstandingApplications == 0
}

type ListingFilter string

const (
	ListingAll      ListingFilter = ""
	ListingListed   ListingFilter = "LISTED"
	ListingUnlisted ListingFilter = "UNLISTED"
)

func (f ListingFilter) Match(p Property) bool {
	switch f {
	case ListingListed:
		return p.IsListed
	case ListingUnlisted:
		return !p.IsListed
	}
	return true
}
