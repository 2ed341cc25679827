package domain

type Role string

const (
	RoleLandlord  Role = "LANDLORD"
	RoleTenant    Role = "TENANT"
	RoleValidator Role = "VALIDATOR"
	RoleAdmin     Role = "ADMIN"
	RoleSystem    Role = "SYSTEM"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLandlord, RoleTenant, RoleValidator, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Caller is the authenticated actor supplied by the identity layer.
type Caller struct {
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
}

func (c Caller) Is(role Role) bool {
	return c.Role == role
}

// SystemCaller is used by scheduled jobs.
func SystemCaller() Caller {
	return Caller{AccountID: "system", Role: RoleSystem}
}
