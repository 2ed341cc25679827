package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// LedgerService
	"/rentchain.v1.LedgerService/GetFees":         SecurityPublic,
	"/rentchain.v1.LedgerService/Mint":            SecurityAccess,
	"/rentchain.v1.LedgerService/Redeem":          SecurityAccess,
	"/rentchain.v1.LedgerService/Transfer":        SecurityAccess,
	"/rentchain.v1.LedgerService/GetBalance":      SecurityAccess,
	"/rentchain.v1.LedgerService/GetTotalSupply":  SecurityAccess,
	"/rentchain.v1.LedgerService/GetTransactions": SecurityAccess,
	"/rentchain.v1.LedgerService/GetEscrowPools":  SecurityAccess,

	// PropertyService - Public
	"/rentchain.v1.PropertyService/GetProperty":          SecurityPublic,
	"/rentchain.v1.PropertyService/ListListedProperties": SecurityPublic,

	// PropertyService - Access Protected
	"/rentchain.v1.PropertyService/AddProperty":      SecurityAccess,
	"/rentchain.v1.PropertyService/UpdateProperty":   SecurityAccess,
	"/rentchain.v1.PropertyService/DeleteProperty":   SecurityAccess,
	"/rentchain.v1.PropertyService/ListProperty":     SecurityAccess,
	"/rentchain.v1.PropertyService/UnlistProperty":   SecurityAccess,
	"/rentchain.v1.PropertyService/UpdateDepositFee": SecurityAccess,
	"/rentchain.v1.PropertyService/ListMyProperties": SecurityAccess,

	// MarketplaceService - Access Protected
	"/rentchain.v1.MarketplaceService/Apply":                      SecurityAccess,
	"/rentchain.v1.MarketplaceService/AcceptApplication":          SecurityAccess,
	"/rentchain.v1.MarketplaceService/CancelOrReject":             SecurityAccess,
	"/rentchain.v1.MarketplaceService/MakePayment":                SecurityAccess,
	"/rentchain.v1.MarketplaceService/AcceptPayment":              SecurityAccess,
	"/rentchain.v1.MarketplaceService/MoveOut":                    SecurityAccess,
	"/rentchain.v1.MarketplaceService/GetApplication":             SecurityAccess,
	"/rentchain.v1.MarketplaceService/ListApplicationsByProperty": SecurityAccess,
	"/rentchain.v1.MarketplaceService/ListMyApplications":         SecurityAccess,
	"/rentchain.v1.MarketplaceService/GetCurrentApplication":      SecurityAccess,
	"/rentchain.v1.MarketplaceService/GetDepositAmount":           SecurityPublic,

	// DisputeService - Access Protected
	"/rentchain.v1.DisputeService/CreateDispute":   SecurityAccess,
	"/rentchain.v1.DisputeService/Vote":            SecurityAccess,
	"/rentchain.v1.DisputeService/ResolveDispute":  SecurityAccess,
	"/rentchain.v1.DisputeService/GetDispute":      SecurityAccess,
	"/rentchain.v1.DisputeService/ListMyDisputes":  SecurityAccess,
	"/rentchain.v1.DisputeService/ListAllDisputes": SecurityAccess,
	"/rentchain.v1.DisputeService/GetVoterCount":   SecurityAccess,

	// NotificationService - Access Protected
	"/rentchain.v1.NotificationService/GetNotifications":     SecurityAccess,
	"/rentchain.v1.NotificationService/MarkNotificationRead": SecurityAccess,
	"/rentchain.v1.NotificationService/ListEvents":           SecurityAccess,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
