package constants

// Principal roles
const (
	RoleCustomer = "customer"
	RolePartner  = "partner"
	RoleAdmin    = "admin"

	// Special role matcher for middleware
	RoleAny = "any"
)

// IsValidRole checks whether the declared principal kind is one we recognize
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RolePartner, RoleAdmin:
		return true
	default:
		return false
	}
}
