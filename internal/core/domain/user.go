package domain

// User represents a registered caller identity and its profile.
type User struct {
	Identity          string `json:"identity"` // external caller identifier, stable and unique
	Username          string `json:"username"` // optional handle
	FullName          string `json:"fullName"`
	PersonalAccountID string `json:"personalAccountID"` // PERSONAL account created at registration
}

// AdminGrant marks an identity as holding the Admin role.
type AdminGrant struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
}
