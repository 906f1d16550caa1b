package domain

// Session identifies an authenticated account for the lifetime of a
// presentation-layer token. It scopes task store calls without
// re-verifying the password.
type Session struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
