package domain

import "strings"

// Account represents a registered user. Accounts are immutable after
// signup and are never deleted.
type Account struct {
	Email            string `json:"email"`
	DisplayName      string `json:"displayName"`
	CredentialDigest string `json:"credentialDigest"`
	CreatedAt        int64  `json:"createdAt"`
}

// NormalizeEmail produces the canonical lookup key for an email
// address. The normalized form is stable for the account's lifetime.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
