// Package directory maps email identifiers to account records: signup
// with duplicate detection and credential verification on login.
package directory

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"vibelist-api/domain"
	"vibelist-api/storage"
)

// dummyDigest is verified against on the missing-account login path so
// an absent account costs the same as a wrong password.
var dummyDigest, _ = digestPassword("vibelist-dummy")

// Directory owns account records in the persistence adapter.
type Directory struct {
	kv     storage.KV
	logger *log.Logger
	now    func() time.Time
}

// New creates a Directory over the given adapter.
func New(kv storage.KV, logger *log.Logger) *Directory {
	if kv == nil {
		panic("directory.New: kv is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Directory{kv: kv, logger: logger, now: time.Now}
}

// Register creates a new account. It fails with ErrDuplicateAccount
// when one already exists for the normalized email and leaves the
// existing record untouched.
func (d *Directory) Register(ctx context.Context, email, displayName, password string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if err := validateSignup(email, displayName, password); err != nil {
		return domain.Account{}, err
	}

	key := storage.AccountKey(email)
	var existing domain.Account
	found, err := d.kv.Get(ctx, key, &existing)
	if err != nil {
		return domain.Account{}, domain.PersistenceError{Op: "read account", Err: err}
	}
	if found {
		return domain.Account{}, domain.ErrDuplicateAccount
	}

	digest, err := digestPassword(password)
	if err != nil {
		return domain.Account{}, err
	}
	account := domain.Account{
		Email:            email,
		DisplayName:      strings.TrimSpace(displayName),
		CredentialDigest: digest,
		CreatedAt:        d.now().UnixMilli(),
	}
	if err := d.kv.Set(ctx, key, account); err != nil {
		return domain.Account{}, domain.PersistenceError{Op: "write account", Err: err}
	}
	d.logger.WithField("email", email).Info("account registered")
	return account, nil
}

// Authenticate looks up the account by normalized email and verifies
// the password. Absent account and digest mismatch fail with the same
// ErrInvalidCredentials.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)

	var account domain.Account
	found, err := d.kv.Get(ctx, storage.AccountKey(email), &account)
	if err != nil {
		return domain.Account{}, domain.PersistenceError{Op: "read account", Err: err}
	}
	if !found {
		verifyDigest(password, dummyDigest)
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if !verifyDigest(password, account.CredentialDigest) {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	return account, nil
}

func validateSignup(email, displayName, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return domain.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if strings.TrimSpace(displayName) == "" {
		return domain.ValidationError{Field: "displayName", Reason: "must not be empty"}
	}
	if len(password) < 6 {
		return domain.ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	return nil
}
