package api

import (
	"context"

	"vibelist-api/domain"
)

// TaskStore abstracts the task store for handlers.
type TaskStore interface {
	Load(ctx context.Context, sess domain.Session) ([]domain.Task, error)
	Create(ctx context.Context, sess domain.Session, draft domain.Draft) (domain.Task, error)
	Update(ctx context.Context, sess domain.Session, id string, patch domain.Patch) (domain.Task, error)
	ToggleDone(ctx context.Context, sess domain.Session, id string) (domain.Task, error)
	Delete(ctx context.Context, sess domain.Session, id string) error
	ClearCompleted(ctx context.Context, sess domain.Session) (int, error)
}

// AccountDirectory abstracts signup and login.
type AccountDirectory interface {
	Register(ctx context.Context, email, displayName, password string) (domain.Account, error)
	Authenticate(ctx context.Context, email, password string) (domain.Account, error)
}

// Authenticator issues session tokens and resolves them back to
// sessions on subsequent requests.
type Authenticator interface {
	Issue(account domain.Account) (string, error)
	SessionFromAuthHeader(header string) (domain.Session, error)
}
