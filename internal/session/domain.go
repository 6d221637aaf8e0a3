// Package session owns the authenticated principal of a client and its
// login, logout and restore lifecycle.
package session

import (
	"context"

	"github.com/comanda-erp/comanda/internal/rbac"
)

// State is the lifecycle state of a Store.
type State int

const (
	LoggedOut State = iota
	Authenticating
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Authenticating:
		return "authenticating"
	case LoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of a Store at one point in time. Principal is
// non-nil exactly when State is LoggedIn.
type Snapshot struct {
	State     State
	Principal *rbac.Principal
}

// LoggedIn reports whether the snapshot carries a principal.
func (s Snapshot) LoggedIn() bool {
	return s.State == LoggedIn && s.Principal != nil
}

// Identity is what an identity source knows about a user.
type Identity struct {
	ID       string
	Name     string
	Email    string
	Role     rbac.Role
	IsActive bool
}

// Authenticator verifies credentials against an identity source.
type Authenticator interface {
	Authenticate(ctx context.Context, email, credential string) (Identity, error)
}

// Observer receives lifecycle events. Implementations must not block for long.
type Observer interface {
	LoginSucceeded(ctx context.Context, clientID string, p *rbac.Principal)
	LoginFailed(ctx context.Context, clientID string, email string, err error)
	LoggedOut(ctx context.Context, clientID string, p *rbac.Principal)
	RestoreDiscarded(ctx context.Context, clientID string, reason error)
}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) LoginSucceeded(ctx context.Context, clientID string, p *rbac.Principal) {
	for _, obs := range o {
		obs.LoginSucceeded(ctx, clientID, p)
	}
}

func (o Observers) LoginFailed(ctx context.Context, clientID string, email string, err error) {
	for _, obs := range o {
		obs.LoginFailed(ctx, clientID, email, err)
	}
}

func (o Observers) LoggedOut(ctx context.Context, clientID string, p *rbac.Principal) {
	for _, obs := range o {
		obs.LoggedOut(ctx, clientID, p)
	}
}

func (o Observers) RestoreDiscarded(ctx context.Context, clientID string, reason error) {
	for _, obs := range o {
		obs.RestoreDiscarded(ctx, clientID, reason)
	}
}
