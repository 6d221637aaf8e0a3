package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind names an authentication event.
type Kind string

const (
	KindLoginSucceeded   Kind = "login_succeeded"
	KindLoginFailed      Kind = "login_failed"
	KindLoggedOut        Kind = "logged_out"
	KindRestoreDiscarded Kind = "restore_discarded"
)

// Event is one entry of the authentication trail.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	ClientID string    `json:"client_id"`
	UserID   string    `json:"user_id,omitempty"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// Validate reports whether the event can be stored.
func (e Event) Validate() error {
	switch e.Kind {
	case KindLoginSucceeded, KindLoginFailed, KindLoggedOut, KindRestoreDiscarded:
	default:
		return errors.New("audit: unknown event kind")
	}
	if e.ID == uuid.Nil {
		return errors.New("audit: event id required")
	}
	if e.ClientID == "" {
		return errors.New("audit: client id required")
	}
	if e.At.IsZero() {
		return errors.New("audit: event time required")
	}
	return nil
}
