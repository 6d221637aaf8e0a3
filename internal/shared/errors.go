package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownIdentity indicates the email is not known to the identity source.
	// It matches ErrInvalidCredentials so callers can treat both alike.
	ErrUnknownIdentity = fmt.Errorf("%w: unknown identity", ErrInvalidCredentials)
	// ErrLoginInProgress is returned when another login attempt is still in flight.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps authentication errors to a message that can be shown on screen.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLoginInProgress):
		return "Já existe um login em andamento. Aguarde."
	case errors.Is(err, ErrInvalidCredentials):
		return "E-mail ou senha inválidos"
	default:
		return "Não foi possível concluir a operação"
	}
}
