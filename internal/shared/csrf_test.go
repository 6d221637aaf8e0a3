package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSRFTokenBoundToClient(t *testing.T) {
	m := NewCSRFManager("secret")
	token := m.Token("client-a")
	assert.NotEmpty(t, token)
	assert.Equal(t, token, m.Token("client-a"))

	assert.NoError(t, m.VerifyToken("client-a", token))
	assert.ErrorIs(t, m.VerifyToken("client-b", token), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken("client-a", ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken("", token), ErrCSRFTokenMissing)
	assert.Empty(t, m.Token(""))

	other := NewCSRFManager("other")
	assert.ErrorIs(t, other.VerifyToken("client-a", token), ErrCSRFTokenMismatch)
}

func TestUserSafeMessage(t *testing.T) {
	assert.Equal(t, "E-mail ou senha inválidos", UserSafeMessage(ErrUnknownIdentity))
	assert.Equal(t, "E-mail ou senha inválidos", UserSafeMessage(ErrInvalidCredentials))
	assert.Contains(t, UserSafeMessage(ErrLoginInProgress), "andamento")
	assert.Empty(t, UserSafeMessage(nil))
}
