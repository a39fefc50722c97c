package auth

import (
	"testing"
	"time"

	"WebChat/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	tok, err := m.IssueToken("alice")
	require.NoError(t, err)

	subject, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	tok, err := m.IssueToken("alice")
	require.NoError(t, err)

	_, err = m.VerifyToken(tok)
	require.Error(t, err)
	ce, ok := errs.AsCode(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeTokenExpired, ce.Code)
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)
	tok, err := issuer.IssueToken("alice")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(tok)
	require.Error(t, err)
	ce, ok := errs.AsCode(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeTokenInvalid, ce.Code)
}

func TestGarbageTokenRejected(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	_, err := m.VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	m := NewManager("s", time.Hour)
	hashed, err := m.HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hashed)

	assert.True(t, m.CheckPassword(hashed, "hunter22"))
	assert.False(t, m.CheckPassword(hashed, "hunter23"))
}
