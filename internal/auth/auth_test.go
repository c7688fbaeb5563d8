package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raine/facegrade/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sessionPath := filepath.Join(dir, "session")
	return NewService(store, "test-passphrase", sessionPath), sessionPath
}

func TestSignUpAndCurrentIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	assert.Nil(t, svc.CurrentIdentity())
	assert.Nil(t, svc.CurrentSession())

	identity, err := svc.SignUp("User@Example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, identity.ID)
	assert.Equal(t, "user@example.com", identity.Email)

	current := svc.CurrentIdentity()
	require.NotNil(t, current)
	assert.Equal(t, identity.ID, current.ID)

	session := svc.CurrentSession()
	require.NotNil(t, session)
	assert.NotEmpty(t, session.AccessToken)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp("a@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.SignUp("a@example.com", "other-password")
	assert.ErrorContains(t, err, "already exists")
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp("", "password")
	assert.Error(t, err)
	_, err = svc.SignUp("a@example.com", "   ")
	assert.Error(t, err)
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp("a@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut())

	_, err = svc.SignIn("a@example.com", "wrong")
	assert.ErrorContains(t, err, "invalid email or password")

	_, err = svc.SignIn("nobody@example.com", "hunter22")
	assert.ErrorContains(t, err, "invalid email or password")

	identity, err := svc.SignIn("a@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", identity.Email)
}

func TestSessionPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer store.Close()
	sessionPath := filepath.Join(dir, "session")

	svc := NewService(store, "test-passphrase", sessionPath)
	identity, err := svc.SignUp("a@example.com", "hunter22")
	require.NoError(t, err)

	// The session file must not hold the token in the clear
	raw, err := os.ReadFile(sessionPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), svc.CurrentSession().AccessToken)

	restarted := NewService(store, "test-passphrase", sessionPath)
	current := restarted.CurrentIdentity()
	require.NotNil(t, current)
	assert.Equal(t, identity.ID, current.ID)
}

func TestTamperedSessionMeansSignedOut(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer store.Close()
	sessionPath := filepath.Join(dir, "session")

	svc := NewService(store, "test-passphrase", sessionPath)
	_, err = svc.SignUp("a@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(sessionPath, []byte("garbage"), 0600))

	restarted := NewService(store, "test-passphrase", sessionPath)
	assert.Nil(t, restarted.CurrentIdentity())
}

func TestSignOut(t *testing.T) {
	svc, sessionPath := newTestService(t)

	_, err := svc.SignUp("a@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut())

	assert.Nil(t, svc.CurrentIdentity())
	_, err = os.Stat(sessionPath)
	assert.True(t, os.IsNotExist(err))

	// Signing out again is fine
	require.NoError(t, svc.SignOut())
}

func TestOnIdentityChange(t *testing.T) {
	svc, _ := newTestService(t)

	var events []*Identity
	unsubscribe := svc.OnIdentityChange(func(identity *Identity) {
		events = append(events, identity)
	})

	_, err := svc.SignUp("a@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut())

	require.Len(t, events, 2)
	require.NotNil(t, events[0])
	assert.Equal(t, "a@example.com", events[0].Email)
	assert.Nil(t, events[1])

	unsubscribe()
	_, err = svc.SignIn("a@example.com", "hunter22")
	require.NoError(t, err)
	assert.Len(t, events, 2, "unsubscribed callback must not fire")
}
