package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerIssueAndVerify(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, grant, err := signer.Issue("job-1", "invoices/invoices_1.csv")
	require.NoError(t, err)

	got, err := signer.Verify(token, false)
	require.NoError(t, err)
	assert.Equal(t, grant.JobID, got.JobID)
	assert.Equal(t, grant.Path, got.Path)
	assert.True(t, grant.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSignerRejectsTamperingAndExpiry(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, _, err := signer.Issue("job-1", "a.csv")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Verify("a.b", false)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = signer.Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	grant, err := signer.Verify(token, true)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", grant.Path)
}

func TestLocalStorageLifecycle(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("salaries/s.csv", []byte("a,b\n"))
	require.NoError(t, err)

	f, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.root, "salaries", "s.csv"), old, old))
	removed, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"salaries/s.csv"}, removed)

	assert.NoError(t, store.Delete(name))
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../evil.csv", []byte("x"))
	assert.ErrorIs(t, err, ErrOutsideRoot)
	_, err = store.Open("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}
