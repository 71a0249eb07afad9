package google

import (
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T, password string) *FileStore {
	t.Helper()
	// xdg caches paths at init, so point it at a temp dir explicitly.
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	store, err := NewFileStore(password)
	require.NoError(t, err)
	return store
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t, "test-password")

	require.NoError(t, store.Set("google-token:default", `{"access_token":"abc"}`))

	got, err := store.Get("google-token:default")
	require.NoError(t, err)
	assert.Equal(t, `{"access_token":"abc"}`, got)
}

func TestFileStoreGetMissing(t *testing.T) {
	store := newTestFileStore(t, "test-password")

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreDelete(t *testing.T) {
	store := newTestFileStore(t, "test-password")

	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Delete("k"))

	_, err := store.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete("k"), ErrNotFound)
}

func TestFileStoreList(t *testing.T) {
	store := newTestFileStore(t, "test-password")

	require.NoError(t, store.Set("google-token:default", "a"))
	require.NoError(t, store.Set("google-token:work", "b"))

	keys, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"google-token:default", "google-token:work"}, keys)
}

func TestFileStoreWrongPassword(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	store, err := NewFileStore("correct-password")
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	other, err := NewFileStore("wrong-password")
	require.NoError(t, err)

	_, err = other.Get("k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

func TestFileStoreMachineKey(t *testing.T) {
	// Empty password falls back to a machine-derived key; the store must
	// still round-trip within the same environment.
	store := newTestFileStore(t, "")

	require.NoError(t, store.Set("k", "v"))
	got, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	store := newTestFileStore(t, "p")

	a, err := store.encrypt([]byte("same plaintext"))
	require.NoError(t, err)
	b, err := store.encrypt([]byte("same plaintext"))
	require.NoError(t, err)

	// Random nonces mean identical plaintexts never share ciphertext.
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTruncated(t *testing.T) {
	store := newTestFileStore(t, "p")

	_, err := store.decrypt([]byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}
