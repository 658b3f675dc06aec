package wallet

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeystore(t *testing.T) *KeystoreManager {
	t.Helper()
	km, err := NewKeystoreManager(t.TempDir())
	require.NoError(t, err)
	km.iterations = 1024
	return km
}

func TestKeystore_SaveLoad(t *testing.T) {
	km := newTestKeystore(t)
	w, mnemonic := newTestWallet(t)

	path, err := km.Save(mnemonic, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, km.Path(w.Address().String()), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var ks Keystore
	require.NoError(t, json.Unmarshal(raw, &ks))
	assert.Equal(t, w.Address().String(), ks.Address)
	assert.NotContains(t, string(raw), mnemonic)
	assert.Equal(t, 1024, ks.Crypto.KDFParams.C)

	got, err := km.Load(w.Address().String(), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, got)
}

func TestKeystore_WrongPassword(t *testing.T) {
	km := newTestKeystore(t)
	w, mnemonic := newTestWallet(t)

	_, err := km.Save(mnemonic, "right")
	require.NoError(t, err)

	_, err = km.Load(w.Address().String(), "wrong")
	assert.True(t, errors.Is(err, ErrInvalidPassword))
}

func TestKeystore_RejectsInvalidMnemonic(t *testing.T) {
	km := newTestKeystore(t)
	_, err := km.Save("not a mnemonic", "pw")
	assert.Error(t, err)
}

func TestLoadKeystoreFile_Missing(t *testing.T) {
	_, err := LoadKeystoreFile("/nonexistent/keystore.json", "pw")
	assert.Error(t, err)
}
