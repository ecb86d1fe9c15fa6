package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func writeKey(t *testing.T, path string) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
}

func TestKeyFileAuth(t *testing.T) {
	dir := t.TempDir()

	assert.Nil(t, keyFileAuth(filepath.Join(dir, "missing")))

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	assert.Nil(t, keyFileAuth(garbage))

	key := filepath.Join(dir, "id_ed25519")
	writeKey(t, key)
	assert.NotNil(t, keyFileAuth(key))
}

func TestAuthMethodsFor(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SSH_AUTH_SOCK", "")

	assert.Empty(t, authMethodsFor(""), "no agent and no default keys")

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))
	writeKey(t, filepath.Join(home, ".ssh", "id_ecdsa"))
	assert.Len(t, authMethodsFor(""), 1)

	explicit := filepath.Join(t.TempDir(), "deploy")
	writeKey(t, explicit)
	assert.Len(t, authMethodsFor(explicit), 1, "explicit key replaces defaults")
	assert.Empty(t, authMethodsFor(filepath.Join(home, "nope")))
}

func TestDefaultKeyFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}, defaultKeyFiles())
}

func TestDialSSHNoAuth(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SSH_AUTH_SOCK", "")

	_, err := DialSSH("127.0.0.1", "nobody", SSHOpts{KeyFile: filepath.Join(t.TempDir(), "none")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SSH auth methods")
}
