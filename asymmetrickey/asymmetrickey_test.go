package asymmetrickey

import (
	"encoding/base64"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/vilshansen/kryptor/constants"
)

func fixedPoint(b byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = b
	}
	return k
}

func TestLoadPublicKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	encoded := base64.StdEncoding.EncodeToString(fixedPoint(0x11))
	assert.Len(t, encoded, constants.PublicKeyLength)
	assert.NoError(t, afero.WriteFile(fs, "pub.key", []byte(encoded), 0o600))

	key, err := LoadPublicKey(fs, "pub.key")
	assert.NoError(t, err)
	assert.Equal(t, fixedPoint(0x11), key)
}

func TestLoadPrivateKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	encoded := base64.StdEncoding.EncodeToString(fixedPoint(0x22))
	assert.Len(t, encoded, constants.PrivateKeyLength)
	assert.NoError(t, afero.WriteFile(fs, "priv.key", []byte(encoded), 0o600))

	key, err := LoadPrivateKey(fs, "priv.key")
	assert.NoError(t, err)
	assert.Equal(t, fixedPoint(0x22), key)
}

func TestParsePublicKeyWrongLengthRejected(t *testing.T) {
	_, err := ParsePublicKey("short", constants.PublicKeyLength)
	assert.Error(t, err)
}

func TestParsePublicKeyNotBase64Rejected(t *testing.T) {
	bogus := make([]byte, constants.PublicKeyLength)
	for i := range bogus {
		bogus[i] = '!'
	}
	_, err := ParsePublicKey(string(bogus), constants.PublicKeyLength)
	assert.Error(t, err)
}

func TestLoadPublicKeyMissingFileRejected(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadPublicKey(fs, "missing.key")
	assert.Error(t, err)
}
