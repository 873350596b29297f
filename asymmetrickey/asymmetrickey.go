// Package asymmetrickey loads and validates the base64 Curve25519 public
// and private keys the surrounding protocol hands to the engine for
// key-container sealing and unwrapping, using golang.org/x/crypto/curve25519
// as the validation context for key length.
package asymmetrickey

import (
	"encoding/base64"

	"github.com/spf13/afero"
	"golang.org/x/crypto/curve25519"

	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/kryptorerr"
)

// LoadPublicKey reads path as ASCII, requiring exactly
// constants.PublicKeyLength characters, and base64-decodes it.
func LoadPublicKey(fs afero.Fs, path string) ([]byte, error) {
	return loadKey(fs, path, constants.PublicKeyLength)
}

// LoadPrivateKey reads path as ASCII, requiring exactly
// constants.PrivateKeyLength characters, and base64-decodes it.
func LoadPrivateKey(fs afero.Fs, path string) ([]byte, error) {
	return loadKey(fs, path, constants.PrivateKeyLength)
}

func loadKey(fs afero.Fs, path string, wantLength int) ([]byte, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Io, "reading key file", err)
	}
	return ParsePublicKey(string(raw), wantLength)
}

// ParsePublicKey base64-decodes chars directly, requiring exactly
// wantLength characters and a decoded length of curve25519.PointSize.
func ParsePublicKey(chars string, wantLength int) ([]byte, error) {
	if len(chars) != wantLength {
		return nil, kryptorerr.New(kryptorerr.InvalidFormat, "key has the wrong length", nil)
	}

	key, err := base64.StdEncoding.DecodeString(chars)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.InvalidFormat, "key is not valid base64", err)
	}

	if len(key) != curve25519.PointSize {
		return nil, kryptorerr.New(kryptorerr.InvalidFormat, "decoded key has the wrong length", nil)
	}

	return key, nil
}
