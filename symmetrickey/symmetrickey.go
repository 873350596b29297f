// Package symmetrickey resolves a user-supplied string to a 32-byte
// symmetric key: the empty string, the " " generate-and-display sentinel, a
// base64 key-string, an existing keyfile, a directory to create a keyfile
// in, or a bare name to create a keyfile at. Key-string generation produces
// a displayed key the same way a displayed password would be generated, and
// keyfile hashing is built on primitives.Blake2bHashStream so a keyfile of
// any size is hashed without being loaded whole into memory.
package symmetrickey

import (
	"encoding/base64"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/kryptorerr"
	"github.com/vilshansen/kryptor/primitives"
)

// Result carries the resolved key and, when one was generated or created,
// what the caller should display to the user so the key can be recovered
// later.
type Result struct {
	Key     []byte
	Display string
}

// Resolve implements the classification in §4.4: empty → none; " " →
// generate and display; base64 key-string → decode; existing file →
// keyfile hash; directory → create a keyfile inside it; otherwise → create
// or hash a keyfile at the (possibly extended) path.
func Resolve(fs afero.Fs, s string) (Result, error) {
	if s == "" {
		return Result{}, nil
	}

	if s == " " {
		return generateAndDisplay()
	}

	if len(s) > 0 && s[len(s)-1] == '=' {
		key, err := DecodeKeyString(s)
		if err != nil {
			return Result{}, err
		}
		return Result{Key: key}, nil
	}

	info, statErr := fs.Stat(s)
	if statErr == nil && !info.IsDir() {
		key, err := ReadKeyfile(fs, s)
		if err != nil {
			return Result{}, err
		}
		return Result{Key: key}, nil
	}

	path := s
	if statErr == nil && info.IsDir() {
		name, err := primitives.RandomFilenameChars(constants.RandomFilenameCharsLength)
		if err != nil {
			return Result{}, kryptorerr.New(kryptorerr.Cryptographic, "generating random keyfile name", err)
		}
		path = filepath.Join(s, name+constants.KeyfileExtension)
	} else if filepath.Ext(path) != constants.KeyfileExtension {
		path += constants.KeyfileExtension
	}

	if _, err := fs.Stat(path); err == nil {
		key, err := ReadKeyfile(fs, path)
		if err != nil {
			return Result{}, err
		}
		return Result{Key: key}, nil
	}

	return createAndHashKeyfile(fs, path)
}

func generateAndDisplay() (Result, error) {
	key, err := primitives.RandomBytes(constants.KeySize)
	if err != nil {
		return Result{}, kryptorerr.New(kryptorerr.Cryptographic, "generating symmetric key", err)
	}

	tagged := make([]byte, 0, len(constants.SymmetricKeyHeader)+len(key))
	tagged = append(tagged, constants.SymmetricKeyHeader...)
	tagged = append(tagged, key...)

	return Result{Key: key, Display: base64.StdEncoding.EncodeToString(tagged)}, nil
}

func createAndHashKeyfile(fs afero.Fs, path string) (Result, error) {
	raw, err := primitives.RandomBytes(constants.KeyfileLength)
	if err != nil {
		return Result{}, kryptorerr.New(kryptorerr.Cryptographic, "generating keyfile contents", err)
	}

	if err := afero.WriteFile(fs, path, raw, 0o400); err != nil {
		return Result{}, kryptorerr.New(kryptorerr.Io, "writing keyfile", err)
	}
	primitives.Zeroize(raw)

	key, err := ReadKeyfile(fs, path)
	if err != nil {
		return Result{}, err
	}
	return Result{Key: key}, nil
}

// DecodeKeyString implements §4.4.1: s must be exactly SymmetricKeyLength
// characters, base64-decode to header(4) || key(32), with the header
// checked in constant time against constants.SymmetricKeyHeader.
func DecodeKeyString(s string) ([]byte, error) {
	if len(s) != constants.SymmetricKeyLength {
		return nil, kryptorerr.New(kryptorerr.InvalidFormat, "symmetric key string has the wrong length", nil)
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.InvalidFormat, "symmetric key string is not valid base64", err)
	}

	headerLen := len(constants.SymmetricKeyHeader)
	if len(raw) != headerLen+constants.KeySize {
		return nil, kryptorerr.New(kryptorerr.InvalidFormat, "decoded symmetric key string has the wrong length", nil)
	}

	if !primitives.CtEq(raw[:headerLen], []byte(constants.SymmetricKeyHeader)) {
		return nil, kryptorerr.New(kryptorerr.InvalidFormat, "symmetric key string has the wrong header", nil)
	}

	key := make([]byte, constants.KeySize)
	copy(key, raw[headerLen:])
	return key, nil
}

// ReadKeyfile implements §4.4.2: the resolved key is the unkeyed BLAKE2b
// digest, HashLength bytes, of the keyfile's entire contents.
func ReadKeyfile(fs afero.Fs, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Io, "opening keyfile", err)
	}
	defer f.Close()

	digest, err := primitives.Blake2bHashStream(f, constants.HashLength)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Io, "hashing keyfile", err)
	}
	return digest, nil
}
