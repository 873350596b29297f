package keycontainer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/vilshansen/kryptor/aead"
	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/kryptorerr"
	"github.com/vilshansen/kryptor/primitives"
)

const (
	testArgon2Iterations = 1
	testArgon2MemoryKiB  = 8 * 1024
	testArgon2Threads    = 1
)

func TestV2RoundTrip(t *testing.T) {
	privateKey := []byte("this is a 32-byte curve25519 sk")
	password := []byte("correct horse")

	container, err := EncryptV2(append([]byte{}, privateKey...), append([]byte{}, password...), constants.Curve25519KeyHeader, testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
	assert.NoError(t, err)

	recovered, header, err := DecryptV2(container, append([]byte{}, password...), testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
	assert.NoError(t, err)
	assert.Equal(t, privateKey, recovered)
	assert.Equal(t, constants.Curve25519KeyHeader, header)
}

func TestV2WrongPasswordRaisesCryptographic(t *testing.T) {
	privateKey := []byte("another 32-byte curve25519 key!")
	password := []byte("correct horse")
	wrongPassword := []byte("wrong horse")

	container, err := EncryptV2(append([]byte{}, privateKey...), append([]byte{}, password...), constants.Ed25519KeyHeader, testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
	assert.NoError(t, err)

	_, _, err = DecryptV2(container, wrongPassword, testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, kryptorerr.Sentinel(kryptorerr.Cryptographic)))
}

func TestV2TamperDetection(t *testing.T) {
	privateKey := []byte("yet another 32-byte private key")
	password := []byte("correct horse")

	container, err := EncryptV2(append([]byte{}, privateKey...), append([]byte{}, password...), constants.Curve25519KeyHeader, testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
	assert.NoError(t, err)

	for _, offset := range []int{0, len(container) / 2, len(container) - 1} {
		mutated := append([]byte{}, container...)
		mutated[offset] ^= 0x01
		_, _, err := DecryptV2(mutated, append([]byte{}, password...), testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
		assert.Error(t, err, "offset %d should have been detected as tampered", offset)
	}
}

func TestVersionDispatch(t *testing.T) {
	v2Container := append(append([]byte{}, constants.Curve25519KeyHeader[:]...), constants.PrivateKeyVersion2[:]...)
	v, err := Version(v2Container)
	assert.NoError(t, err)
	assert.Equal(t, 2, v)

	v1Container := append(append([]byte{}, constants.Ed25519KeyHeader[:]...), constants.PrivateKeyVersion1[:]...)
	v, err = Version(v1Container)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = Version([]byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff})
	assert.Error(t, err)
}

// buildV1Vector assembles a legacy container with a fully fixed (no
// randomness) layout — fixed salt, fixed nonce, fixed password, fixed
// private key — so the blob is deterministic across runs, and binds the
// associated data the same way the on-disk V1 format requires:
// old_header(4) || version1(4). It is not self-referential in the way a
// wrong AD would be, because DecryptV1 itself now requires that same AD.
func buildV1Vector(t *testing.T) (container, password, privateKey []byte) {
	privateKey = []byte("legacy format 32-byte priv key!!")
	password = []byte("correct horse")

	salt := make([]byte, constants.SaltSize)
	for i := range salt {
		salt[i] = byte(i)
	}
	nonce := make([]byte, constants.XNonceSize)
	for i := range nonce {
		nonce[i] = byte(i + 1)
	}

	header := append(append([]byte{}, constants.Curve25519KeyHeader[:]...), constants.PrivateKeyVersion1[:]...)

	key := make([]byte, constants.KeySize)
	passwordCopy := append([]byte{}, password...)
	primitives.Argon2idDerive(key, passwordCopy, salt, constants.Argon2IterationsV1, testArgon2MemoryKiB, testArgon2Threads)

	ciphertext, err := aead.ChaCha20BLAKE2bEncrypt(append([]byte{}, privateKey...), nonce, key, header)
	assert.NoError(t, err)

	container = make([]byte, 0, len(header)+len(salt)+len(nonce)+len(ciphertext))
	container = append(container, header...)
	container = append(container, salt...)
	container = append(container, nonce...)
	container = append(container, ciphertext...)
	return container, password, privateKey
}

func TestV1DecryptsFixedLegacyVector(t *testing.T) {
	container, password, privateKey := buildV1Vector(t)

	recovered, header, err := DecryptV1(container, append([]byte{}, password...), testArgon2MemoryKiB, testArgon2Threads)
	assert.NoError(t, err)
	assert.Equal(t, privateKey, recovered)
	assert.Equal(t, constants.Curve25519KeyHeader, header)
}

func TestV1TamperedAlgorithmHeaderRejected(t *testing.T) {
	container, password, _ := buildV1Vector(t)

	mutated := append([]byte{}, container...)
	mutated[0] ^= 0x01

	_, _, err := DecryptV1(mutated, append([]byte{}, password...), testArgon2MemoryKiB, testArgon2Threads)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, kryptorerr.Sentinel(kryptorerr.Cryptographic)))
}

func TestV1TamperedVersionFieldRejected(t *testing.T) {
	container, password, _ := buildV1Vector(t)

	mutated := append([]byte{}, container...)
	mutated[4] ^= 0x01

	_, _, err := DecryptV1(mutated, append([]byte{}, password...), testArgon2MemoryKiB, testArgon2Threads)
	assert.Error(t, err)
}

func TestV2RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		privateKey := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "privateKey")
		password := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "password")

		container, err := EncryptV2(append([]byte{}, privateKey...), append([]byte{}, password...), constants.Curve25519KeyHeader, testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
		assert.NoError(t, err)

		recovered, _, err := DecryptV2(container, append([]byte{}, password...), testArgon2Iterations, testArgon2MemoryKiB, testArgon2Threads)
		assert.NoError(t, err)
		assert.Equal(t, privateKey, recovered)
	})
}
