// Package keycontainer implements Kryptor's password-protected private-key
// container: the V2 format, sealed with kcChaCha20-Poly1305 under an
// Argon2id-derived key, and the V1 legacy format it can still decrypt,
// sealed with XChaCha20-BLAKE2b under a fixed iteration count. Version
// dispatch is a pure function of the version bytes embedded at a fixed
// offset, with key derivation moved from scrypt to Argon2id and sealing
// adapted to the two-tier AEAD the rest of this module provides.
package keycontainer

import (
	"github.com/vilshansen/kryptor/aead"
	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/kryptorerr"
	"github.com/vilshansen/kryptor/primitives"
)

// incorrectPasswordOrTampering is the single error surface both decrypt
// paths raise on any cryptographic failure; callers must never be able to
// distinguish a wrong password from a tampered container from this alone.
func incorrectPasswordOrTampering() error {
	return kryptorerr.New(kryptorerr.Cryptographic, "incorrect password, or tampering", nil)
}

// EncryptV2 seals privateKey under password, tagged with keyAlgorithmHeader
// (constants.Curve25519KeyHeader or constants.Ed25519KeyHeader), and returns
// the on-disk container bytes. password and privateKey are zeroized before
// returning on every path.
func EncryptV2(privateKey, password []byte, keyAlgorithmHeader [4]byte, argon2Iterations, argon2MemoryKiB, argon2Threads uint32) ([]byte, error) {
	defer primitives.Zeroize(password)
	defer primitives.Zeroize(privateKey)

	salt, err := primitives.RandomBytes(constants.SaltSize)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "generating salt", err)
	}

	nonce := make([]byte, constants.NonceSize)

	key := make([]byte, constants.KeySize)
	primitives.Argon2idDerive(key, password, salt, argon2Iterations, argon2MemoryKiB, argon2Threads)
	defer primitives.Zeroize(key)

	associatedData := make([]byte, 0, 8)
	associatedData = append(associatedData, keyAlgorithmHeader[:]...)
	associatedData = append(associatedData, constants.PrivateKeyVersion2[:]...)

	encrypted, err := aead.KCChaCha20Poly1305Encrypt(privateKey, nonce, key, associatedData)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "sealing private key", err)
	}

	out := make([]byte, 0, len(associatedData)+constants.SaltSize+len(encrypted))
	out = append(out, associatedData...)
	out = append(out, salt...)
	out = append(out, encrypted...)
	return out, nil
}

// DecryptV2 opens a container produced by EncryptV2. password is zeroized
// before returning on every path. Any cryptographic failure — wrong
// password or tampering — surfaces as the same error.
func DecryptV2(container, password []byte, argon2Iterations, argon2MemoryKiB, argon2Threads uint32) (privateKey []byte, keyAlgorithmHeader [4]byte, err error) {
	defer primitives.Zeroize(password)

	const headerLen = 4 + 4
	if len(container) < headerLen+constants.SaltSize+constants.CommitmentSize+constants.TagSize {
		return nil, keyAlgorithmHeader, kryptorerr.New(kryptorerr.InvalidFormat, "private key container too short", nil)
	}

	copy(keyAlgorithmHeader[:], container[0:4])
	version := container[4:8]
	if !primitives.CtEq(version, constants.PrivateKeyVersion2[:]) {
		return nil, keyAlgorithmHeader, kryptorerr.New(kryptorerr.InvalidFormat, "unsupported private key container version", nil)
	}

	associatedData := container[0:headerLen]
	salt := container[headerLen : headerLen+constants.SaltSize]
	encrypted := container[headerLen+constants.SaltSize:]

	nonce := make([]byte, constants.NonceSize)

	key := make([]byte, constants.KeySize)
	primitives.Argon2idDerive(key, password, salt, argon2Iterations, argon2MemoryKiB, argon2Threads)
	defer primitives.Zeroize(key)

	privateKey, decErr := aead.KCChaCha20Poly1305Decrypt(encrypted, nonce, key, associatedData)
	if decErr != nil {
		return nil, keyAlgorithmHeader, incorrectPasswordOrTampering()
	}
	return privateKey, keyAlgorithmHeader, nil
}

// DecryptV1 opens a legacy container: old_header(4) || version1(4) ||
// salt(16) || nonce(24) || ciphertext || tag(16), sealed with
// XChaCha20-BLAKE2b under a password derived via Argon2id at the fixed
// legacy iteration count. The algorithm/version header is bound into the
// seal as associated data (old_header || version1), the same way V2 binds
// its own header, so a flipped header byte is detected rather than silently
// accepted. V1 containers are never produced by this module; decryption-only
// support exists so older private keys keep working.
func DecryptV1(container, password []byte, argon2MemoryKiB, argon2Threads uint32) (privateKey []byte, keyAlgorithmHeader [4]byte, err error) {
	defer primitives.Zeroize(password)

	const headerLen = 4 + 4
	if len(container) < headerLen+constants.SaltSize+constants.XNonceSize+constants.TagSize {
		return nil, keyAlgorithmHeader, kryptorerr.New(kryptorerr.InvalidFormat, "legacy private key container too short", nil)
	}

	copy(keyAlgorithmHeader[:], container[0:4])
	version := container[4:8]
	if !primitives.CtEq(version, constants.PrivateKeyVersion1[:]) {
		return nil, keyAlgorithmHeader, kryptorerr.New(kryptorerr.InvalidFormat, "unsupported legacy private key container version", nil)
	}

	associatedData := container[0:headerLen]
	salt := container[headerLen : headerLen+constants.SaltSize]
	nonce := container[headerLen+constants.SaltSize : headerLen+constants.SaltSize+constants.XNonceSize]
	ciphertext := container[headerLen+constants.SaltSize+constants.XNonceSize:]

	key := make([]byte, constants.KeySize)
	primitives.Argon2idDerive(key, password, salt, constants.Argon2IterationsV1, argon2MemoryKiB, argon2Threads)
	defer primitives.Zeroize(key)

	privateKey, decErr := aead.ChaCha20BLAKE2bDecrypt(ciphertext, nonce, key, associatedData)
	if decErr != nil {
		return nil, keyAlgorithmHeader, incorrectPasswordOrTampering()
	}
	return privateKey, keyAlgorithmHeader, nil
}

// Version reports which version a container's embedded version bytes
// select, without attempting to open it.
func Version(container []byte) (int, error) {
	if len(container) < 8 {
		return 0, kryptorerr.New(kryptorerr.InvalidFormat, "private key container too short to contain a version", nil)
	}
	version := container[4:8]
	switch {
	case primitives.CtEq(version, constants.PrivateKeyVersion1[:]):
		return 1, nil
	case primitives.CtEq(version, constants.PrivateKeyVersion2[:]):
		return 2, nil
	default:
		return 0, kryptorerr.New(kryptorerr.InvalidFormat, "unrecognized private key container version", nil)
	}
}
