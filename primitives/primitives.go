// Package primitives is the façade over Kryptor's underlying cryptographic
// library. Every other package in this module reaches the outside world
// (crypto/rand, golang.org/x/crypto/{chacha20,poly1305,blake2b,argon2}) only
// through here: one place that knows about the concrete algorithms,
// everything else calls named operations.
//
// Secret inputs are always passed by reference; callers own the buffer's
// lifetime and are responsible for calling Zeroize on it.
package primitives

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"runtime"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/poly1305"

	"github.com/vilshansen/kryptor/constants"
)

// RandomFill fills buf with cryptographically secure random bytes.
func RandomFill(buf []byte) error {
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Errorf("primitives: reading random bytes: %w", err)
	}
	return nil
}

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := RandomFill(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandomFilenameChars returns n characters drawn uniformly from
// constants.PasswordCharPool, suitable for a generated keyfile name or
// password.
func RandomFilenameChars(n int) (string, error) {
	poolLen := big.NewInt(int64(len(constants.PasswordCharPool)))
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, poolLen)
		if err != nil {
			return "", fmt.Errorf("primitives: drawing random index: %w", err)
		}
		out[i] = constants.PasswordCharPool[idx.Int64()]
	}
	return string(out), nil
}

// Blake2bHash hashes msg unkeyed, to outLen bytes.
func Blake2bHash(msg []byte, outLen int) ([]byte, error) {
	h, err := blake2b.New(outLen, nil)
	if err != nil {
		return nil, fmt.Errorf("primitives: blake2b init: %w", err)
	}
	h.Write(msg)
	return h.Sum(nil), nil
}

// Blake2bHashStream hashes everything read from r, unkeyed, to outLen bytes.
// Used by the keyfile resolver so a keyfile of arbitrary size is hashed
// without loading it entirely into memory.
func Blake2bHashStream(r io.Reader, outLen int) ([]byte, error) {
	h, err := blake2b.New(outLen, nil)
	if err != nil {
		return nil, fmt.Errorf("primitives: blake2b init: %w", err)
	}
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("primitives: hashing stream: %w", err)
	}
	return h.Sum(nil), nil
}

// Blake2bKeyed computes a keyed BLAKE2b MAC over msg, to outLen bytes. This is
// the construction behind ChaCha20-BLAKE2b's encrypt-then-MAC step.
func Blake2bKeyed(msg, key []byte, outLen int) ([]byte, error) {
	h, err := blake2b.New(outLen, key)
	if err != nil {
		return nil, fmt.Errorf("primitives: blake2b keyed init: %w", err)
	}
	h.Write(msg)
	return h.Sum(nil), nil
}

// Blake2bKeyDerivation derives outLen bytes from ikm, domain-separated by
// salt and personal. golang.org/x/crypto/blake2b exposes keyed hashing but
// not libsodium's native salt/personal block parameters, so this derives a
// per-call subkey from (salt, personal) and uses that as the BLAKE2b key over
// ikm — the same two-step shape libsodium uses internally, built from the
// primitive this module actually exposes.
func Blake2bKeyDerivation(ikm, salt, personal []byte, outLen int) ([]byte, error) {
	domain, err := Blake2bHash(append(append([]byte{}, salt...), personal...), 64)
	if err != nil {
		return nil, err
	}
	defer Zeroize(domain)
	return Blake2bKeyed(ikm, domain, outLen)
}

// Argon2idDerive derives a key of len(outKey) bytes from password and salt
// using Argon2id with the given work factors, writing the result into
// outKey.
func Argon2idDerive(outKey, password, salt []byte, iterations, memoryKiB, threads uint32) {
	derived := argon2.IDKey(password, salt, iterations, memoryKiB, uint8(threads), uint32(len(outKey)))
	copy(outKey, derived)
	Zeroize(derived)
}

// ChaCha20Keystream writes len(out) bytes of ChaCha20 keystream under
// (key, nonce) starting at the given block counter into out.
func ChaCha20Keystream(out, nonce, key []byte, counter uint32) error {
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return fmt.Errorf("primitives: chacha20 init: %w", err)
	}
	c.SetCounter(counter)
	for i := range out {
		out[i] = 0
	}
	c.XORKeyStream(out, out)
	return nil
}

// Poly1305 computes the one-time Poly1305 MAC of msg under key.
func Poly1305(msg []byte, key [32]byte) [16]byte {
	var tag [16]byte
	poly1305.Sum(&tag, msg, &key)
	return tag
}

// CtEq reports whether a and b are equal, in constant time with respect to
// their contents (though not their lengths).
func CtEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// CtIncrementLE increments buf, interpreted as a little-endian unsigned
// integer, by one. The loop always runs len(buf) iterations and never
// branches on buf's contents, so its timing does not depend on the nonce
// value being incremented.
func CtIncrementLE(buf []byte) {
	carry := uint16(1)
	for i := range buf {
		carry += uint16(buf[i])
		buf[i] = byte(carry)
		carry >>= 8
	}
}

// Zeroize overwrites buf with zeros. The runtime.KeepAlive call prevents the
// compiler from eliding the writes as a dead store once buf is otherwise
// unused.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}
