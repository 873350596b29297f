// Package aead implements Kryptor's two AEAD constructions, layered over the
// primitives façade rather than a black-box cipher.AEAD: kcChaCha20-Poly1305,
// which adds an explicit 32-byte key-commitment tag ahead of the ciphertext,
// and ChaCha20-BLAKE2b, the encrypt-then-MAC construction used to seal
// headers and data chunks where commitment isn't required.
//
// Both follow the same shape: derive a keystream block under (key, nonce) at
// counter 0, split it into a MAC key and an encryption key, encrypt under the
// encryption key starting at counter 1, then MAC the standard AEAD-padded
// construction (AAD || pad16 || ciphertext || pad16 || len64(AAD) ||
// len64(ciphertext)) with the MAC key.
package aead

import (
	"encoding/binary"

	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/kryptorerr"
	"github.com/vilshansen/kryptor/primitives"
)

// macInput builds the standard padded-AEAD buffer that both constructions
// authenticate: aad, padded to a multiple of 16, then ciphertext, padded to a
// multiple of 16, then the 8-byte little-endian lengths of each.
func macInput(aad, ciphertext []byte) []byte {
	pad := func(n int) int {
		if n%16 == 0 {
			return 0
		}
		return 16 - n%16
	}

	buf := make([]byte, 0, len(aad)+pad(len(aad))+len(ciphertext)+pad(len(ciphertext))+16)
	buf = append(buf, aad...)
	buf = append(buf, make([]byte, pad(len(aad)))...)
	buf = append(buf, ciphertext...)
	buf = append(buf, make([]byte, pad(len(ciphertext)))...)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(aad)))
	buf = append(buf, lenBuf[:]...)
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(ciphertext)))
	buf = append(buf, lenBuf[:]...)

	return buf
}

func chacha20Xor(plaintext, nonce, key []byte, counter uint32) ([]byte, error) {
	out := make([]byte, len(plaintext))
	if err := primitives.ChaCha20Keystream(out, nonce, key, counter); err != nil {
		return nil, err
	}
	for i := range out {
		out[i] ^= plaintext[i]
	}
	return out, nil
}

// KCChaCha20Poly1305Encrypt seals plaintext under (key, nonce), returning
// commitment(32) || ciphertext || tag(16).
func KCChaCha20Poly1305Encrypt(plaintext, nonce, key, aad []byte) ([]byte, error) {
	keyBlock := make([]byte, 96)
	if err := primitives.ChaCha20Keystream(keyBlock, nonce, key, 0); err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "deriving kc-AEAD subkeys", err)
	}
	defer primitives.Zeroize(keyBlock)

	commitment := keyBlock[:32]
	polyKey := keyBlock[32:64]
	encKey := keyBlock[64:96]

	ciphertext, err := chacha20Xor(plaintext, nonce, encKey, 1)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "encrypting", err)
	}

	var polyKeyArr [32]byte
	copy(polyKeyArr[:], polyKey)
	tag := primitives.Poly1305(macInput(aad, ciphertext), polyKeyArr)
	primitives.Zeroize(polyKeyArr[:])

	out := make([]byte, 0, constants.CommitmentSize+len(ciphertext)+constants.TagSize)
	out = append(out, commitment...)
	out = append(out, ciphertext...)
	out = append(out, tag[:]...)
	return out, nil
}

// KCChaCha20Poly1305Decrypt opens a value produced by
// KCChaCha20Poly1305Encrypt. The commitment is checked, in constant time,
// before the Poly1305 tag — a mutated key is rejected at the commitment check
// without ever computing Poly1305 over attacker-controlled ciphertext under
// the wrong key.
func KCChaCha20Poly1305Decrypt(sealed, nonce, key, aad []byte) ([]byte, error) {
	if len(sealed) < constants.CommitmentSize+constants.TagSize {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "sealed value too short", nil)
	}

	commitment := sealed[:constants.CommitmentSize]
	ciphertext := sealed[constants.CommitmentSize : len(sealed)-constants.TagSize]
	tag := sealed[len(sealed)-constants.TagSize:]

	keyBlock := make([]byte, 96)
	if err := primitives.ChaCha20Keystream(keyBlock, nonce, key, 0); err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "deriving kc-AEAD subkeys", err)
	}
	defer primitives.Zeroize(keyBlock)

	wantCommitment := keyBlock[:32]
	polyKey := keyBlock[32:64]
	encKey := keyBlock[64:96]

	if !primitives.CtEq(commitment, wantCommitment) {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "key commitment mismatch", nil)
	}

	var polyKeyArr [32]byte
	copy(polyKeyArr[:], polyKey)
	wantTag := primitives.Poly1305(macInput(aad, ciphertext), polyKeyArr)
	primitives.Zeroize(polyKeyArr[:])

	if !primitives.CtEq(tag, wantTag[:]) {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "authentication tag mismatch", nil)
	}

	plaintext, err := chacha20Xor(ciphertext, nonce, encKey, 1)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "decrypting", err)
	}
	return plaintext, nil
}

// ChaCha20BLAKE2bEncrypt seals plaintext under (key, nonce), returning
// ciphertext || tag(16). Used for the file header and data chunks, where key
// commitment is unnecessary because the key is never attacker-influenced.
func ChaCha20BLAKE2bEncrypt(plaintext, nonce, key, aad []byte) ([]byte, error) {
	keyBlock := make([]byte, 64)
	if err := primitives.ChaCha20Keystream(keyBlock, nonce, key, 0); err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "deriving AEAD subkeys", err)
	}
	defer primitives.Zeroize(keyBlock)

	macKey := keyBlock[:32]
	encKey := keyBlock[32:64]

	ciphertext, err := chacha20Xor(plaintext, nonce, encKey, 1)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "encrypting", err)
	}

	tag, err := primitives.Blake2bKeyed(macInput(aad, ciphertext), macKey, constants.TagSize)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "computing MAC", err)
	}

	out := make([]byte, 0, len(ciphertext)+constants.TagSize)
	out = append(out, ciphertext...)
	out = append(out, tag...)
	return out, nil
}

// ChaCha20BLAKE2bDecrypt opens a value produced by ChaCha20BLAKE2bEncrypt.
func ChaCha20BLAKE2bDecrypt(sealed, nonce, key, aad []byte) ([]byte, error) {
	if len(sealed) < constants.TagSize {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "sealed value too short", nil)
	}

	ciphertext := sealed[:len(sealed)-constants.TagSize]
	tag := sealed[len(sealed)-constants.TagSize:]

	keyBlock := make([]byte, 64)
	if err := primitives.ChaCha20Keystream(keyBlock, nonce, key, 0); err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "deriving AEAD subkeys", err)
	}
	defer primitives.Zeroize(keyBlock)

	macKey := keyBlock[:32]
	encKey := keyBlock[32:64]

	wantTag, err := primitives.Blake2bKeyed(macInput(aad, ciphertext), macKey, constants.TagSize)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "computing MAC", err)
	}

	if !primitives.CtEq(tag, wantTag) {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "authentication tag mismatch", nil)
	}

	plaintext, err := chacha20Xor(ciphertext, nonce, encKey, 1)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "decrypting", err)
	}
	return plaintext, nil
}
