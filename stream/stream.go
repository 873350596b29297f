// Package stream implements Kryptor's chunked AEAD streaming layer: reading
// plaintext in fixed FileChunkSize chunks, sealing each under a nonce that
// chains forward from the header's nonce, and handling the empty-file edge
// case by sealing exactly one all-zero chunk. Uses plain forward-secure
// nonce chaining over ChaCha20-BLAKE2b rather than segment-XOR chaining, so
// ciphertext size is deterministic from plaintext size.
package stream

import (
	"context"
	"io"

	"github.com/vilshansen/kryptor/aead"
	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/kryptorerr"
	"github.com/vilshansen/kryptor/primitives"
)

// Encrypt reads plaintext from r in FileChunkSize chunks, seals each under
// (fileKey, nonce) with nonce chained forward by one from headerNonce, and
// writes the ciphertext chunks to w. It returns the number of chunks
// written. headerNonce is read, not mutated; fileKey is zeroized before
// returning on every path.
func Encrypt(ctx context.Context, w io.Writer, r io.Reader, fileKey, headerNonce []byte) (uint64, error) {
	defer primitives.Zeroize(fileKey)

	nonce := append([]byte{}, headerNonce...)
	defer primitives.Zeroize(nonce)
	primitives.CtIncrementLE(nonce)

	buf := make([]byte, constants.FileChunkSize)
	defer primitives.Zeroize(buf)

	var chunkCount uint64

	for {
		if err := ctx.Err(); err != nil {
			return chunkCount, kryptorerr.New(kryptorerr.Io, "encryption cancelled", err)
		}

		n, readErr := io.ReadFull(r, buf)
		switch readErr {
		case nil:
			if err := sealAndWrite(w, buf, fileKey, nonce); err != nil {
				return chunkCount, err
			}
			chunkCount++
			primitives.CtIncrementLE(nonce)
			continue

		case io.EOF:
			if chunkCount == 0 {
				// Empty input: seal exactly one all-zero chunk.
				for i := range buf {
					buf[i] = 0
				}
				if err := sealAndWrite(w, buf, fileKey, nonce); err != nil {
					return chunkCount, err
				}
				chunkCount++
			}
			return chunkCount, nil

		case io.ErrUnexpectedEOF:
			for i := n; i < len(buf); i++ {
				buf[i] = 0
			}
			if err := sealAndWrite(w, buf, fileKey, nonce); err != nil {
				return chunkCount, err
			}
			chunkCount++
			return chunkCount, nil

		default:
			return chunkCount, kryptorerr.New(kryptorerr.Io, "reading plaintext chunk", readErr)
		}
	}
}

func sealAndWrite(w io.Writer, plaintext, fileKey, nonce []byte) error {
	sealed, err := aead.ChaCha20BLAKE2bEncrypt(plaintext, nonce, fileKey, nil)
	if err != nil {
		return kryptorerr.New(kryptorerr.Cryptographic, "sealing chunk", err)
	}
	if _, err := w.Write(sealed); err != nil {
		return kryptorerr.New(kryptorerr.Io, "writing chunk", err)
	}
	return nil
}

// Decrypt reads chunkCount ciphertext chunks from r (chunkCount is derived by
// the caller from the authenticated ciphertext length), opens each under
// (fileKey, nonce) chained forward from headerNonce, and writes the
// recovered plaintext to w, truncated to plaintextLength bytes total. Any
// AEAD failure aborts immediately; the caller is responsible for removing
// whatever w has already received.
func Decrypt(ctx context.Context, w io.Writer, r io.Reader, fileKey, headerNonce []byte, plaintextLength, chunkCount uint64) error {
	defer primitives.Zeroize(fileKey)

	nonce := append([]byte{}, headerNonce...)
	defer primitives.Zeroize(nonce)
	primitives.CtIncrementLE(nonce)

	sealedBuf := make([]byte, constants.CiphertextChunkLength)

	var written uint64
	for i := uint64(0); i < chunkCount; i++ {
		if err := ctx.Err(); err != nil {
			return kryptorerr.New(kryptorerr.Io, "decryption cancelled", err)
		}

		if _, err := io.ReadFull(r, sealedBuf); err != nil {
			return kryptorerr.New(kryptorerr.Io, "reading ciphertext chunk", err)
		}

		plaintext, err := aead.ChaCha20BLAKE2bDecrypt(sealedBuf, nonce, fileKey, nil)
		if err != nil {
			return kryptorerr.New(kryptorerr.Cryptographic, "opening chunk", err)
		}

		remaining := plaintextLength - written
		if remaining > uint64(len(plaintext)) {
			remaining = uint64(len(plaintext))
		}

		if _, err := w.Write(plaintext[:remaining]); err != nil {
			primitives.Zeroize(plaintext)
			return kryptorerr.New(kryptorerr.Io, "writing plaintext chunk", err)
		}
		written += remaining
		primitives.Zeroize(plaintext)
		primitives.CtIncrementLE(nonce)
	}

	if written != plaintextLength {
		return kryptorerr.New(kryptorerr.Cryptographic, "ciphertext did not contain the authenticated plaintext length", nil)
	}

	return nil
}
