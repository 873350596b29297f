// Package header builds and parses Kryptor's encrypted file header: the
// record binding plaintext length, directory flag, file name, and the
// per-file content key, sealed with ChaCha20-BLAKE2b under associated data
// that commits to the ciphertext length and the surrounding protocol's
// unencrypted headers. Keeps the same plaintext field layout as a bare
// length-prefixed struct dump, but the wire encoding is a single sealed AEAD
// record instead.
package header

import (
	"encoding/binary"

	"github.com/vilshansen/kryptor/aead"
	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/kryptorerr"
)

// FileHeader is the decoded plaintext header: what a caller gets back after
// a successful Decrypt, and what it supplies to Encrypt.
type FileHeader struct {
	PlaintextLength uint64
	IsDirectory     bool
	FileName        string
	FileKey         []byte
}

// EncryptParams bundles the inputs Encrypt needs beyond the FileHeader
// fields: the chunk count (which fixes the authenticated ciphertext length),
// whether file-name encryption is enabled, and the key material the header is
// sealed under.
type EncryptParams struct {
	ChunkCount         uint64
	PlaintextLength    uint64
	IsDirectory        bool
	FileName           string
	EncryptFileNames   bool
	UnencryptedHeaders []byte
	FileKey            []byte
	Nonce              []byte
	HeaderKey          []byte
}

func associatedData(ciphertextLength uint64, unencryptedHeaders []byte) []byte {
	ad := make([]byte, 8+len(unencryptedHeaders))
	binary.LittleEndian.PutUint64(ad[:8], ciphertextLength)
	copy(ad[8:], unencryptedHeaders)
	return ad
}

// Encrypt builds the plaintext header record and seals it, returning
// EncryptedHeaderLength bytes. HeaderKey is zeroized before returning, on
// every path.
func Encrypt(p EncryptParams) ([]byte, error) {
	defer func() {
		for i := range p.HeaderKey {
			p.HeaderKey[i] = 0
		}
	}()

	if len(p.FileKey) != constants.KeySize {
		return nil, kryptorerr.New(kryptorerr.PolicyViolation, "file key must be 32 bytes", nil)
	}

	nameBytes := []byte(p.FileName)
	if len(nameBytes) > constants.FileNameHeaderLength {
		return nil, kryptorerr.New(kryptorerr.PolicyViolation, "file name too long", nil)
	}

	padded := make([]byte, constants.FileNameHeaderLength)
	var nameLen int32
	if p.EncryptFileNames {
		copy(padded, nameBytes)
		nameLen = int32(len(nameBytes))
	}

	plain := make([]byte, constants.EncryptedHeaderLength-constants.TagSize)
	binary.LittleEndian.PutUint64(plain[0:8], p.PlaintextLength)
	if p.IsDirectory {
		plain[8] = 0x01
	}
	binary.LittleEndian.PutUint32(plain[9:13], uint32(nameLen))
	copy(plain[13:13+constants.FileNameHeaderLength], padded)
	// plain[13+255 : 13+255+32] is the spare field, left zero.
	copy(plain[13+constants.FileNameHeaderLength+constants.HeaderSpareSize:], p.FileKey)

	defer func() {
		for i := range plain {
			plain[i] = 0
		}
	}()

	ciphertextLength := p.ChunkCount * constants.CiphertextChunkLength
	ad := associatedData(ciphertextLength, p.UnencryptedHeaders)

	sealed, err := aead.ChaCha20BLAKE2bEncrypt(plain, p.Nonce, p.HeaderKey, ad)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Cryptographic, "sealing file header", err)
	}
	return sealed, nil
}

// Decrypt opens a sealed header produced by Encrypt. ciphertextLength is the
// caller-observed on-disk chunk-region size, authenticated via the
// associated data; any mismatch between the stored commitment and the actual
// file size is caught here, not by the streaming layer.
func Decrypt(sealed []byte, ciphertextLength uint64, unencryptedHeaders, headerKey, nonce []byte) (FileHeader, error) {
	defer func() {
		for i := range headerKey {
			headerKey[i] = 0
		}
	}()

	if len(sealed) != constants.EncryptedHeaderLength {
		return FileHeader{}, kryptorerr.New(kryptorerr.InvalidFormat, "encrypted header has the wrong length", nil)
	}

	ad := associatedData(ciphertextLength, unencryptedHeaders)

	plain, err := aead.ChaCha20BLAKE2bDecrypt(sealed, nonce, headerKey, ad)
	if err != nil {
		return FileHeader{}, kryptorerr.New(kryptorerr.Cryptographic, "opening file header", err)
	}
	defer func() {
		for i := range plain {
			plain[i] = 0
		}
	}()

	plaintextLength := binary.LittleEndian.Uint64(plain[0:8])
	isDirectory := plain[8] != 0
	nameLen := int32(binary.LittleEndian.Uint32(plain[9:13]))
	if nameLen < 0 || nameLen > constants.FileNameHeaderLength {
		return FileHeader{}, kryptorerr.New(kryptorerr.PolicyViolation, "file name length out of range", nil)
	}

	padded := plain[13 : 13+constants.FileNameHeaderLength]
	fileName := string(padded[:nameLen])

	fileKeySrc := plain[13+constants.FileNameHeaderLength+constants.HeaderSpareSize:]
	fileKey := make([]byte, constants.KeySize)
	copy(fileKey, fileKeySrc)

	return FileHeader{
		PlaintextLength: plaintextLength,
		IsDirectory:     isDirectory,
		FileName:        fileName,
		FileKey:         fileKey,
	}, nil
}
