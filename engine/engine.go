// Package engine wires the header, stream, and fileio packages into the two
// entry points a caller actually needs: EncryptFile and DecryptFile. It owns
// no process-wide mutable state beyond the Options value passed in at each
// call, and uses the versioned header+stream layout the rest of this module
// implements rather than ad hoc segment framing.
package engine

import (
	"context"
	"io"

	"github.com/vilshansen/kryptor/constants"
	"github.com/vilshansen/kryptor/fileio"
	"github.com/vilshansen/kryptor/header"
	"github.com/vilshansen/kryptor/kryptorerr"
	"github.com/vilshansen/kryptor/primitives"
	"github.com/vilshansen/kryptor/stream"
)

// Options is the process-scope configuration set once at startup and read
// thereafter; nothing in this package mutates it.
type Options struct {
	Overwrite        bool
	EncryptFileNames bool
	TotalCount       int
}

// EncryptInput bundles everything EncryptFile needs about one file.
type EncryptInput struct {
	InputPath          string
	OutputPath         string
	FileName           string
	IsDirectory        bool
	WasDirectoryEntry  bool
	UnencryptedHeaders []byte
	HeaderKey          []byte
	Nonce              []byte
}

// EncryptResult reports what EncryptFile actually wrote.
type EncryptResult struct {
	ChunkCount      uint64
	PlaintextLength uint64
}

// EncryptFile seals in.InputPath into in.OutputPath: unencrypted_headers,
// then the encrypted header, then the chunked ciphertext body, then applies
// the post-encryption disposal policy from fileio.
func EncryptFile(ctx context.Context, policy fileio.Policy, opts Options, in EncryptInput) (EncryptResult, error) {
	inFile, err := policy.OpenInput(in.InputPath)
	if err != nil {
		return EncryptResult{}, err
	}
	defer inFile.Close()

	size, err := policy.Size(in.InputPath)
	if err != nil {
		return EncryptResult{}, err
	}
	plaintextLength := uint64(size)
	chunkCount := chunkCountFor(plaintextLength)

	fileKey, err := primitives.RandomBytes(constants.KeySize)
	if err != nil {
		return EncryptResult{}, kryptorerr.New(kryptorerr.Cryptographic, "generating file key", err)
	}
	fileKeyForStream := append([]byte{}, fileKey...)
	defer primitives.Zeroize(fileKey)

	tempPath := fileio.TempOutputPath(in.OutputPath)

	sealedHeader, err := header.Encrypt(header.EncryptParams{
		ChunkCount:         chunkCount,
		PlaintextLength:    plaintextLength,
		IsDirectory:        in.IsDirectory,
		FileName:           in.FileName,
		EncryptFileNames:   opts.EncryptFileNames,
		UnencryptedHeaders: in.UnencryptedHeaders,
		FileKey:            fileKey,
		Nonce:              in.Nonce,
		HeaderKey:          in.HeaderKey,
	})
	if err != nil {
		primitives.Zeroize(fileKeyForStream)
		return EncryptResult{}, err
	}

	outFile, err := policy.CreateOutput(tempPath)
	if err != nil {
		primitives.Zeroize(fileKeyForStream)
		return EncryptResult{}, err
	}
	defer outFile.Close()

	if len(in.UnencryptedHeaders) > 0 {
		if _, err := outFile.Write(in.UnencryptedHeaders); err != nil {
			primitives.Zeroize(fileKeyForStream)
			_ = policy.FinalizeFailure(tempPath)
			return EncryptResult{}, kryptorerr.New(kryptorerr.Io, "writing unencrypted headers", err)
		}
	}
	if _, err := outFile.Write(sealedHeader); err != nil {
		primitives.Zeroize(fileKeyForStream)
		_ = policy.FinalizeFailure(tempPath)
		return EncryptResult{}, kryptorerr.New(kryptorerr.Io, "writing encrypted header", err)
	}

	actualChunkCount, err := stream.Encrypt(ctx, outFile, inFile, fileKeyForStream, in.Nonce)
	if err != nil {
		_ = policy.FinalizeFailure(tempPath)
		return EncryptResult{}, err
	}
	if actualChunkCount != chunkCount {
		_ = policy.FinalizeFailure(tempPath)
		return EncryptResult{}, kryptorerr.New(kryptorerr.Io, "input file size changed during encryption", nil)
	}

	if err := policy.FinalizeSuccess(in.InputPath, tempPath, in.OutputPath, in.WasDirectoryEntry); err != nil {
		return EncryptResult{}, err
	}

	return EncryptResult{ChunkCount: actualChunkCount, PlaintextLength: plaintextLength}, nil
}

// DecryptInput bundles everything DecryptFile needs about one file.
type DecryptInput struct {
	InputPath          string
	OutputPath         string
	UnencryptedHeaders []byte
	HeaderKey          []byte
	Nonce              []byte
}

// DecryptResult reports what the encrypted header recovered.
type DecryptResult struct {
	IsDirectory     bool
	FileName        string
	PlaintextLength uint64
}

// DecryptFile reverses EncryptFile: it skips past the caller-supplied
// unencrypted headers, opens the encrypted header, verifies the on-disk
// ciphertext size against the authenticated chunk count, and streams the
// chunks back into in.OutputPath, truncated to the recovered plaintext
// length. Any failure deletes the partial output.
func DecryptFile(ctx context.Context, policy fileio.Policy, in DecryptInput) (DecryptResult, error) {
	inFile, err := policy.OpenInput(in.InputPath)
	if err != nil {
		return DecryptResult{}, err
	}
	defer inFile.Close()

	totalSize, err := policy.Size(in.InputPath)
	if err != nil {
		return DecryptResult{}, err
	}

	if len(in.UnencryptedHeaders) > 0 {
		if _, err := io.CopyN(io.Discard, inFile, int64(len(in.UnencryptedHeaders))); err != nil {
			return DecryptResult{}, kryptorerr.New(kryptorerr.Io, "skipping unencrypted headers", err)
		}
	}

	sealedHeader := make([]byte, constants.EncryptedHeaderLength)
	if _, err := io.ReadFull(inFile, sealedHeader); err != nil {
		return DecryptResult{}, kryptorerr.New(kryptorerr.InvalidFormat, "reading encrypted header", err)
	}

	ciphertextLength := uint64(totalSize) - uint64(len(in.UnencryptedHeaders)) - uint64(constants.EncryptedHeaderLength)
	if ciphertextLength%constants.CiphertextChunkLength != 0 {
		return DecryptResult{}, kryptorerr.New(kryptorerr.InvalidFormat, "ciphertext region is not a whole number of chunks", nil)
	}
	chunkCount := ciphertextLength / constants.CiphertextChunkLength

	h, err := header.Decrypt(sealedHeader, ciphertextLength, in.UnencryptedHeaders, in.HeaderKey, in.Nonce)
	if err != nil {
		return DecryptResult{}, err
	}

	tempPath := fileio.TempOutputPath(in.OutputPath)

	outFile, err := policy.CreateOutput(tempPath)
	if err != nil {
		primitives.Zeroize(h.FileKey)
		return DecryptResult{}, err
	}
	defer outFile.Close()

	if err := stream.Decrypt(ctx, outFile, inFile, h.FileKey, in.Nonce, h.PlaintextLength, chunkCount); err != nil {
		_ = policy.FinalizeFailure(tempPath)
		return DecryptResult{}, err
	}

	if err := policy.Fs.Rename(tempPath, in.OutputPath); err != nil {
		_ = policy.FinalizeFailure(tempPath)
		return DecryptResult{}, kryptorerr.New(kryptorerr.Io, "committing decrypted output file", err)
	}

	return DecryptResult{
		IsDirectory:     h.IsDirectory,
		FileName:        h.FileName,
		PlaintextLength: h.PlaintextLength,
	}, nil
}

func chunkCountFor(plaintextLength uint64) uint64 {
	if plaintextLength == 0 {
		return 1
	}
	return (plaintextLength + constants.FileChunkSize - 1) / constants.FileChunkSize
}
