// Package constants holds the fixed sizes and magic values that make up
// Kryptor's on-disk formats. Nothing here is user-configurable; changing any
// of these breaks compatibility with files already on disk.
package constants

const (
	// FileChunkSize is the plaintext chunk size used by the streaming AEAD
	// layer. Every chunk but possibly the last is exactly this long.
	FileChunkSize = 16 * 1024

	// TagSize is the Poly1305/BLAKE2b authentication tag length.
	TagSize = 16

	// CommitmentSize is the length of the key-commitment prefix produced by
	// kcChaCha20-Poly1305.
	CommitmentSize = 32

	// CiphertextChunkLength is the on-disk length of one encrypted chunk.
	CiphertextChunkLength = FileChunkSize + TagSize

	// KeySize is the ChaCha20/BLAKE2b key length.
	KeySize = 32

	// NonceSize is the ChaCha20 nonce length used for kc-AEAD and header/chunk
	// sealing.
	NonceSize = 12

	// XNonceSize is the XChaCha20 nonce length used only by the legacy V1
	// private-key container.
	XNonceSize = 24

	// SaltSize is the Argon2id salt length.
	SaltSize = 16

	// Argon2Iterations and Argon2MemoryKiB are the current (V2) Argon2id
	// work factors. These are conservative defaults; callers may override
	// them via keycontainer.Params.
	Argon2Iterations = 4
	Argon2MemoryKiB  = 256 * 1024
	Argon2Threads    = 4

	// Argon2IterationsV1 is the literal iteration count the legacy V1
	// container used. It must never change: V1 is decrypt-only, and changing
	// this constant would make every existing V1 container undecryptable.
	Argon2IterationsV1 = 12

	// FileNameHeaderLength is the padded width of the file-name field inside
	// the plaintext header.
	FileNameHeaderLength = 255

	// IntBytes and LongBytes are the little-endian integer widths used in the
	// header layout.
	IntBytes  = 4
	LongBytes = 8

	// HeaderSpareSize is the reserved, always-zero field in the plaintext
	// header.
	HeaderSpareSize = 32

	// EncryptedHeaderLength is the plaintext header size (before AEAD
	// overhead): plaintext_length + is_directory + file_name_length +
	// padded_file_name + spare + file_key, plus the TagSize appended by the
	// AEAD seal.
	EncryptedHeaderLength = LongBytes + 1 + IntBytes + FileNameHeaderLength + HeaderSpareSize + KeySize + TagSize

	// KeyfileLength is the number of random bytes written into a freshly
	// generated keyfile.
	KeyfileLength = 64

	// KeyfileExtension is appended to a directory/bare name when the
	// symmetric key resolver falls back to creating a new keyfile.
	KeyfileExtension = ".kryptorkey"

	// HashLength is the BLAKE2b digest length used for keyfile hashing.
	HashLength = 32

	// SymmetricKeyHeader identifies a base64 key-string as a raw symmetric
	// key (as opposed to some other future key-string kind).
	SymmetricKeyHeader = "\x80\x02\x00\x00"

	// SymmetricKeyLength is the exact base64 length of
	// SymmetricKeyHeader||key.
	SymmetricKeyLength = 48

	// PublicKeyLength and PrivateKeyLength are the exact base64 text lengths
	// of an asymmetric Curve25519 key file.
	PublicKeyLength  = 44
	PrivateKeyLength = 44

	// RandomFilenameCharsLength is the length of the random name generated
	// when the symmetric key resolver is pointed at a directory.
	RandomFilenameCharsLength = 16

	// PasswordCharPool is the character set random passwords/filenames are
	// drawn from.
	PasswordCharPool = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Private-key container version tags. These are the literal 4-byte fields
// written at fixed offsets in the container; version dispatch is a pure
// function of these bytes (see the keycontainer package).
var (
	PrivateKeyVersion1 = [4]byte{0x00, 0x00, 0x00, 0x01}
	PrivateKeyVersion2 = [4]byte{0x00, 0x00, 0x00, 0x02}
)

// Key-algorithm header tags embedded at the front of a private-key container,
// identifying the wrapped key's algorithm.
var (
	Curve25519KeyHeader = [4]byte{0x01, 0x00, 0x00, 0x00}
	Ed25519KeyHeader    = [4]byte{0x02, 0x00, 0x00, 0x00}
)
