// Package types holds the wire-format constants and value types shared by
// the crypt core: the on-disk header layout and the small enums that
// distinguish the arcade and patch file variants.
package types

// Variant identifies which of the two on-disk file families a CryptFile is
// reading: arcade files keyed from a hardware dongle, or patch files keyed
// from an embedded secret.
type Variant int

const (
	VariantArcade Variant = iota
	VariantPatch
)

func (v Variant) String() string {
	switch v {
	case VariantArcade:
		return "arcade"
	case VariantPatch:
		return "patch"
	default:
		return "unknown"
	}
}

// MagicArcade and MagicPatch are the two-byte header magics for each
// variant. Arcade files are dongle-keyed, patch files are secret-keyed.
var (
	MagicArcade = [2]byte{':', '|'}
	MagicPatch  = [2]byte{'8', 'O'}
)

// VerifyPrefix is the two-byte plaintext prefix the verify block must
// decrypt to when the correct key was derived.
var VerifyPrefix = [2]byte{':', 'D'}

const (
	// BlockSize is the AES-192 block width in bytes; it is also the unit
	// of the chaining transform.
	BlockSize = 16

	// SegmentSize is the chain-reset boundary: every SegmentSize bytes of
	// ciphertext the backbuffer restarts from zero. 4080 = 255 * BlockSize.
	SegmentSize = 4080

	// AESKeySize is the width of an AES-192 key in bytes.
	AESKeySize = 24

	// PatchSecretSize is the fixed length the patch-file secret must be.
	PatchSecretSize = 47

	// MaxSubkeySize bounds subkey_len to guard against unreasonable
	// allocation requests from a malformed or hostile header.
	MaxSubkeySize = 4096

	// FixedHeaderWidth is magic(2) + plaintext_size(4) + subkey_len(4),
	// the portion of the header preceding the variable-length subkey.
	FixedHeaderWidth = 2 + 4 + 4

	// VerifyBlockSize is the width of the verify block, one AES block.
	VerifyBlockSize = BlockSize
)

// AESKey is a derived AES-192 key: 24 bytes, owned by the KeyCache once
// inserted.
type AESKey [AESKeySize]byte

// FileMeta is the parsed, validated header of an encrypted file. It is
// immutable once produced by crypt.ParseHeader.
type FileMeta struct {
	// Variant is which magic/deriver family this file belongs to.
	Variant Variant

	// PlaintextSize is the logical file length in bytes, not counting the
	// header or any ciphertext padding past this length.
	PlaintextSize uint32

	// Subkey is the per-file key material read from the header, fed to
	// the KeyDeriver.
	Subkey []byte

	// VerifyBlock is the 16 bytes of ciphertext that must decrypt to a
	// plaintext beginning with VerifyPrefix.
	VerifyBlock [VerifyBlockSize]byte

	// HeaderSize is the total byte width of the header on disk: fixed
	// fields, subkey, and verify block. Body ciphertext starts here.
	HeaderSize int64
}

// HeaderSizeFor computes header_size for a given subkey length: fixed
// fields, plus the subkey, plus the verify block.
func HeaderSizeFor(subkeyLen int) int64 {
	return int64(FixedHeaderWidth+subkeyLen) + VerifyBlockSize
}
