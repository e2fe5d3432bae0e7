package crypt

import (
	"crypto/aes"
	"fmt"

	"github.com/riftline/cryptvfs/internal/interfaces"
	"github.com/riftline/cryptvfs/internal/types"
)

// blockCipher is a thin adapter over Go's constant-time AES block
// implementation, pre-expanding the key schedule once at open time so the
// per-block decrypt cost, not key setup, dominates read latency.
type blockCipher struct {
	block cipherBlock
}

// cipherBlock is the subset of cipher.Block this package depends on, kept
// narrow so tests can substitute a fake schedule without linking crypto/aes.
type cipherBlock interface {
	Decrypt(dst, src []byte)
	BlockSize() int
}

var _ interfaces.BlockCipher = (*blockCipher)(nil)

// newBlockCipher expands key into an AES-192 decryption key schedule.
func newBlockCipher(key types.AESKey) (*blockCipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypt: expand AES key schedule: %w", err)
	}
	if block.BlockSize() != types.BlockSize {
		return nil, fmt.Errorf("crypt: unexpected AES block size %d", block.BlockSize())
	}
	return &blockCipher{block: block}, nil
}

// DecryptBlock decrypts one 16-byte ECB block under the pre-expanded key
// schedule.
func (c *blockCipher) DecryptBlock(ct [16]byte) [16]byte {
	var pt [16]byte
	c.block.Decrypt(pt[:], ct[:])
	return pt
}
