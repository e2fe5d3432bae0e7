package crypt

import (
	"crypto/aes"
	"encoding/binary"

	"github.com/riftline/cryptvfs/internal/types"
)

func putLE32(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst, v)
}

// buildHeaderBytes writes the fixed header (magic, plaintext_size,
// subkey_len, subkey) with no verify block or body, for short-header and
// magic-mismatch test cases.
func buildHeaderBytes(magic [2]byte, plaintextSize uint32, subkey []byte) []byte {
	buf := make([]byte, types.FixedHeaderWidth+len(subkey))
	copy(buf[0:2], magic[:])
	putLE32(buf[2:6], plaintextSize)
	putLE32(buf[6:10], uint32(len(subkey)))
	copy(buf[10:], subkey)
	return buf
}

// buildFileBytes assembles a header-plus-verify-block file with a
// zero-filled verify block and no body, for tests that only exercise
// ParseHeader and never derive a key.
func buildFileBytes(magic [2]byte, plaintextSize uint32, subkey []byte, _ []byte) []byte {
	buf := buildHeaderBytes(magic, plaintextSize, subkey)
	buf = append(buf, make([]byte, types.VerifyBlockSize)...)
	return buf
}

// buildFileBytesWithKey builds a complete, verifiable file: header, a
// correctly encrypted verify block, and the encrypted body for plaintext
// (padded up to a multiple of 16 bytes with zeros as needed).
func buildFileBytesWithKey(magic [2]byte, subkey []byte, key [24]byte, plaintext []byte) []byte {
	buf := buildHeaderBytes(magic, uint32(len(plaintext)), subkey)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}

	verifyPlain := make([]byte, types.VerifyBlockSize)
	verifyPlain[0] = types.VerifyPrefix[0]
	verifyPlain[1] = types.VerifyPrefix[1]
	verifyCipher := make([]byte, types.VerifyBlockSize)
	block.Encrypt(verifyCipher, verifyPlain)
	buf = append(buf, verifyCipher...)

	buf = append(buf, encryptBody(block, plaintext)...)
	return buf
}

// encryptBody is the inverse of CryptFile.Read's chained-block transform:
// given the plaintext, produce the ciphertext body that decrypts back to
// it (padded to a multiple of 16 bytes).
func encryptBody(block interface {
	Encrypt(dst, src []byte)
}, plaintext []byte) []byte {
	padded := len(plaintext)
	if r := padded % types.BlockSize; r != 0 {
		padded += types.BlockSize - r
	}
	pt := make([]byte, padded)
	copy(pt, plaintext)

	ct := make([]byte, padded)
	var backbuffer [16]byte // off=0 is always a reset boundary (0 % SegmentSize == 0)
	for i := 0; i*types.BlockSize < padded; i++ {
		off := i * types.BlockSize

		var xorBlock [16]byte
		for j := 0; j < types.BlockSize; j++ {
			xorBlock[j] = pt[off+j] ^ byte(int(backbuffer[j])-j)
		}

		block.Encrypt(ct[off:off+types.BlockSize], xorBlock[:])

		if (off+types.BlockSize)%types.SegmentSize == 0 {
			backbuffer = [16]byte{}
		} else {
			copy(backbuffer[:], ct[off:off+types.BlockSize])
		}
	}
	return ct
}
