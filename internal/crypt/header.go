package crypt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/riftline/cryptvfs/internal/interfaces"
	"github.com/riftline/cryptvfs/internal/types"
)

// ParseHeader reads and validates the fixed header layout from source,
// starting at offset 0, and returns the resulting FileMeta. All multi-byte
// integers on disk are little-endian. On return, source is positioned
// immediately after the header (at the start of the ciphertext body).
func ParseHeader(source interfaces.RawSource, want types.Variant) (types.FileMeta, error) {
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return types.FileMeta{}, fmt.Errorf("crypt: seek to header: %w", err)
	}

	var magic [2]byte
	if err := readFull(source, magic[:]); err != nil {
		return types.FileMeta{}, fmt.Errorf("crypt: read magic: %w", err)
	}
	if err := checkMagic(magic, want); err != nil {
		return types.FileMeta{}, err
	}

	var sizeBuf [4]byte
	if err := readFull(source, sizeBuf[:]); err != nil {
		return types.FileMeta{}, fmt.Errorf("crypt: read plaintext_size: %w", err)
	}
	plaintextSize := binary.LittleEndian.Uint32(sizeBuf[:])

	var subkeyLenBuf [4]byte
	if err := readFull(source, subkeyLenBuf[:]); err != nil {
		return types.FileMeta{}, fmt.Errorf("crypt: read subkey_len: %w", err)
	}
	subkeyLen := binary.LittleEndian.Uint32(subkeyLenBuf[:])
	if subkeyLen > types.MaxSubkeySize {
		return types.FileMeta{}, fmt.Errorf("%w: %d bytes (max %d)", ErrSubkeyTooLarge, subkeyLen, types.MaxSubkeySize)
	}

	subkey := make([]byte, subkeyLen)
	if err := readFull(source, subkey); err != nil {
		return types.FileMeta{}, fmt.Errorf("crypt: read subkey (%d bytes): %w", subkeyLen, err)
	}

	var verifyBlock [types.VerifyBlockSize]byte
	if err := readFull(source, verifyBlock[:]); err != nil {
		return types.FileMeta{}, fmt.Errorf("crypt: read verify_block: %w", err)
	}

	return types.FileMeta{
		Variant:       want,
		PlaintextSize: plaintextSize,
		Subkey:        subkey,
		VerifyBlock:   verifyBlock,
		HeaderSize:    types.HeaderSizeFor(len(subkey)),
	}, nil
}

// checkMagic validates the header magic against the magic expected for
// want, the variant selected by the caller's configuration (empty secret
// means arcade/dongle, non-empty secret means patch/hash).
func checkMagic(got [2]byte, want types.Variant) error {
	var expect [2]byte
	switch want {
	case types.VariantArcade:
		expect = types.MagicArcade
	case types.VariantPatch:
		expect = types.MagicPatch
	default:
		return fmt.Errorf("crypt: unknown variant %v", want)
	}
	if got != expect {
		return fmt.Errorf("%w: expected %q for %s files, got %q", ErrBadMagic, expect[:], want, got[:])
	}
	return nil
}

// readFull reads exactly len(buf) bytes from source's current position,
// treating a short read as ErrShortRead rather than returning whatever
// partial data the source delivered.
func readFull(source interfaces.RawSource, buf []byte) error {
	n, err := io.ReadFull(readerFromSource{source}, buf)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return fmt.Errorf("%w: wanted %d bytes, got %d", ErrShortRead, len(buf), n)
		}
		return err
	}
	return nil
}

// readerFromSource adapts a RawSource's Seek-then-Read positional cursor
// into an io.Reader for use with io.ReadFull.
type readerFromSource struct {
	interfaces.RawSource
}

func (r readerFromSource) Read(p []byte) (int, error) {
	pos, err := r.Tell()
	if err != nil {
		return 0, err
	}
	n, err := r.ReadAt(p, pos)
	if n > 0 {
		if _, serr := r.Seek(int64(n), io.SeekCurrent); serr != nil {
			return n, serr
		}
	}
	return n, err
}
