package crypt

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/riftline/cryptvfs/internal/interfaces"
	"github.com/riftline/cryptvfs/internal/types"
)

// OpenConfig selects the key-derivation strategy and cache a CryptFile is
// opened with. Exactly one of Secret or Dongle is meaningful, following the
// selection rule in SelectDeriver: a non-empty Secret always wins.
type OpenConfig struct {
	// Secret is the compiled-in 47-byte patch secret. Empty means "use the
	// dongle", matching the on-disk arcade/patch variant split.
	Secret string

	// Dongle is the hardware key-derivation capability for arcade files.
	// Unused when Secret is non-empty.
	Dongle DongleCapability

	// Cache is the process-wide KeyCache this file's key lookup goes
	// through. Callers share one KeyCache across every CryptFile they open
	// so that a given path's key is derived at most once.
	Cache *KeyCache

	// Verbose enables diagnostic logging of parsed header fields to
	// stderr. It never logs key material.
	Verbose bool
}

func (c OpenConfig) variant() types.Variant {
	if c.Secret != "" {
		return types.VariantPatch
	}
	return types.VariantArcade
}

// CryptFile is a decrypting, randomly-seekable view over an encrypted
// arcade or patch file. A single CryptFile is not safe for concurrent use;
// callers needing concurrent access should Clone.
type CryptFile struct {
	id     uuid.UUID
	path   string
	source interfaces.RawSource
	meta   types.FileMeta
	cipher *blockCipher
	cursor int64

	cfg OpenConfig
}

// Open parses the header from source, derives (or reuses) the file's AES
// key, runs the verify-block handshake, and returns a ready CryptFile
// positioned at offset 0. On any error, source is left in an undefined
// position and no CryptFile is returned.
func Open(path string, source interfaces.RawSource, cfg OpenConfig) (*CryptFile, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("crypt: OpenConfig.Cache must not be nil")
	}

	meta, err := ParseHeader(source, cfg.variant())
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		logHeaderFields(os.Stderr, path, meta)
	}

	deriver, err := SelectDeriver(cfg.Secret, cfg.Dongle)
	if err != nil {
		return nil, err
	}

	key, err := cfg.Cache.GetOrInsert(path, func() ([24]byte, error) {
		k, err := deriver.Derive(meta.Subkey)
		if err != nil {
			return [24]byte{}, err
		}
		return k, nil
	})
	if err != nil {
		return nil, err
	}

	cipher, err := newBlockCipher(types.AESKey(key))
	if err != nil {
		return nil, err
	}

	plain := cipher.DecryptBlock(meta.VerifyBlock)
	if plain[0] != types.VerifyPrefix[0] || plain[1] != types.VerifyPrefix[1] {
		return nil, fmt.Errorf("%w: %s", ErrKeyMismatch, path)
	}

	return &CryptFile{
		id:     uuid.New(),
		path:   path,
		source: source,
		meta:   meta,
		cipher: cipher,
		cursor: 0,
		cfg:    cfg,
	}, nil
}

// ID returns an ephemeral, per-instance identifier for logging/debug
// correlation. It has no bearing on the file format or key derivation.
func (f *CryptFile) ID() uuid.UUID { return f.id }

// Size returns the logical plaintext length of the file.
func (f *CryptFile) Size() int64 { return int64(f.meta.PlaintextSize) }

// Tell returns the current logical read position.
func (f *CryptFile) Tell() int64 { return f.cursor }

// Meta returns the file's parsed header.
func (f *CryptFile) Meta() types.FileMeta { return f.meta }

// Seek repositions the logical cursor, clamped to [0, Size()]. It performs
// no I/O.
func (f *CryptFile) Seek(pos int64) {
	switch {
	case pos < 0:
		f.cursor = 0
	case pos > int64(f.meta.PlaintextSize):
		f.cursor = int64(f.meta.PlaintextSize)
	default:
		f.cursor = pos
	}
}

// roundUp16 rounds n up to the next multiple of 16.
func roundUp16(n int64) int64 {
	return (n + types.BlockSize - 1) / types.BlockSize * types.BlockSize
}

// Read decrypts up to len(buf) plaintext bytes starting at the current
// cursor into buf, returning the number of bytes actually delivered. It
// never reads past Size(): a request extending beyond EOF is truncated.
// Read implements the chained-block transform: each 16-byte plaintext
// block is unmasked using the *ciphertext* of the immediately preceding
// block, except every 4080 bytes (255 blocks) where the chain resets to an
// all-zero backbuffer.
func (f *CryptFile) Read(buf []byte) (int, error) {
	if f.cursor >= int64(f.meta.PlaintextSize) {
		return 0, io.EOF
	}

	n := int64(len(buf))
	if remaining := int64(f.meta.PlaintextSize) - f.cursor; n > remaining {
		n = remaining
	}
	if n == 0 {
		return 0, nil
	}

	start := (f.cursor / types.BlockSize) * types.BlockSize
	end := roundUp16(f.cursor + n)
	window := end - start
	skip := f.cursor - start

	backbuffer, err := f.lookBehind(start)
	if err != nil {
		return 0, err
	}

	ct := make([]byte, window)
	got, err := f.source.ReadAt(ct, f.meta.HeaderSize+start)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("crypt: read ciphertext window: %w", err)
	}
	if int64(got) < window {
		return 0, fmt.Errorf("crypt: read ciphertext window: %w: wanted %d bytes, got %d", ErrShortRead, window, got)
	}

	pt := make([]byte, window)
	for i := int64(0); i < window/types.BlockSize; i++ {
		var ctBlock [16]byte
		copy(ctBlock[:], ct[i*types.BlockSize:(i+1)*types.BlockSize])

		xorBlock := f.cipher.DecryptBlock(ctBlock)
		for j := 0; j < types.BlockSize; j++ {
			pt[i*types.BlockSize+int64(j)] = xorBlock[j] ^ byte(int(backbuffer[j])-j)
		}

		if (start+i*types.BlockSize+types.BlockSize)%types.SegmentSize == 0 {
			backbuffer = [16]byte{}
		} else {
			backbuffer = ctBlock
		}
	}

	copy(buf, pt[skip:skip+n])
	f.cursor += n
	return int(n), nil
}

// lookBehind returns the 16-byte backbuffer preceding the block-aligned
// offset start: all zeros at a chain-reset boundary, otherwise the raw
// ciphertext of the previous block.
func (f *CryptFile) lookBehind(start int64) ([16]byte, error) {
	if start%types.SegmentSize == 0 {
		return [16]byte{}, nil
	}

	var back [16]byte
	got, err := f.source.ReadAt(back[:], f.meta.HeaderSize+start-types.BlockSize)
	if err != nil && err != io.EOF {
		return [16]byte{}, fmt.Errorf("crypt: read look-behind block: %w", err)
	}
	if got < types.BlockSize {
		return [16]byte{}, fmt.Errorf("crypt: read look-behind block: %w: wanted %d bytes, got %d", ErrShortRead, types.BlockSize, got)
	}
	return back, nil
}

// ReadAll decrypts and returns the full plaintext, for callers who do not
// need streaming access.
func (f *CryptFile) ReadAll() ([]byte, error) {
	f.Seek(0)
	out := make([]byte, 0, f.meta.PlaintextSize)
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
	}
}

// Clone creates a new, independent CryptFile over the same path, sharing
// this file's KeyCache (so the clone's open is a cache hit rather than a
// fresh derivation) and preserving the current cursor position on the
// clone. reopen is supplied by the caller because reopening a RawSource is
// a filesystem-layer concern outside this package.
func (f *CryptFile) Clone(reopen func(path string) (interfaces.RawSource, error)) (*CryptFile, error) {
	newSource, err := reopen(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReopenFailed, f.path, err)
	}

	clone, err := Open(f.path, newSource, f.cfg)
	if err != nil {
		newSource.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrReopenFailed, f.path, err)
	}

	clone.Seek(f.cursor)
	return clone, nil
}

// Close releases the underlying raw source by calling its Close; the result
// of a second call is whatever that source returns for an already-closed
// handle.
func (f *CryptFile) Close() error {
	return f.source.Close()
}
