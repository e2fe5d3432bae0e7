package crypt

import (
	"crypto/aes"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftline/cryptvfs/internal/rawsource"
	"github.com/riftline/cryptvfs/internal/types"
)

func mustDeriveKey(t *testing.T, secret string, subkey []byte) [24]byte {
	t.Helper()
	deriver, err := NewSecretDeriver(secret)
	require.NoError(t, err)
	key, err := deriver.Derive(subkey)
	require.NoError(t, err)
	return key
}

func openPatchFixture(t *testing.T, plaintext []byte) (*CryptFile, afero.Fs) {
	t.Helper()
	subkey := []byte("fixture-subkey")
	key := mustDeriveKey(t, canonicalPatchSecret, subkey)

	data := buildFileBytesWithKey(types.MagicPatch, subkey, key, plaintext)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "fixture.patch", data, 0o644))

	source, err := rawsource.Open(fs, "fixture.patch")
	require.NoError(t, err)

	f, err := Open("fixture.patch", source, OpenConfig{Secret: canonicalPatchSecret, Cache: NewKeyCache()})
	require.NoError(t, err)
	return f, fs
}

func TestOpen_VerifyBlockGating(t *testing.T) {
	subkey := []byte("subkey")
	wrongKey := mustDeriveKey(t, canonicalPatchSecret, subkey)
	// Corrupt the derived key so the verify block won't decrypt right.
	wrongKey[0] ^= 0xFF

	data := buildFileBytesWithKey(types.MagicPatch, subkey, wrongKey, []byte("hello world"))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.patch", data, 0o644))
	source, err := rawsource.Open(fs, "bad.patch")
	require.NoError(t, err)
	defer source.Close()

	_, err = Open("bad.patch", source, OpenConfig{Secret: canonicalPatchSecret, Cache: NewKeyCache()})
	require.ErrorIs(t, err, ErrKeyMismatch)
}

func TestCryptFile_RoundTrip_FullRead(t *testing.T) {
	plaintext := make([]byte, 10000)
	for i := range plaintext {
		plaintext[i] = byte(i * 7)
	}

	f, fs := openPatchFixture(t, plaintext)
	defer fs.RemoveAll(".")
	defer f.Close()

	got, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestCryptFile_SeekReadIsPositionIdempotent(t *testing.T) {
	plaintext := make([]byte, 5000)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}
	f, fs := openPatchFixture(t, plaintext)
	defer fs.RemoveAll(".")
	defer f.Close()

	buf1 := make([]byte, 20)
	f.Seek(123)
	n1, err := f.Read(buf1)
	require.NoError(t, err)

	// Do unrelated reads/seeks in between.
	scratch := make([]byte, 200)
	f.Seek(0)
	_, _ = f.Read(scratch)
	f.Seek(4000)
	_, _ = f.Read(scratch)

	buf2 := make([]byte, 20)
	f.Seek(123)
	n2, err := f.Read(buf2)
	require.NoError(t, err)

	assert.Equal(t, n1, n2)
	assert.Equal(t, buf1, buf2)
	assert.Equal(t, plaintext[123:143], buf1)
}

func TestCryptFile_SplitReadEquivalence(t *testing.T) {
	plaintext := make([]byte, 9000)
	for i := range plaintext {
		plaintext[i] = byte(i * 3)
	}
	f1, fs1 := openPatchFixture(t, plaintext)
	defer fs1.RemoveAll(".")
	defer f1.Close()
	f2, fs2 := openPatchFixture(t, plaintext)
	defer fs2.RemoveAll(".")
	defer f2.Close()

	const start, n, k = 4070, 30, 11

	f1.Seek(start)
	whole := make([]byte, n)
	_, err := f1.Read(whole)
	require.NoError(t, err)

	f2.Seek(start)
	part1 := make([]byte, k)
	_, err = f2.Read(part1)
	require.NoError(t, err)
	part2 := make([]byte, n-k)
	_, err = f2.Read(part2)
	require.NoError(t, err)

	assert.Equal(t, whole, append(part1, part2...))
}

func TestCryptFile_ChainResetIndependence(t *testing.T) {
	plaintext := make([]byte, 4096)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}
	subkey := []byte("reset-subkey")
	key := mustDeriveKey(t, canonicalPatchSecret, subkey)
	data := buildFileBytesWithKey(types.MagicPatch, subkey, key, plaintext)

	openWith := func(data []byte) *CryptFile {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "reset.patch", data, 0o644))
		source, err := rawsource.Open(fs, "reset.patch")
		require.NoError(t, err)
		f, err := Open("reset.patch", source, OpenConfig{Secret: canonicalPatchSecret, Cache: NewKeyCache()})
		require.NoError(t, err)
		return f
	}

	f1 := openWith(data)
	defer f1.Close()
	f1.Seek(types.SegmentSize)
	segment1Original := make([]byte, types.BlockSize)
	_, err := f1.Read(segment1Original)
	require.NoError(t, err)

	// Corrupt block 254's ciphertext (the block immediately before the
	// segment boundary at 4080) without touching anything at or after
	// 4080.
	headerSize := f1.Meta().HeaderSize
	corrupted := append([]byte(nil), data...)
	block254Offset := headerSize + types.SegmentSize - types.BlockSize
	corrupted[block254Offset] ^= 0xFF

	f2 := openWith(corrupted)
	defer f2.Close()
	f2.Seek(types.SegmentSize)
	segment1Corrupted := make([]byte, types.BlockSize)
	_, err = f2.Read(segment1Corrupted)
	require.NoError(t, err)

	assert.Equal(t, segment1Original, segment1Corrupted, "plaintext of the block starting a new segment must not depend on the previous segment's ciphertext")
}

func TestCryptFile_SizeTruncatesTrailingRead(t *testing.T) {
	plaintext := make([]byte, 100)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}
	f, fs := openPatchFixture(t, plaintext)
	defer fs.RemoveAll(".")
	defer f.Close()

	f.Seek(95)
	buf := make([]byte, 10)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(100), f.Tell())
	assert.Equal(t, plaintext[95:100], buf[:5])
}

func TestCryptFile_ReadAtEOF(t *testing.T) {
	f, fs := openPatchFixture(t, []byte("hello"))
	defer fs.RemoveAll(".")
	defer f.Close()

	f.Seek(5)
	buf := make([]byte, 10)
	n, err := f.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCryptFile_Clone_PreservesCursor(t *testing.T) {
	plaintext := make([]byte, 200)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}
	f, fs := openPatchFixture(t, plaintext)
	defer fs.RemoveAll(".")
	defer f.Close()

	f.Seek(42)

	clone, err := f.Clone(rawsource.ReopenFunc(fs))
	require.NoError(t, err)
	defer clone.Close()

	assert.Equal(t, int64(42), clone.Tell())

	buf := make([]byte, 10)
	_, err = clone.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, plaintext[42:52], buf)
}

// sanity-check the test fixture builder itself against a raw AES round trip.
func TestFixtureBuilder_VerifyBlockRoundTrips(t *testing.T) {
	key := [24]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}
	data := buildFileBytesWithKey(types.MagicArcade, []byte("sk"), key, []byte("x"))

	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)

	headerSize := types.HeaderSizeFor(2)
	verifyStart := headerSize - types.VerifyBlockSize
	ct := data[verifyStart:headerSize]
	pt := make([]byte, 16)
	block.Decrypt(pt, ct)
	assert.Equal(t, byte(':'), pt[0])
	assert.Equal(t, byte('D'), pt[1])
}
