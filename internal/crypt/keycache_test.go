package crypt

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCache_SingleDerivationAcrossSequentialOpens(t *testing.T) {
	cache := NewKeyCache()
	var calls int32

	derive := func() ([24]byte, error) {
		atomic.AddInt32(&calls, 1)
		return [24]byte{9}, nil
	}

	for i := 0; i < 5; i++ {
		key, err := cache.GetOrInsert("song.kry", derive)
		require.NoError(t, err)
		assert.Equal(t, [24]byte{9}, key)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, cache.Len())
}

func TestKeyCache_SingleFlightUnderConcurrency(t *testing.T) {
	cache := NewKeyCache()
	var calls int32

	derive := func() ([24]byte, error) {
		atomic.AddInt32(&calls, 1)
		return [24]byte{7}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := cache.GetOrInsert("shared.kry", derive)
			assert.NoError(t, err)
			assert.Equal(t, [24]byte{7}, key)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestKeyCache_DistinctPathSpellingsAreDistinct(t *testing.T) {
	cache := NewKeyCache()

	_, err := cache.GetOrInsert("./song.kry", func() ([24]byte, error) { return [24]byte{1}, nil })
	require.NoError(t, err)
	_, err = cache.GetOrInsert("song.kry", func() ([24]byte, error) { return [24]byte{2}, nil })
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
}

func TestKeyCache_FailedDeriveIsNotCached(t *testing.T) {
	cache := NewKeyCache()
	var calls int32

	failing := func() ([24]byte, error) {
		atomic.AddInt32(&calls, 1)
		return [24]byte{}, assertError("boom")
	}

	_, err := cache.GetOrInsert("bad.kry", failing)
	require.Error(t, err)

	_, err = cache.GetOrInsert("bad.kry", failing)
	require.Error(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, cache.Len())
}

type assertError string

func (e assertError) Error() string { return string(e) }
