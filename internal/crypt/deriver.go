package crypt

import (
	"crypto/sha512"
	"fmt"

	"github.com/riftline/cryptvfs/internal/interfaces"
	"github.com/riftline/cryptvfs/internal/types"
)

// DongleCapability is the opaque hardware collaborator that maps a per-file
// subkey blob to a 24-byte AES key. It may block on I/O and may fail; both
// are propagated to the caller without retry.
type DongleCapability interface {
	// DeriveAESKey returns the AES-192 key for subkey, or an error if the
	// dongle could not service the request.
	DeriveAESKey(subkey []byte) ([24]byte, error)
}

// secretDeriver hashes a fixed 47-byte embedded secret against the file's
// subkey to produce the patch-file AES key.
type secretDeriver struct {
	secret []byte
}

var _ interfaces.KeyDeriver = (*secretDeriver)(nil)

// NewSecretDeriver builds a KeyDeriver for patch files. secret must be
// exactly types.PatchSecretSize bytes; anything else is a configuration
// error caught at construction rather than at first derive.
func NewSecretDeriver(secret string) (interfaces.KeyDeriver, error) {
	if len(secret) != types.PatchSecretSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrBadSecretLength, len(secret))
	}
	return &secretDeriver{secret: []byte(secret)}, nil
}

// Derive computes the first 24 bytes of SHA-512(subkey ‖ secret).
func (d *secretDeriver) Derive(subkey []byte) ([24]byte, error) {
	h := sha512.New()
	h.Write(subkey)
	h.Write(d.secret)
	sum := h.Sum(nil)

	var key [24]byte
	copy(key[:], sum[:types.AESKeySize])
	return key, nil
}

// dongleDeriver delegates key derivation to the injected hardware
// capability. It is used for arcade files, where no secret is configured.
type dongleDeriver struct {
	dongle DongleCapability
}

var _ interfaces.KeyDeriver = (*dongleDeriver)(nil)

// NewDongleDeriver builds a KeyDeriver for arcade files, backed by dongle.
func NewDongleDeriver(dongle DongleCapability) interfaces.KeyDeriver {
	return &dongleDeriver{dongle: dongle}
}

// Derive hands subkey to the dongle capability and propagates its result
// verbatim, wrapping any failure as ErrDongleUnavailable.
func (d *dongleDeriver) Derive(subkey []byte) ([24]byte, error) {
	key, err := d.dongle.DeriveAESKey(subkey)
	if err != nil {
		return [24]byte{}, fmt.Errorf("%w: %v", ErrDongleUnavailable, err)
	}
	return key, nil
}

// SelectDeriver applies the selection rule from the format spec: a
// non-empty configured secret always means SecretDeriver, otherwise the
// dongle is used.
func SelectDeriver(secret string, dongle DongleCapability) (interfaces.KeyDeriver, error) {
	if secret != "" {
		return NewSecretDeriver(secret)
	}
	if dongle == nil {
		return nil, fmt.Errorf("%w: no secret configured and no dongle capability injected", ErrDongleUnavailable)
	}
	return NewDongleDeriver(dongle), nil
}
