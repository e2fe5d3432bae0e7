// Package crypt implements the encrypted-file read layer: header parsing,
// per-file key derivation, the key-verification handshake, and the
// chained-block random-access decryption routine.
package crypt

import "errors"

// Sentinel errors, checked with errors.Is. Where a failure in open/read/clone
// falls under one of these, it is wrapped with context via
// fmt.Errorf("...: %w", err); raw-source I/O errors and a nil
// OpenConfig.Cache are reported without a sentinel.
var (
	// ErrShortRead means the raw source returned fewer bytes than a header
	// field or body read demanded.
	ErrShortRead = errors.New("crypt: short read")

	// ErrBadMagic means the header's magic bytes did not match the magic
	// expected for the configured variant.
	ErrBadMagic = errors.New("crypt: bad magic")

	// ErrSubkeyTooLarge means the declared subkey length exceeded
	// types.MaxSubkeySize.
	ErrSubkeyTooLarge = errors.New("crypt: subkey too large")

	// ErrKeyMismatch means the verify block did not decrypt to the
	// expected plaintext prefix: wrong dongle, wrong secret, or a
	// corrupted file.
	ErrKeyMismatch = errors.New("crypt: key mismatch")

	// ErrDongleUnavailable means the injected dongle capability failed.
	ErrDongleUnavailable = errors.New("crypt: dongle unavailable")

	// ErrBadSecretLength means a SecretDeriver was constructed with a
	// secret whose length is not exactly types.PatchSecretSize.
	ErrBadSecretLength = errors.New("crypt: patch secret must be exactly 47 bytes")

	// ErrReopenFailed means re-opening a path for Clone failed for any of
	// the reasons above.
	ErrReopenFailed = errors.New("crypt: reopen failed")

	// ErrClosed names the condition of a CryptFile whose underlying source
	// has already been closed. No function in this package returns it: an
	// operation on a closed CryptFile reports the raw source's own error.
	ErrClosed = errors.New("crypt: file closed")
)
