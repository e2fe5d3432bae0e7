// File: internal/interfaces/source.go
package interfaces

import "io"

// RawSource is the unencrypted, random-access byte source a CryptFile is
// layered on top of. It is the Go rendering of the read_at/seek/tell/size
// trait the crypt core is specified against; the core never opens files or
// touches a filesystem directly, it only consumes this contract.
type RawSource interface {
	// ReadAt reads len(p) bytes starting at absolute offset off, following
	// io.ReaderAt semantics: it does not disturb the source's own cursor.
	io.ReaderAt

	// Seek repositions the source's logical cursor, following io.Seeker
	// semantics.
	io.Seeker

	// Tell returns the source's current logical cursor.
	Tell() (int64, error)

	// Size returns the total size of the underlying byte source.
	Size() (int64, error)

	io.Closer
}
