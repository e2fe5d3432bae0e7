package crypt

import (
	"fmt"
	"io"

	"github.com/riftline/cryptvfs/internal/types"
)

// logHeaderFields writes a single "[crypt] ..." diagnostic line describing
// meta's fields to w. It never logs key material: neither the derived AES
// key nor the raw subkey bytes appear in the line, only the variant and the
// header's size fields.
func logHeaderFields(w io.Writer, path string, meta types.FileMeta) {
	fmt.Fprintf(w, "[crypt] %s: variant=%s plaintext_size=%d subkey_len=%d header_size=%d\n",
		path, meta.Variant, meta.PlaintextSize, len(meta.Subkey), meta.HeaderSize)
}
