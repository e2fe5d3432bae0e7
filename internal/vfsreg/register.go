// Package vfsreg documents, without implementing, the external
// virtual-filesystem driver-registration mechanism the crypt core plugs
// into. The real registration mechanism (mapping the ".kry" and ".patch"
// extensions to a mounted driver instance, dispatching Open calls by path
// suffix, participating in the surrounding VFS's directory/stat protocol)
// is explicitly out of scope for this module; ExtensionConfig only records
// the two variants' fixed wiring so callers of internal/crypt can build the
// right OpenConfig without duplicating the arcade/patch selection rule.
package vfsreg

import "github.com/riftline/cryptvfs/internal/crypt"

// ExtensionConfig pairs a file extension with the OpenConfig fields a real
// VFS driver would use to construct every CryptFile for that extension.
type ExtensionConfig struct {
	Extension string
	Secret    string
}

// KryExtension and PatchExtension are the two variants a surrounding VFS
// registers: ".kry" carries no secret (dongle-keyed), ".patch" carries the
// compiled-in patch secret (hash-keyed).
func KryExtension() ExtensionConfig {
	return ExtensionConfig{Extension: ".kry", Secret: ""}
}

func PatchExtension(secret string) ExtensionConfig {
	return ExtensionConfig{Extension: ".patch", Secret: secret}
}

// ToOpenConfig builds the crypt.OpenConfig a VFS driver would pass to
// crypt.Open for a file matching this extension, given the process-wide
// KeyCache and dongle capability the surrounding VFS owns.
func (c ExtensionConfig) ToOpenConfig(cache *crypt.KeyCache, dongle crypt.DongleCapability) crypt.OpenConfig {
	return crypt.OpenConfig{
		Secret: c.Secret,
		Dongle: dongle,
		Cache:  cache,
	}
}
