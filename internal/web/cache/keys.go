package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/conduit-lang/drest/internal/filter"
)

// TreeKey derives a cache key from a resource name and its filter
// parameters. Parameter order is significant: later keys may overwrite
// earlier ones in the tree.
func TreeKey(namespace, resource string, params *filter.Params) string {
	h := sha256.New()
	writeField(h, namespace)
	writeField(h, resource)
	for _, key := range params.Keys() {
		writeField(h, key)
		for _, value := range params.Get(key) {
			writeField(h, value)
		}
		h.Write([]byte{1})
	}
	sum := h.Sum(nil)
	return "tree:" + resource + ":" + hex.EncodeToString(sum[:16])
}

// Fingerprint hashes content such as a schema file so that a namespace
// changes whenever the definitions do
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:8])
}

func writeField(h hash.Hash, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}
