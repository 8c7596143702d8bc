package tindak

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"strconv"
)

// RequestDescriptor is the immutable description of one logical request,
// built by endpoint call sites before constructing an Action. It is never
// mutated after construction; the fingerprint derived from it identifies the
// request for cache and deduplication purposes.
type RequestDescriptor struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
}

// Fingerprint derives a stable cache key from the descriptor. Descriptors
// equal in all fields yield equal fingerprints. Method, URL and content type
// are hashed with FNV-1a; a request body, when present, contributes a
// SHA-256 digest so large bodies keep the key short.
func Fingerprint(desc RequestDescriptor) string {
	h := fnv.New64a()
	h.Write([]byte(desc.Method))
	h.Write([]byte{':'})
	h.Write([]byte(desc.URL))
	h.Write([]byte{':'})
	h.Write([]byte(desc.ContentType))

	key := strconv.FormatUint(h.Sum64(), 16)
	if len(desc.Body) > 0 {
		sum := sha256.Sum256(desc.Body)
		key += ":" + hex.EncodeToString(sum[:8])
	}
	return key
}
