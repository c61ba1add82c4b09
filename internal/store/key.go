package store

import (
	"fmt"
	"sync"

	"github.com/zeebo/xxh3"
)

// nsSeparator folds the namespace into the composite index key.
const nsSeparator = ":"

func compositeKey(ns, key string) string {
	return ns + nsSeparator + key
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

// diskPath derives a stable, backend-safe path for an entry. Both path
// segments are hash-derived so arbitrary key strings never reach the
// file system, and a namespace maps to a single listable directory.
func diskPath(ns, key string) string {
	return namespaceDir(ns) + "/" + hashHex(compositeKey(ns, key)) + ".cache"
}

// namespaceDir returns the disk directory holding a namespace's entries.
func namespaceDir(ns string) string {
	return hashHex(ns)
}

func hashHex(s string) string {
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()
	_, _ = hasher.WriteString(s)
	sum := hasher.Sum128()
	hasherPool.Put(hasher)

	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}
