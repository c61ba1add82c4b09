package tiercache

import "github.com/agent-isa/go-tier-cache/internal/store"

// ErrCapacity is returned by Set when the entry cannot fit in either
// tier even after an eviction attempt (for example, a single value
// larger than both budgets). Match it with errors.Is.
var ErrCapacity = store.ErrCapacity
