// Package store holds the authoritative map of live cache entries, their
// tier placement and the per-tier byte accounting. A single mutex guards
// the index; at the intended scale (hundreds of entries) lock contention
// is not a concern and a coarse lock keeps namespace clears and tier
// migration consistent.
package store

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/agent-isa/go-tier-cache/config"
	"github.com/agent-isa/go-tier-cache/internal/codec"
	"github.com/agent-isa/go-tier-cache/vfs"
)

// NoExpiry stores an entry without a TTL; it is removed by eviction or
// explicit deletion only.
const NoExpiry time.Duration = -1

// ErrCapacity is returned by Set when the entry cannot fit in either
// tier even after an eviction attempt.
var ErrCapacity = errors.New("tiercache: entry does not fit in any tier")

type removeReason int

const (
	reasonReplace removeReason = iota
	reasonDelete
	reasonExpired
	reasonEvicted
	reasonCorrupt
)

type Store struct {
	mu     sync.Mutex
	cfg    *config.Cache
	fs     vfs.FileSystem
	codec  *codec.Codec
	clock  clock.Clock
	logger *slog.Logger

	entries map[string]*Entry // composite key -> entry
	lruMem  *list.List        // front: most recently used
	lruDisk *list.List

	memBytes  int64
	diskBytes int64

	counters *counters
}

func New(cfg *config.Cache, fs vfs.FileSystem, cdc *codec.Codec, clk clock.Clock, logger *slog.Logger) *Store {
	return &Store{
		cfg:      cfg,
		fs:       fs,
		codec:    cdc,
		clock:    clk,
		logger:   logger,
		entries:  make(map[string]*Entry),
		lruMem:   list.New(),
		lruDisk:  list.New(),
		counters: newCounters(),
	}
}

// Set stores value under (ns, key), replacing any previous entry for the
// same pair. The pressure result reports whether an eviction attempt was
// needed, so the caller can nudge the background sweep.
func (s *Store) Set(ctx context.Context, ns, key string, value []byte, ttl time.Duration) (pressure bool, err error) {
	stored, compressed := s.codec.Compress(value)
	if !compressed {
		// Compress passed the caller's slice through; keep our own copy.
		cp := make([]byte, len(stored))
		copy(cp, stored)
		stored = cp
	}
	size := int64(len(stored))

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	e := &Entry{
		ns:         ns,
		key:        key,
		payload:    stored,
		size:       size,
		compressed: compressed,
		createdAt:  now,
		touchedAt:  now,
	}
	switch {
	case ttl > 0:
		e.expiresAt = now.Add(ttl)
	case ttl == 0:
		if d := s.cfg.Lifetime.DefaultTTL; d > 0 {
			e.expiresAt = now.Add(d)
		}
	}

	ck := compositeKey(ns, key)
	if old, ok := s.entries[ck]; ok {
		s.removeLocked(ctx, old, reasonReplace)
	}

	// Memory if it fits the remaining budget, else disk, else an
	// eviction attempt on whichever tier could hold the entry at all.
	if size <= s.memFreeLocked() {
		s.insertMemoryLocked(ck, e)
		return false, nil
	}
	if s.diskUsable() && size <= s.diskFreeLocked() {
		if err = s.writeDiskLocked(ctx, e); err != nil {
			return false, err
		}
		s.insertDiskLocked(ck, e)
		return false, nil
	}

	if size <= s.cfg.Memory.LimitBytes {
		s.reclaimMemoryLocked(ctx, size)
		if size <= s.memFreeLocked() {
			s.insertMemoryLocked(ck, e)
			return true, nil
		}
	}
	if s.diskUsable() && size <= s.cfg.Disk.LimitBytes {
		s.reclaimDiskLocked(ctx, size)
		if size <= s.diskFreeLocked() {
			if err = s.writeDiskLocked(ctx, e); err != nil {
				return true, err
			}
			s.insertDiskLocked(ck, e)
			return true, nil
		}
	}

	return true, ErrCapacity
}

// Get returns the value stored under (ns, key). Expiration, disk
// failures and corruption are all indistinguishable misses; the broken
// entry is dropped on the way out.
func (s *Store) Get(ctx context.Context, ns, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[compositeKey(ns, key)]
	if !ok {
		s.counters.misses.Add(1)
		return nil, false
	}

	now := s.clock.Now()
	if e.IsExpired(now) {
		// lazy expiration: a miss and an expiration
		s.removeLocked(ctx, e, reasonExpired)
		s.counters.misses.Add(1)
		return nil, false
	}

	payload := e.payload
	if e.tier == TierDisk {
		payload, ok = s.readDiskLocked(ctx, e)
		if !ok {
			s.removeLocked(ctx, e, reasonCorrupt)
			s.counters.misses.Add(1)
			return nil, false
		}
	}

	value, err := s.codec.Decompress(payload, e.compressed)
	if err != nil {
		s.logger.Warn("dropping undecodable cache entry",
			"namespace", ns, "key", key, "tier", e.tier.String(), "err", err)
		s.removeLocked(ctx, e, reasonCorrupt)
		s.counters.misses.Add(1)
		return nil, false
	}

	if e.tier == TierDisk {
		s.maybePromoteLocked(ctx, e, payload)
	}

	e.touchedAt = now
	s.touchLocked(e)
	s.counters.hits.Add(1)

	if !e.compressed {
		// value may alias the cached payload
		out := make([]byte, len(value))
		copy(out, value)
		return out, true
	}
	return value, true
}

// Delete removes the entry for (ns, key) from whichever tier holds it.
// Deleting an absent entry is a no-op.
func (s *Store) Delete(ctx context.Context, ns, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[compositeKey(ns, key)]; ok {
		s.removeLocked(ctx, e, reasonDelete)
	}
}

// Clear removes every entry under ns in both tiers, then sweeps the
// namespace's disk directory for orphaned files. The store lock is held
// for the whole operation so a concurrent Set cannot slip an entry past
// the clear.
func (s *Store) Clear(ctx context.Context, ns string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ns == ns {
			s.removeLocked(ctx, e, reasonDelete)
		}
	}

	if !s.diskUsable() {
		return
	}
	ioCtx, cancel := s.ioCtx(ctx)
	defer cancel()
	paths, err := s.fs.List(ioCtx, namespaceDir(ns)+"/")
	if err != nil {
		s.logger.Warn("clear: listing namespace dir failed", "namespace", ns, "err", err)
		return
	}
	for _, p := range paths {
		if derr := s.fs.Delete(ioCtx, p); derr != nil {
			s.logger.Warn("clear: deleting disk entry failed", "path", p, "err", derr)
		}
	}
}

// Stats returns a consistent snapshot of counters and tier occupancy.
func (s *Store) Stats() StatsSnapshot {
	hits, misses, evictions, expirations, demotions, promotions := s.counters.snapshot()

	s.mu.Lock()
	snap := StatsSnapshot{
		Hits:            hits,
		Misses:          misses,
		Evictions:       evictions,
		Expirations:     expirations,
		Demotions:       demotions,
		Promotions:      promotions,
		MemoryBytesUsed: s.memBytes,
		DiskBytesUsed:   s.diskBytes,
		MemoryItems:     int64(s.lruMem.Len()),
		DiskItems:       int64(s.lruDisk.Len()),
	}
	s.mu.Unlock()

	if total := hits + misses; total > 0 {
		snap.HitRate = float64(hits) / float64(total)
	}
	return snap
}

// Len reports the number of live entries across both tiers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Walk visits entries from least to most recently used (disk tier first)
// so a snapshot restored in walk order rebuilds the recency lists.
func (s *Store) Walk(fn func(e *Entry) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for el := s.lruDisk.Back(); el != nil; el = el.Prev() {
		if !fn(el.Value.(*Entry)) {
			return
		}
	}
	for el := s.lruMem.Back(); el != nil; el = el.Prev() {
		if !fn(el.Value.(*Entry)) {
			return
		}
	}
}

// Restore re-inserts a decoded snapshot entry. Entries that no longer fit
// the configured budgets, or collide with a live key, are skipped.
func (s *Store) Restore(e *Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ck := compositeKey(e.ns, e.key)
	if _, ok := s.entries[ck]; ok {
		return false
	}
	if e.tier == TierMemory {
		if e.payload == nil || e.size > s.memFreeLocked() {
			return false
		}
		s.insertMemoryLocked(ck, e)
		return true
	}
	if !s.diskUsable() || e.size > s.diskFreeLocked() {
		return false
	}
	s.insertDiskLocked(ck, e)
	return true
}

/**
 * Private API. Every *Locked method expects s.mu to be held.
 */

func (s *Store) insertMemoryLocked(ck string, e *Entry) {
	e.tier = TierMemory
	e.elem = s.lruMem.PushFront(e)
	s.entries[ck] = e
	s.memBytes += e.size
}

func (s *Store) insertDiskLocked(ck string, e *Entry) {
	e.tier = TierDisk
	e.elem = s.lruDisk.PushFront(e)
	s.entries[ck] = e
	s.diskBytes += e.size
}

func (s *Store) removeLocked(ctx context.Context, e *Entry, reason removeReason) {
	delete(s.entries, compositeKey(e.ns, e.key))
	if e.tier == TierMemory {
		s.lruMem.Remove(e.elem)
		s.memBytes -= e.size
	} else {
		s.lruDisk.Remove(e.elem)
		s.diskBytes -= e.size
		s.deleteDiskFile(ctx, e)
	}
	e.elem = nil

	switch reason {
	case reasonExpired:
		s.counters.expirations.Add(1)
	case reasonEvicted:
		s.counters.evictions.Add(1)
	}
}

func (s *Store) touchLocked(e *Entry) {
	if e.tier == TierMemory {
		s.lruMem.MoveToFront(e.elem)
	} else {
		s.lruDisk.MoveToFront(e.elem)
	}
}

// writeDiskLocked persists the entry's frame and drops the inline
// payload. On failure the entry keeps its previous tier.
func (s *Store) writeDiskLocked(ctx context.Context, e *Entry) error {
	prevTier := e.tier
	e.tier = TierDisk
	e.path = diskPath(e.ns, e.key)
	data := e.Encode()

	ioCtx, cancel := s.ioCtx(ctx)
	defer cancel()
	if err := s.fs.Write(ioCtx, e.path, data); err != nil {
		e.tier = prevTier
		return fmt.Errorf("tiercache: disk tier write %q/%q: %w", e.ns, e.key, err)
	}
	e.payload = nil
	return nil
}

// readDiskLocked loads and validates the entry's frame. Any failure
// (missing file, short frame, checksum mismatch) reads as "not ok".
func (s *Store) readDiskLocked(ctx context.Context, e *Entry) ([]byte, bool) {
	ioCtx, cancel := s.ioCtx(ctx)
	defer cancel()

	data, err := s.fs.Read(ioCtx, e.path)
	if err != nil {
		if !errors.Is(err, vfs.ErrNotFound) {
			s.logger.Warn("disk tier read failed", "path", e.path, "err", err)
		}
		return nil, false
	}
	frame, err := DecodeEntry(data)
	if err != nil || frame.payload == nil {
		s.logger.Warn("disk tier entry corrupt", "path", e.path, "err", err)
		return nil, false
	}
	return frame.payload, true
}

func (s *Store) deleteDiskFile(ctx context.Context, e *Entry) {
	ioCtx, cancel := s.ioCtx(ctx)
	defer cancel()
	if err := s.fs.Delete(ioCtx, e.path); err != nil {
		// maintenance failure: log and move on, the index already
		// forgot the entry
		s.logger.Warn("disk tier delete failed", "path", e.path, "err", err)
	}
}

func (s *Store) memFreeLocked() int64  { return s.cfg.Memory.LimitBytes - s.memBytes }
func (s *Store) diskFreeLocked() int64 { return s.cfg.Disk.LimitBytes - s.diskBytes }
func (s *Store) diskUsable() bool      { return s.fs != nil && s.cfg.Disk.LimitBytes > 0 }

func (s *Store) ioCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.cfg.Disk.IOTimeout)
}
