package store

import "context"

// PurgeExpired removes every entry whose TTL has passed, in both tiers.
func (s *Store) PurgeExpired(ctx context.Context) (removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for _, e := range s.entries {
		if e.IsExpired(now) {
			s.removeLocked(ctx, e, reasonExpired)
			removed++
		}
	}
	return removed
}

// EnforceMemoryBudget walks the memory tier from its LRU end, demoting
// entries to disk when the disk budget and remaining TTL allow and
// deleting them otherwise. At most maxOps entries are handled per call so
// the caller can pace the work; done reports whether the tier is within
// budget.
func (s *Store) EnforceMemoryBudget(ctx context.Context, maxOps int) (demoted, evicted int, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for ops := 0; ops < maxOps; ops++ {
		if s.memBytes <= s.cfg.Memory.LimitBytes {
			return demoted, evicted, true
		}
		el := s.lruMem.Back()
		if el == nil {
			return demoted, evicted, true
		}
		e := el.Value.(*Entry)
		if e.IsExpired(now) {
			s.removeLocked(ctx, e, reasonExpired)
			continue
		}
		if s.demoteLocked(ctx, e) {
			demoted++
		} else {
			evicted++
		}
	}
	return demoted, evicted, s.memBytes <= s.cfg.Memory.LimitBytes
}

// EnforceDiskBudget deletes disk-tier entries from the LRU end until the
// tier is within budget, bounded by maxOps per call.
func (s *Store) EnforceDiskBudget(ctx context.Context, maxOps int) (evicted int, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for ops := 0; ops < maxOps; ops++ {
		if s.diskBytes <= s.cfg.Disk.LimitBytes {
			return evicted, true
		}
		el := s.lruDisk.Back()
		if el == nil {
			return evicted, true
		}
		e := el.Value.(*Entry)
		if e.IsExpired(now) {
			s.removeLocked(ctx, e, reasonExpired)
			continue
		}
		s.removeLocked(ctx, e, reasonEvicted)
		evicted++
	}
	return evicted, s.diskBytes <= s.cfg.Disk.LimitBytes
}

// reclaimMemoryLocked frees memory-tier space for an incoming entry of
// the given size, demoting or deleting from the LRU end.
func (s *Store) reclaimMemoryLocked(ctx context.Context, need int64) {
	now := s.clock.Now()
	for s.memFreeLocked() < need {
		el := s.lruMem.Back()
		if el == nil {
			return
		}
		e := el.Value.(*Entry)
		if e.IsExpired(now) {
			s.removeLocked(ctx, e, reasonExpired)
			continue
		}
		s.demoteLocked(ctx, e)
	}
}

// reclaimDiskLocked frees disk-tier space for an incoming entry.
func (s *Store) reclaimDiskLocked(ctx context.Context, need int64) {
	now := s.clock.Now()
	for s.diskFreeLocked() < need {
		el := s.lruDisk.Back()
		if el == nil {
			return
		}
		e := el.Value.(*Entry)
		if e.IsExpired(now) {
			s.removeLocked(ctx, e, reasonExpired)
			continue
		}
		s.removeLocked(ctx, e, reasonEvicted)
	}
}

// demoteLocked moves a memory-tier entry to disk, preserving it when the
// disk budget allows. A failed or impossible demotion deletes the entry;
// the error is logged, never propagated (sweeps are fire-and-forget).
func (s *Store) demoteLocked(ctx context.Context, e *Entry) bool {
	if !s.diskUsable() || e.size > s.diskFreeLocked() {
		s.removeLocked(ctx, e, reasonEvicted)
		return false
	}
	if err := s.writeDiskLocked(ctx, e); err != nil {
		s.logger.Warn("demotion failed, dropping entry",
			"namespace", e.ns, "key", e.key, "err", err)
		s.removeLocked(ctx, e, reasonEvicted)
		return false
	}

	s.lruMem.Remove(e.elem)
	s.memBytes -= e.size
	// a demoted entry was the memory tier's coldest; it joins the disk
	// tier at the cold end too
	e.elem = s.lruDisk.PushBack(e)
	s.diskBytes += e.size
	s.counters.demotions.Add(1)
	return true
}

// maybePromoteLocked moves a disk hit back into memory when it fits the
// free budget outright. No eviction is triggered on the read path.
func (s *Store) maybePromoteLocked(ctx context.Context, e *Entry, payload []byte) {
	if int64(len(payload)) > s.memFreeLocked() {
		return
	}

	s.lruDisk.Remove(e.elem)
	s.diskBytes -= e.size
	s.deleteDiskFile(ctx, e)

	e.tier = TierMemory
	e.payload = payload
	e.size = int64(len(payload))
	e.elem = s.lruMem.PushFront(e)
	s.memBytes += e.size
	s.counters.promotions.Add(1)
}
