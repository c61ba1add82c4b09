// Package dump snapshots the cache index through the virtual file
// system so a restart does not begin cold. Records are length-prefixed,
// crc-checked entry frames, optionally gzip-compressed as a stream.
package dump

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/agent-isa/go-tier-cache/config"
	"github.com/agent-isa/go-tier-cache/internal/store"
	"github.com/agent-isa/go-tier-cache/vfs"
)

type Dumper struct {
	cfg   *config.PersistenceCfg
	fs    vfs.FileSystem
	store *store.Store
	clock clock.Clock
}

func New(cfg *config.PersistenceCfg, fs vfs.FileSystem, st *store.Store, clk clock.Clock) *Dumper {
	return &Dumper{cfg: cfg, fs: fs, store: st, clock: clk}
}

// Dump writes every live entry (memory payloads inline, disk entries as
// metadata) to the configured snapshot path.
func (d *Dumper) Dump(ctx context.Context) error {
	start := time.Now()

	var buf bytes.Buffer
	var w io.Writer = &buf
	var gw *gzip.Writer
	if d.cfg.Gzip {
		gw = gzip.NewWriter(&buf)
		w = gw
	}

	var written int
	var werr error
	d.store.Walk(func(e *store.Entry) bool {
		frame := e.Encode()
		var meta [8]byte
		binary.LittleEndian.PutUint32(meta[0:4], uint32(len(frame)))
		binary.LittleEndian.PutUint32(meta[4:8], crc32.ChecksumIEEE(frame))
		if _, werr = w.Write(meta[:]); werr != nil {
			return false
		}
		if _, werr = w.Write(frame); werr != nil {
			return false
		}
		written++
		return true
	})
	if werr != nil {
		return fmt.Errorf("encode snapshot: %w", werr)
	}
	if gw != nil {
		if err := gw.Close(); err != nil {
			return fmt.Errorf("finish snapshot gzip stream: %w", err)
		}
	}

	if err := d.fs.Write(ctx, d.cfg.Path, buf.Bytes()); err != nil {
		return fmt.Errorf("write snapshot %s: %w", d.cfg.Path, err)
	}

	log.Info().
		Int("written", written).
		Str("path", d.cfg.Path).
		Str("elapsed", time.Since(start).String()).
		Msg("snapshot finished")

	return nil
}

// Load restores entries from the snapshot, skipping records that are
// expired, corrupt or no longer fit the configured budgets. A missing
// snapshot is not an error.
func (d *Dumper) Load(ctx context.Context) error {
	start := time.Now()

	data, err := d.fs.Read(ctx, d.cfg.Path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("read snapshot %s: %w", d.cfg.Path, err)
	}

	var r io.Reader = bytes.NewReader(data)
	if d.cfg.Gzip {
		gzr, gerr := gzip.NewReader(r)
		if gerr != nil {
			return fmt.Errorf("open snapshot gzip stream: %w", gerr)
		}
		defer gzr.Close()
		r = gzr
	}

	now := d.clock.Now()
	var restored, skipped, failures int
	var meta [8]byte
	for {
		if _, err = io.ReadFull(r, meta[:]); err == io.EOF {
			break
		} else if err != nil {
			failures++
			break
		}

		size := binary.LittleEndian.Uint32(meta[0:4])
		expCRC := binary.LittleEndian.Uint32(meta[4:8])
		frame := make([]byte, size)
		if _, err = io.ReadFull(r, frame); err != nil {
			failures++
			break
		}
		if crc32.ChecksumIEEE(frame) != expCRC {
			failures++
			continue
		}
		e, derr := store.DecodeEntry(frame)
		if derr != nil {
			failures++
			continue
		}
		if e.IsExpired(now) {
			skipped++
			continue
		}
		if d.store.Restore(e) {
			restored++
		} else {
			skipped++
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	log.Info().
		Int("restored", restored).
		Int("skipped", skipped).
		Int("fails", failures).
		Str("elapsed", time.Since(start).String()).
		Msg("snapshot restored")

	if failures > 0 {
		return fmt.Errorf("snapshot load finished with %d errors", failures)
	}
	return nil
}
