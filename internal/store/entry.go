package store

import (
	"container/list"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
	"time"
)

// Tier is where an entry's stored bytes currently reside.
type Tier uint8

const (
	TierMemory Tier = iota
	TierDisk
)

func (t Tier) String() string {
	if t == TierDisk {
		return "disk"
	}
	return "memory"
}

// Entry is a single cached value. Memory-tier entries carry their stored
// (possibly compressed) payload inline; disk-tier entries keep metadata
// only and read the payload back through the file system.
type Entry struct {
	ns  string
	key string

	payload    []byte // nil once the entry lives on disk
	path       string // disk path, derived from the composite key
	size       int64  // stored byte length (after compression, if any)
	compressed bool
	tier       Tier

	createdAt time.Time
	expiresAt time.Time // zero: never expires
	touchedAt time.Time

	elem *list.Element // position in the owning tier's recency list
}

func (e *Entry) Namespace() string { return e.ns }
func (e *Entry) Key() string       { return e.key }
func (e *Entry) Size() int64       { return e.size }
func (e *Entry) Tier() Tier        { return e.tier }
func (e *Entry) Compressed() bool  { return e.compressed }

func (e *Entry) IsExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Frame layout (little-endian), shared by disk-tier files and snapshot
// records:
//
//	u8  flags            bit0 compressed, bit1 disk tier, bit2 payload present
//	i64 createdAt        unix nanos
//	i64 expiresAt        unix nanos, 0 = never
//	i64 touchedAt        unix nanos
//	u32 size             stored payload length (kept even when payload omitted)
//	u16 nsLen  + ns
//	u16 keyLen + key
//	u32 payloadLen
//	u32 crc32(payload)
//	payload
const (
	flagCompressed = 1 << 0
	flagDiskTier   = 1 << 1
	flagPayload    = 1 << 2
)

var errCorruptFrame = errors.New("store: corrupt entry frame")

// Encode serializes the entry into a self-describing frame.
func (e *Entry) Encode() []byte {
	nsb, kb := []byte(e.ns), []byte(e.key)
	buf := make([]byte, 0, 1+8*3+4+2+len(nsb)+2+len(kb)+4+4+len(e.payload))

	var flags byte
	if e.compressed {
		flags |= flagCompressed
	}
	if e.tier == TierDisk {
		flags |= flagDiskTier
	}
	if e.payload != nil {
		flags |= flagPayload
	}
	buf = append(buf, flags)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(unixNano(e.createdAt)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(unixNano(e.expiresAt)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(unixNano(e.touchedAt)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.size))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(nsb)))
	buf = append(buf, nsb...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(kb)))
	buf = append(buf, kb...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.payload)))
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(e.payload))
	buf = append(buf, e.payload...)
	return buf
}

// DecodeEntry parses a frame and verifies the payload checksum. Any
// structural or checksum failure yields errCorruptFrame so callers treat
// the entry as a miss.
func DecodeEntry(data []byte) (*Entry, error) {
	r := frameReader{data: data}

	flags, err := r.u8()
	if err != nil {
		return nil, err
	}
	created, err := r.i64()
	if err != nil {
		return nil, err
	}
	expires, err := r.i64()
	if err != nil {
		return nil, err
	}
	touched, err := r.i64()
	if err != nil {
		return nil, err
	}
	size, err := r.u32()
	if err != nil {
		return nil, err
	}
	ns, err := r.str16()
	if err != nil {
		return nil, err
	}
	key, err := r.str16()
	if err != nil {
		return nil, err
	}
	payloadLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	sum, err := r.u32()
	if err != nil {
		return nil, err
	}
	payload, err := r.bytes(int(payloadLen))
	if err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, errCorruptFrame
	}

	e := &Entry{
		ns:         ns,
		key:        key,
		size:       int64(size),
		compressed: flags&flagCompressed != 0,
		createdAt:  timeFromNano(created),
		expiresAt:  timeFromNano(expires),
		touchedAt:  timeFromNano(touched),
	}
	if flags&flagPayload != 0 {
		e.payload = payload
	}
	if flags&flagDiskTier != 0 {
		e.tier = TierDisk
		e.path = diskPath(ns, key)
	}
	return e, nil
}

type frameReader struct {
	data []byte
	off  int
}

func (r *frameReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, errCorruptFrame
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *frameReader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *frameReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *frameReader) i64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *frameReader) str16() (string, error) {
	b, err := r.take(2)
	if err != nil {
		return "", err
	}
	s, err := r.take(int(binary.LittleEndian.Uint16(b)))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func (r *frameReader) bytes(n int) ([]byte, error) {
	if n > math.MaxInt32 {
		return nil, errCorruptFrame
	}
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func timeFromNano(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}
