// Package codec compresses cache values above a size threshold.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Codec is a zlib codec with a minimum-size threshold. A nil *Codec is
// valid and stores everything verbatim.
type Codec struct {
	threshold int
	level     int
}

func New(threshold, level int) *Codec {
	if level < zlib.NoCompression {
		level = zlib.NoCompression
	}
	if level > zlib.BestCompression {
		level = zlib.BestCompression
	}
	return &Codec{threshold: threshold, level: level}
}

// Compress returns the stored form of data and whether it was compressed.
// The compressed form is kept only when it is strictly smaller than the
// input; incompressible data passes through untouched.
func (c *Codec) Compress(data []byte) ([]byte, bool) {
	if c == nil || len(data) < c.threshold {
		return data, false
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return data, false
	}
	if _, err = w.Write(data); err != nil {
		return data, false
	}
	if err = w.Close(); err != nil {
		return data, false
	}
	if buf.Len() >= len(data) {
		return data, false
	}
	return buf.Bytes(), true
}

// Decompress restores the original bytes. The compressed flag comes from
// the entry and must be consulted on every read.
func (c *Codec) Decompress(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}

	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: open zlib stream: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: inflate: %w", err)
	}
	return out, nil
}
