// Package storage is a typed convenience layer over the virtual file
// system: JSON and msgpack documents, plus CSV tables as row maps.
package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/agent-isa/go-tier-cache/vfs"
)

type Storage struct {
	fs vfs.FileSystem
}

func New(fs vfs.FileSystem) *Storage {
	return &Storage{fs: fs}
}

func (s *Storage) SaveJSON(ctx context.Context, path string, v any, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal json for %s: %w", path, err)
	}
	return s.fs.Write(ctx, path, data)
}

func (s *Storage) LoadJSON(ctx context.Context, path string, v any) error {
	data, err := s.fs.Read(ctx, path)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal json from %s: %w", path, err)
	}
	return nil
}

func (s *Storage) SaveMsgpack(ctx context.Context, path string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal msgpack for %s: %w", path, err)
	}
	return s.fs.Write(ctx, path, data)
}

func (s *Storage) LoadMsgpack(ctx context.Context, path string, v any) error {
	data, err := s.fs.Read(ctx, path)
	if err != nil {
		return err
	}
	if err = msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal msgpack from %s: %w", path, err)
	}
	return nil
}

// SaveCSV writes rows as a CSV table with a header line. When fields is
// empty, the header is derived from the first row's keys, sorted.
func (s *Storage) SaveCSV(ctx context.Context, path string, rows []map[string]string, fields []string) error {
	if len(fields) == 0 {
		if len(rows) == 0 {
			return fmt.Errorf("save csv %s: no rows and no field names", path)
		}
		for k := range rows[0] {
			fields = append(fields, k)
		}
		sort.Strings(fields)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return fmt.Errorf("write csv header for %s: %w", path, err)
	}
	record := make([]string, len(fields))
	for _, row := range rows {
		for i, f := range fields {
			record[i] = row[f]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row for %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv for %s: %w", path, err)
	}
	return s.fs.Write(ctx, path, buf.Bytes())
}

// LoadCSV reads a CSV table written by SaveCSV back into row maps keyed
// by the header line.
func (s *Storage) LoadCSV(ctx context.Context, path string) ([]map[string]string, error) {
	data, err := s.fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv from %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, f := range header {
			if i < len(rec) {
				row[f] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
