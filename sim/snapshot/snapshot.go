// Package snapshot saves and restores the columns of a frame.
//
// A snapshot is a zstd stream holding one JSON header line (run id, tick,
// capacity, count and the column schema with an xxhash64 checksum per column)
// followed by every column's buffer in little-endian order.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/laser-sim/laser/sim/frame"
)

// Version is the snapshot format version written by Write.
const Version = 2

var (
	// ErrChecksum is returned when a column payload does not match its header checksum.
	ErrChecksum = errors.New("snapshot: column checksum mismatch")
	// ErrVersion is returned for snapshots written by an unknown format version.
	ErrVersion = errors.New("snapshot: unsupported version")
)

// ColumnSchema describes one column in the header.
type ColumnSchema struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Width    int    `json:"width"`
	Default  string `json:"default,omitempty"`
	Checksum uint64 `json:"xxh64"`
}

// Header is the first line of a snapshot.
type Header struct {
	Version  int            `json:"version"`
	RunID    string         `json:"run_id"`
	Tick     int64          `json:"tick"`
	Capacity int            `json:"capacity"`
	Count    int            `json:"count"`
	Columns  []ColumnSchema `json:"columns"`
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string { return uuid.NewString() }

// Write snapshots f at tick. An empty runID is replaced by NewRunID.
func Write(w io.Writer, f *frame.Frame, runID string, tick int64) (Header, error) {
	if runID == "" {
		runID = NewRunID()
	}
	h := Header{Version: Version, RunID: runID, Tick: tick, Capacity: f.Capacity(), Count: f.Count()}
	for _, name := range f.Columns() {
		c, _ := f.Column(name)
		d := xxhash.New()
		if err := binary.Write(d, binary.LittleEndian, c.Data()); err != nil {
			return h, fmt.Errorf("snapshot: hash column %q: %w", name, err)
		}
		h.Columns = append(h.Columns, ColumnSchema{
			Name:     name,
			Kind:     c.Kind().String(),
			Width:    c.Width(),
			Default:  frame.FormatDefault(c.Default()),
			Checksum: d.Sum64(),
		})
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return h, err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(h)
	if err != nil {
		enc.Close()
		return h, fmt.Errorf("snapshot: encode header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return h, err
	}
	for _, name := range f.Columns() {
		c, _ := f.Column(name)
		if err := binary.Write(bw, binary.LittleEndian, c.Data()); err != nil {
			enc.Close()
			return h, fmt.Errorf("snapshot: write column %q: %w", name, err)
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return h, err
	}
	return h, enc.Close()
}

// Read restores a frame written by Write. opts configure the new frame.
func Read(r io.Reader, opts ...frame.Option) (*frame.Frame, Header, error) {
	var h Header
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, h, err
	}
	defer dec.Close()
	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, h, fmt.Errorf("snapshot: read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, h, fmt.Errorf("snapshot: decode header: %w", err)
	}
	if h.Version != Version {
		return nil, h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}

	f, err := frame.New(h.Capacity, opts...)
	if err != nil {
		return nil, h, err
	}
	for _, cs := range h.Columns {
		kind, err := frame.ParseKind(cs.Kind)
		if err != nil {
			return nil, h, err
		}
		def, err := frame.ParseDefault(kind, cs.Default)
		if err != nil {
			return nil, h, fmt.Errorf("snapshot: column %q: %w", cs.Name, err)
		}
		if err := f.AddKind(cs.Name, kind, cs.Width, def); err != nil {
			return nil, h, err
		}
		c, _ := f.Column(cs.Name)
		d := xxhash.New()
		if err := binary.Read(io.TeeReader(br, d), binary.LittleEndian, c.Data()); err != nil {
			return nil, h, fmt.Errorf("snapshot: read column %q: %w", cs.Name, err)
		}
		if d.Sum64() != cs.Checksum {
			return nil, h, fmt.Errorf("%w: %q", ErrChecksum, cs.Name)
		}
	}
	if err := f.SetCount(h.Count); err != nil {
		return nil, h, err
	}
	return f, h, nil
}

// Save writes a snapshot file, creating parent directories as needed.
func Save(path string, f *frame.Frame, runID string, tick int64) (Header, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Header{}, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Header{}, err
	}
	h, err := Write(file, f, runID, tick)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return h, err
}

// Load reads a snapshot file.
func Load(path string, opts ...frame.Option) (*frame.Frame, Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer file.Close()
	return Read(file, opts...)
}
