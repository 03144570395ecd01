package pmtiles

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// EntryV3 is one directory entry.
type EntryV3 struct {
	TileID    uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case NoCompression:
		return nopCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	default:
		return nil, fmt.Errorf("pmtiles: compression %d not supported", c)
	}
}

func decompressor(r io.Reader, c Compression) (io.Reader, error) {
	switch c {
	case NoCompression:
		return r, nil
	case Gzip:
		return gzip.NewReader(r)
	default:
		return nil, fmt.Errorf("pmtiles: compression %d not supported", c)
	}
}

// SerializeMetadata encodes the metadata JSON object.
func SerializeMetadata(metadata map[string]any, c Compression) ([]byte, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	w, err := compressor(&b, c)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// DeserializeMetadata decodes a metadata section.
func DeserializeMetadata(d []byte, c Compression) (map[string]any, error) {
	r, err := decompressor(bytes.NewReader(d), c)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("pmtiles: metadata: %w", err)
	}
	return out, nil
}

// SerializeEntries encodes a directory: count, delta ids, run lengths,
// lengths, then offsets (0 meaning contiguous with the previous entry).
func SerializeEntries(entries []EntryV3, c Compression) ([]byte, error) {
	var b bytes.Buffer
	w, err := compressor(&b, c)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(w)
	tmp := make([]byte, binary.MaxVarintLen64)
	put := func(v uint64) {
		n := binary.PutUvarint(tmp, v)
		bw.Write(tmp[:n])
	}

	put(uint64(len(entries)))
	var last uint64
	for _, e := range entries {
		put(e.TileID - last)
		last = e.TileID
	}
	for _, e := range entries {
		put(uint64(e.RunLength))
	}
	for _, e := range entries {
		put(uint64(e.Length))
	}
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			put(0)
		} else {
			put(e.Offset + 1)
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// DeserializeEntries decodes a directory written by SerializeEntries.
func DeserializeEntries(d []byte, c Compression) ([]EntryV3, error) {
	r, err := decompressor(bytes.NewReader(d), c)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(r)
	get := func() (uint64, error) { return binary.ReadUvarint(br) }

	n, err := get()
	if err != nil {
		return nil, fmt.Errorf("pmtiles: directory count: %w", err)
	}
	entries := make([]EntryV3, n)

	var last uint64
	for i := range entries {
		v, err := get()
		if err != nil {
			return nil, err
		}
		last += v
		entries[i].TileID = last
	}
	for i := range entries {
		v, err := get()
		if err != nil {
			return nil, err
		}
		entries[i].RunLength = uint32(v)
	}
	for i := range entries {
		v, err := get()
		if err != nil {
			return nil, err
		}
		entries[i].Length = uint32(v)
	}
	for i := range entries {
		v, err := get()
		if err != nil {
			return nil, err
		}
		if v == 0 && i > 0 {
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		} else {
			entries[i].Offset = v - 1
		}
	}
	return entries, nil
}
