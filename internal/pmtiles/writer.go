package pmtiles

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
)

// Tile is one encoded tile at z/x/y.
type Tile struct {
	Z    uint8
	X, Y uint32
	Data []byte
}

// Archive describes what WriteArchive should record in the header and
// metadata. Bounds are in degrees.
type Archive struct {
	Name            string
	TileType        TileType
	TileCompression Compression
	MinZoom         uint8
	MaxZoom         uint8
	MinLon, MinLat  float64
	MaxLon, MaxLat  float64
	Metadata        map[string]any
}

// WriteArchive writes a clustered archive with a single root directory:
// header, root directory, metadata, tile data. Tiles with identical bytes
// are stored once.
func WriteArchive(w io.Writer, tiles []Tile, a Archive) (HeaderV3, error) {
	if len(tiles) == 0 {
		return HeaderV3{}, fmt.Errorf("pmtiles: no tiles to write")
	}

	sorted := make([]Tile, len(tiles))
	copy(sorted, tiles)
	ids := make([]uint64, len(sorted))
	for i, t := range sorted {
		ids[i] = ZxyToID(t.Z, t.X, t.Y)
	}
	sort.Sort(byID{sorted, ids})

	var (
		entries []EntryV3
		data    bytes.Buffer
		seen    = make(map[string]EntryV3)
	)
	for i, t := range sorted {
		if prev, ok := seen[string(t.Data)]; ok {
			last := &entries[len(entries)-1]
			if last.Offset == prev.Offset && last.TileID+uint64(last.RunLength) == ids[i] {
				last.RunLength++
				continue
			}
			entries = append(entries, EntryV3{TileID: ids[i], Offset: prev.Offset, Length: prev.Length, RunLength: 1})
			continue
		}
		e := EntryV3{TileID: ids[i], Offset: uint64(data.Len()), Length: uint32(len(t.Data)), RunLength: 1}
		data.Write(t.Data)
		seen[string(t.Data)] = e
		entries = append(entries, e)
	}

	meta := map[string]any{
		"name":    a.Name,
		"minzoom": a.MinZoom,
		"maxzoom": a.MaxZoom,
	}
	if a.TileType == Mvt {
		meta["format"] = "pbf"
	}
	for k, v := range a.Metadata {
		meta[k] = v
	}
	metaBytes, err := SerializeMetadata(meta, Gzip)
	if err != nil {
		return HeaderV3{}, fmt.Errorf("pmtiles: metadata: %w", err)
	}
	root, err := SerializeEntries(entries, Gzip)
	if err != nil {
		return HeaderV3{}, fmt.Errorf("pmtiles: root directory: %w", err)
	}

	h := HeaderV3{
		SpecVersion:         3,
		RootOffset:          HeaderV3LenBytes,
		RootLength:          uint64(len(root)),
		MetadataOffset:      HeaderV3LenBytes + uint64(len(root)),
		MetadataLength:      uint64(len(metaBytes)),
		TileDataOffset:      HeaderV3LenBytes + uint64(len(root)) + uint64(len(metaBytes)),
		TileDataLength:      uint64(data.Len()),
		AddressedTilesCount: uint64(len(sorted)),
		TileEntriesCount:    uint64(len(entries)),
		TileContentsCount:   uint64(len(seen)),
		Clustered:           true,
		InternalCompression: Gzip,
		TileCompression:     a.TileCompression,
		TileType:            a.TileType,
		MinZoom:             a.MinZoom,
		MaxZoom:             a.MaxZoom,
		MinLonE7:            e7(a.MinLon),
		MinLatE7:            e7(a.MinLat),
		MaxLonE7:            e7(a.MaxLon),
		MaxLatE7:            e7(a.MaxLat),
		CenterZoom:          a.MinZoom,
		CenterLonE7:         e7((a.MinLon + a.MaxLon) / 2),
		CenterLatE7:         e7((a.MinLat + a.MaxLat) / 2),
	}

	for _, part := range [][]byte{SerializeHeader(h), root, metaBytes, data.Bytes()} {
		if _, err := w.Write(part); err != nil {
			return HeaderV3{}, err
		}
	}
	return h, nil
}

// ReadArchive returns the header, root directory and metadata of an archive.
func ReadArchive(r io.ReaderAt) (HeaderV3, []EntryV3, map[string]any, error) {
	buf := make([]byte, HeaderV3LenBytes)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return HeaderV3{}, nil, nil, fmt.Errorf("pmtiles: read header: %w", err)
	}
	h, err := DeserializeHeader(buf)
	if err != nil {
		return h, nil, nil, err
	}

	section := func(off, n uint64) ([]byte, error) {
		b := make([]byte, n)
		_, err := r.ReadAt(b, int64(off))
		return b, err
	}
	rootBytes, err := section(h.RootOffset, h.RootLength)
	if err != nil {
		return h, nil, nil, fmt.Errorf("pmtiles: read root: %w", err)
	}
	entries, err := DeserializeEntries(rootBytes, h.InternalCompression)
	if err != nil {
		return h, nil, nil, err
	}
	metaBytes, err := section(h.MetadataOffset, h.MetadataLength)
	if err != nil {
		return h, nil, nil, fmt.Errorf("pmtiles: read metadata: %w", err)
	}
	meta, err := DeserializeMetadata(metaBytes, h.InternalCompression)
	if err != nil {
		return h, nil, nil, err
	}
	return h, entries, meta, nil
}

func e7(deg float64) int32 {
	return int32(math.Round(deg * 1e7))
}

type byID struct {
	tiles []Tile
	ids   []uint64
}

func (b byID) Len() int           { return len(b.tiles) }
func (b byID) Less(i, j int) bool { return b.ids[i] < b.ids[j] }
func (b byID) Swap(i, j int) {
	b.tiles[i], b.tiles[j] = b.tiles[j], b.tiles[i]
	b.ids[i], b.ids[j] = b.ids[j], b.ids[i]
}
