// Package pmtiles reads and writes single-directory PMTiles v3 archives.
//
// It covers the part of github.com/protomaps/go-pmtiles/pmtiles the tile
// export needs, without that package's MBTiles (SQLite) and cloud bucket
// dependencies.
//
// Spec: https://github.com/protomaps/PMTiles/blob/main/spec/v3/spec.md
package pmtiles

import (
	"encoding/binary"
	"errors"
)

// Compression is the compression applied to tiles and internal sections.
type Compression uint8

const (
	UnknownCompression Compression = 0
	NoCompression      Compression = 1
	Gzip               Compression = 2
	Brotli             Compression = 3
	Zstd               Compression = 4
)

// TileType is the format of tile contents.
type TileType uint8

const (
	UnknownTileType TileType = 0
	Mvt             TileType = 1
	Png             TileType = 2
	Jpeg            TileType = 3
	Webp            TileType = 4
	Avif            TileType = 5
)

// HeaderV3LenBytes is the fixed header size.
const HeaderV3LenBytes = 127

const magic = "PMTiles"

var (
	ErrShortHeader = errors.New("pmtiles: buffer too small for header")
	ErrBadMagic    = errors.New("pmtiles: magic number not detected")
)

// HeaderV3 is the archive header.
type HeaderV3 struct {
	SpecVersion         uint8
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

// header byte layout: 7 magic, 1 version, 11 uint64s, 6 bytes of flags and
// zooms, 4 int32 bounds, center zoom, 2 int32 center.
const (
	offUint64s  = 8
	offFlags    = offUint64s + 11*8
	offBounds   = offFlags + 6
	offCenterZ  = offBounds + 4*4
	offCenterLL = offCenterZ + 1
)

func (h *HeaderV3) uint64s() []*uint64 {
	return []*uint64{
		&h.RootOffset, &h.RootLength,
		&h.MetadataOffset, &h.MetadataLength,
		&h.LeafDirectoryOffset, &h.LeafDirectoryLength,
		&h.TileDataOffset, &h.TileDataLength,
		&h.AddressedTilesCount, &h.TileEntriesCount, &h.TileContentsCount,
	}
}

// SerializeHeader encodes h. The spec version is always written as 3.
func SerializeHeader(h HeaderV3) []byte {
	b := make([]byte, HeaderV3LenBytes)
	copy(b, magic)
	b[7] = 3

	for i, v := range h.uint64s() {
		binary.LittleEndian.PutUint64(b[offUint64s+i*8:], *v)
	}
	if h.Clustered {
		b[offFlags] = 1
	}
	b[offFlags+1] = uint8(h.InternalCompression)
	b[offFlags+2] = uint8(h.TileCompression)
	b[offFlags+3] = uint8(h.TileType)
	b[offFlags+4] = h.MinZoom
	b[offFlags+5] = h.MaxZoom

	for i, v := range []int32{h.MinLonE7, h.MinLatE7, h.MaxLonE7, h.MaxLatE7} {
		binary.LittleEndian.PutUint32(b[offBounds+i*4:], uint32(v))
	}
	b[offCenterZ] = h.CenterZoom
	binary.LittleEndian.PutUint32(b[offCenterLL:], uint32(h.CenterLonE7))
	binary.LittleEndian.PutUint32(b[offCenterLL+4:], uint32(h.CenterLatE7))
	return b
}

// DeserializeHeader decodes the first HeaderV3LenBytes of d.
func DeserializeHeader(d []byte) (HeaderV3, error) {
	var h HeaderV3
	if len(d) < HeaderV3LenBytes {
		return h, ErrShortHeader
	}
	if string(d[:7]) != magic {
		return h, ErrBadMagic
	}

	h.SpecVersion = d[7]
	for i, v := range h.uint64s() {
		*v = binary.LittleEndian.Uint64(d[offUint64s+i*8:])
	}
	h.Clustered = d[offFlags] == 1
	h.InternalCompression = Compression(d[offFlags+1])
	h.TileCompression = Compression(d[offFlags+2])
	h.TileType = TileType(d[offFlags+3])
	h.MinZoom = d[offFlags+4]
	h.MaxZoom = d[offFlags+5]

	bounds := []*int32{&h.MinLonE7, &h.MinLatE7, &h.MaxLonE7, &h.MaxLatE7}
	for i, v := range bounds {
		*v = int32(binary.LittleEndian.Uint32(d[offBounds+i*4:]))
	}
	h.CenterZoom = d[offCenterZ]
	h.CenterLonE7 = int32(binary.LittleEndian.Uint32(d[offCenterLL:]))
	h.CenterLatE7 = int32(binary.LittleEndian.Uint32(d[offCenterLL+4:]))
	return h, nil
}

// ZxyToID converts tile coordinates to a Hilbert tile id.
func ZxyToID(z uint8, x uint32, y uint32) uint64 {
	var acc uint64 = (1<<(z*2) - 1) / 3
	n := uint32(z - 1)
	for s := uint32(1 << n); s > 0; s >>= 1 {
		rx := s & x
		ry := s & y
		acc += uint64((3*rx)^ry) << n
		x, y = rotate(s, x, y, rx, ry)
		n--
	}
	return acc
}

func rotate(n, x, y, rx, ry uint32) (uint32, uint32) {
	if ry == 0 {
		if rx != 0 {
			x = n - 1 - x
			y = n - 1 - y
		}
		return y, x
	}
	return x, y
}
