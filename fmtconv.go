// Package fmtconv provides a real-time safe PCM sample format conversion engine, modeled after the PipeWire SPA audioconvert format ops.
package fmtconv

// SampleFormat defines the encoding of a single PCM sample.
// All multi-byte formats are in native byte order unless marked as swapped.
type SampleFormat int32

const (
	FORMAT_INVALID SampleFormat = -1
	FORMAT_U8      SampleFormat = 0 // Unsigned 8-bit, 128 is silence.
	FORMAT_S16     SampleFormat = 1 // Signed 16-bit.
	FORMAT_S16S    SampleFormat = 2 // Signed 16-bit, byte-swapped.
	FORMAT_S24     SampleFormat = 3 // Signed 24-bit packed into 3 bytes.
	FORMAT_S24_32  SampleFormat = 4 // Signed 24-bit in the low bits of a 32-bit container.
	FORMAT_S32     SampleFormat = 5 // Signed 32-bit.
	FORMAT_F32     SampleFormat = 6 // 32-bit float in [-1.0, 1.0].
	FORMAT_F64     SampleFormat = 7 // 64-bit float in [-1.0, 1.0].
)

// Layout defines how the channels of a stream are laid out in memory.
type Layout int32

const (
	// LAYOUT_INTERLEAVED stores all channels in one block, cycling channel by channel.
	LAYOUT_INTERLEAVED Layout = 0
	// LAYOUT_PLANAR stores every channel in its own block.
	LAYOUT_PLANAR Layout = 1
)

// MaxChannels is the largest channel count a Format may carry.
const MaxChannels = 64

// DataType defines how the memory of a Data block is accessed.
type DataType uint32

const (
	DATA_INVALID DataType = 0
	// DATA_MEMPTR is process-local memory, the Data slice is set.
	DATA_MEMPTR DataType = 1
	// DATA_MEMFD is a generic fd, mmap to get to the memory.
	DATA_MEMFD DataType = 2
	// DATA_DMABUF is an fd to dmabuf memory.
	DATA_DMABUF DataType = 3
)

// DataFlag defines flags of a Data block.
type DataFlag uint32

const (
	DATA_FLAG_NONE DataFlag = 0
	// DATA_FLAG_CORRUPTED marks data that is corrupted in some way.
	DATA_FLAG_CORRUPTED DataFlag = 1 << 0
)

// MetaType identifies the kind of metadata attached to a Buffer.
type MetaType uint32

const (
	META_INVALID      MetaType = 0
	META_HEADER       MetaType = 1 // MetaHeader.
	META_VIDEO_CROP   MetaType = 2
	META_VIDEO_DAMAGE MetaType = 3
	META_BITMAP       MetaType = 4
	META_CURSOR       MetaType = 5
	META_CONTROL      MetaType = 6
	META_BUSY         MetaType = 7
)

// Flags of MetaHeader.
const (
	META_HEADER_FLAG_DISCONT    = 1 << 0 // Data is not continuous with the previous buffer.
	META_HEADER_FLAG_CORRUPTED  = 1 << 1 // Data might be corrupted.
	META_HEADER_FLAG_MARKER     = 1 << 2 // Media specific marker.
	META_HEADER_FLAG_HEADER     = 1 << 3 // Data contains a codec specific header.
	META_HEADER_FLAG_GAP        = 1 << 4 // Data contains media neutral data.
	META_HEADER_FLAG_DELTA_UNIT = 1 << 5 // Cannot be decoded independently.
)

// FormatNames provides human-readable names for sample formats.
var FormatNames = map[SampleFormat]string{
	FORMAT_U8:     "U8",
	FORMAT_S16:    "S16",
	FORMAT_S16S:   "S16S",
	FORMAT_S24:    "S24",
	FORMAT_S24_32: "S24_32",
	FORMAT_S32:    "S32",
	FORMAT_F32:    "F32",
	FORMAT_F64:    "F64",
}

// LayoutNames provides human-readable names for channel layouts.
var LayoutNames = map[Layout]string{
	LAYOUT_INTERLEAVED: "interleaved",
	LAYOUT_PLANAR:      "planar",
}

// DataTypeNames provides human-readable names for data types.
var DataTypeNames = map[DataType]string{
	DATA_INVALID: "Invalid",
	DATA_MEMPTR:  "MemPtr",
	DATA_MEMFD:   "MemFd",
	DATA_DMABUF:  "DmaBuf",
}
