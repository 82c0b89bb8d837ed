package fmtconv

import "unsafe"

// Chunk describes the valid region of a Data block.
type Chunk struct {
	Offset uint32 // Offset of valid data, taken modulo the MaxSize of the Data.
	Size   uint32 // Size of valid data, clamped to the MaxSize of the Data.
	Stride int32  // Stride of valid data.
}

// Data is one memory block of a Buffer.
type Data struct {
	Type      DataType
	Flags     DataFlag
	Fd        int    // Optional fd for DATA_MEMFD and DATA_DMABUF, -1 when unused.
	MapOffset uint32 // Offset to map the fd at.
	MaxSize   uint32 // Capacity of the block in bytes.
	Data      []byte // Memory of the block, set for DATA_MEMPTR or once an fd is mapped.
	Chunk     *Chunk

	mapping []byte // Page aligned mmap region backing Data, if any.
}

// Meta is a typed annotation attached to a Buffer.
type Meta struct {
	Type MetaType
	Size uint32
	Data []byte
}

// Buffer is the container exchanged between producers and consumers.
// Interleaved buffers carry one Data block, planar buffers one per channel.
type Buffer struct {
	Metas []Meta
	Datas []Data
}

// MetaHeader is the payload of a META_HEADER Meta.
type MetaHeader struct {
	Flags     uint32 // META_HEADER_FLAG_* flags.
	Offset    uint32 // Offset in the current cycle.
	Pts       int64  // Presentation timestamp in nanoseconds.
	DtsOffset int64  // Decoding timestamp as a difference with pts.
	Seq       uint64 // Sequence number, increments with a media specific frequency.
}

// FindMeta returns the first Meta of the given type, or nil if there is none.
func (b *Buffer) FindMeta(t MetaType) *Meta {
	for i := range b.Metas {
		if b.Metas[i].Type == t {
			return &b.Metas[i]
		}
	}

	return nil
}

// FindMetaData returns the data of the first Meta of the given type when it is at least size bytes large.
func (b *Buffer) FindMetaData(t MetaType, size uint32) []byte {
	if m := b.FindMeta(t); m != nil && m.Size >= size {
		return m.Data
	}

	return nil
}

// Header returns the MetaHeader of the buffer, or nil if the buffer has none.
func (b *Buffer) Header() *MetaHeader {
	data := b.FindMetaData(META_HEADER, uint32(unsafe.Sizeof(MetaHeader{})))
	if len(data) < int(unsafe.Sizeof(MetaHeader{})) || !isAligned(data, int(unsafe.Alignof(MetaHeader{}))) {
		return nil
	}

	return (*MetaHeader)(unsafe.Pointer(unsafe.SliceData(data)))
}

// IsCorrupted reports whether the block is flagged as corrupted.
func (d *Data) IsCorrupted() bool {
	return d.Flags&DATA_FLAG_CORRUPTED != 0
}

// Region returns the valid bytes of the block as described by its Chunk.
// The offset is taken modulo MaxSize and the size is clamped to the end of the block.
func (d *Data) Region() []byte {
	if d.Chunk == nil || d.MaxSize == 0 {
		return nil
	}

	maxSize := min(d.MaxSize, uint32(len(d.Data)))
	if maxSize == 0 {
		return nil
	}

	offset := d.Chunk.Offset % d.MaxSize
	if offset >= maxSize {
		return nil
	}

	size := min(d.Chunk.Size, maxSize-offset)

	return d.Data[offset : offset+size]
}

// NewMeta returns a Meta of the given type backed by size zeroed bytes.
func NewMeta(t MetaType, size uint32) Meta {
	return Meta{
		Type: t,
		Size: size,
		Data: alignedBytes(int(size), 8),
	}
}

// NewHeaderMeta returns a META_HEADER Meta sized for a MetaHeader.
func NewHeaderMeta() Meta {
	return NewMeta(META_HEADER, uint32(unsafe.Sizeof(MetaHeader{})))
}

// isAligned reports whether the first byte of b sits on an align byte boundary.
// Empty slices are always aligned.
func isAligned(b []byte, align int) bool {
	if len(b) == 0 || align <= 1 {
		return true
	}

	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))&uintptr(align-1) == 0
}

// alignedBytes allocates size bytes whose first byte sits on an align byte boundary.
func alignedBytes(size, align int) []byte {
	if align <= 1 {
		return make([]byte, size)
	}

	raw := make([]byte, size+align)
	skip := 0
	if rem := int(uintptr(unsafe.Pointer(unsafe.SliceData(raw))) & uintptr(align-1)); rem != 0 {
		skip = align - rem
	}

	return raw[skip : skip+size : skip+size]
}
