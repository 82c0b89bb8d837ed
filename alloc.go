package fmtconv

import (
	"errors"
	"fmt"
)

// BufferConfig defines the layout of a Buffer allocated with AllocBuffer.
type BufferConfig struct {
	// Format of the samples the buffer holds.
	Format Format
	// Samples is the capacity of every block in samples per channel.
	Samples uint32
	// Align is the alignment of every block in bytes, a power of two. Zero selects 64.
	Align uint32
	// Type is DATA_MEMPTR or DATA_MEMFD. DATA_INVALID selects DATA_MEMPTR.
	Type DataType
	// Header attaches a META_HEADER meta.
	Header bool
}

// DefaultBufferConfig returns a config for 1024 samples of stereo planar F32.
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{
		Format: Format{
			SampleFormat: FORMAT_F32,
			Channels:     2,
			Layout:       LAYOUT_PLANAR,
		},
		Samples: 1024,
		Align:   64,
		Type:    DATA_MEMPTR,
		Header:  true,
	}
}

// AllocBuffer allocates a Buffer with one block per plane of the format.
// Every block has an empty chunk. DATA_MEMFD blocks are mapped, release them with Free.
// If config is nil, DefaultBufferConfig is used.
func AllocBuffer(config *BufferConfig) (*Buffer, error) {
	cfg := DefaultBufferConfig()
	if config != nil {
		cfg = *config
	}

	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}

	if cfg.Align == 0 {
		cfg.Align = 64
	}
	if cfg.Align&(cfg.Align-1) != 0 {
		return nil, fmt.Errorf("alignment %d is not a power of two", cfg.Align)
	}

	if cfg.Type == DATA_INVALID {
		cfg.Type = DATA_MEMPTR
	}

	size := int(cfg.Samples) * cfg.Format.Stride()
	planes := cfg.Format.Planes()

	b := &Buffer{Datas: make([]Data, planes)}
	if cfg.Header {
		b.Metas = []Meta{NewHeaderMeta()}
	}

	for i := range b.Datas {
		d := &b.Datas[i]
		d.Chunk = &Chunk{Stride: int32(cfg.Format.Stride())}
		d.MaxSize = uint32(size)

		switch cfg.Type {
		case DATA_MEMPTR:
			d.Type = DATA_MEMPTR
			d.Fd = -1
			d.Data = alignedBytes(size, int(cfg.Align))
		case DATA_MEMFD:
			fd, err := memfdCreate(fmt.Sprintf("fmtconv-%d", i), max(size, 1))
			if err != nil {
				_ = b.Free()

				return nil, err
			}

			d.Type = DATA_MEMFD
			d.Fd = fd
			if size > 0 {
				if err = d.Map(); err != nil {
					_ = b.Free()

					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("cannot allocate data of type %s", DataTypeNames[cfg.Type])
		}
	}

	return b, nil
}

// Free unmaps and closes the fd backed blocks of the buffer. Memory blocks are left to the garbage collector.
func (b *Buffer) Free() error {
	var errs []error

	for i := range b.Datas {
		d := &b.Datas[i]
		if d.Type != DATA_MEMFD && d.Type != DATA_DMABUF {
			continue
		}

		if err := d.Unmap(); err != nil {
			errs = append(errs, err)
		}

		if d.Fd >= 0 {
			if err := closeFd(d.Fd); err != nil {
				errs = append(errs, fmt.Errorf("close fd %d failed: %w", d.Fd, err))
			}
			d.Fd = -1
		}
	}

	return errors.Join(errs...)
}
