package fmtconv

import (
	"fmt"
	"strings"
)

// Format describes one side of a conversion.
// Formats are immutable values, two formats are equal when all fields are equal.
type Format struct {
	SampleFormat SampleFormat
	Channels     uint32
	Layout       Layout
}

// Validate checks that the format can be used for a conversion.
func (f Format) Validate() error {
	if _, ok := FormatNames[f.SampleFormat]; !ok {
		return fmt.Errorf("%w: unknown sample format %d", ErrInvalidFormat, f.SampleFormat)
	}

	if f.Channels == 0 || f.Channels > MaxChannels {
		return fmt.Errorf("%w: channel count %d out of range 1..%d", ErrInvalidFormat, f.Channels, MaxChannels)
	}

	if f.Layout != LAYOUT_INTERLEAVED && f.Layout != LAYOUT_PLANAR {
		return fmt.Errorf("%w: unknown layout %d", ErrInvalidFormat, f.Layout)
	}

	return nil
}

// Planes returns the number of blocks a buffer of this format carries.
func (f Format) Planes() int {
	if f.Layout == LAYOUT_PLANAR {
		return int(f.Channels)
	}

	return 1
}

// SampleSize returns the size of one sample in bytes.
func (f Format) SampleSize() int {
	return int(FormatToBits(f.SampleFormat) / 8)
}

// Stride returns the distance in bytes between two consecutive samples of one channel.
func (f Format) Stride() int {
	if f.Layout == LAYOUT_PLANAR {
		return f.SampleSize()
	}

	return f.SampleSize() * int(f.Channels)
}

// FrameSize returns the size in bytes of one sample for every channel.
func (f Format) FrameSize() int {
	return f.SampleSize() * int(f.Channels)
}

// String returns a human-readable representation of the format, e.g. "S16 2ch interleaved".
func (f Format) String() string {
	name, ok := FormatNames[f.SampleFormat]
	if !ok {
		name = fmt.Sprintf("format(%d)", f.SampleFormat)
	}

	layout, ok := LayoutNames[f.Layout]
	if !ok {
		layout = fmt.Sprintf("layout(%d)", f.Layout)
	}

	return fmt.Sprintf("%s %dch %s", name, f.Channels, layout)
}

// String returns the name of the sample format.
func (s SampleFormat) String() string {
	if name, ok := FormatNames[s]; ok {
		return name
	}

	return fmt.Sprintf("SampleFormat(%d)", int32(s))
}

// FormatToBits returns the number of bits a sample occupies in memory.
// 24-bit samples in a 32-bit container return 32, packed 24-bit samples return 24.
func FormatToBits(f SampleFormat) uint32 {
	switch f {
	case FORMAT_F64:
		return 64
	case FORMAT_S24_32, FORMAT_S32, FORMAT_F32:
		return 32
	case FORMAT_S24:
		return 24
	case FORMAT_S16, FORMAT_S16S:
		return 16
	case FORMAT_U8:
		return 8
	default:
		return 0
	}
}

// ParseSampleFormat parses a case-insensitive sample format name such as "s16" or "F32".
func ParseSampleFormat(name string) (SampleFormat, error) {
	for f, n := range FormatNames {
		if strings.EqualFold(n, name) {
			return f, nil
		}
	}

	return FORMAT_INVALID, fmt.Errorf("unknown sample format '%s'", name)
}

// ParseLayout parses a layout name, "interleaved" or "planar".
func ParseLayout(name string) (Layout, error) {
	for l, n := range LayoutNames {
		if strings.EqualFold(n, name) {
			return l, nil
		}
	}

	return LAYOUT_INTERLEAVED, fmt.Errorf("unknown layout '%s'", name)
}
