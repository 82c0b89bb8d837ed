package fmtconv

import (
	"fmt"
	"sync"
)

// KernelInfo describes a registered kernel.
type KernelInfo struct {
	Name      string  // Kernel name, e.g. "conv_s16_to_f32_avx2".
	ISA       string  // Instruction set, "c" for the scalar reference kernel.
	Lanes     int     // Samples per channel processed per vector step, 1 for scalar kernels.
	Align     int     // Required block alignment in bytes.
	Flags     CPUFlag // Capabilities the kernel needs.
	Available bool    // Whether the engine may select the kernel.
}

// String returns the kernel name.
func (k KernelInfo) String() string {
	return k.Name
}

// Engine resolves converters restricted to a set of CPU capabilities.
// An Engine is immutable and safe for concurrent use.
type Engine struct {
	flags CPUFlag
	reg   *registry
}

// NewEngine returns an Engine that only selects kernels whose capabilities are in flags.
// CPU_FLAG_NONE restricts the engine to the scalar kernels.
func NewEngine(flags CPUFlag) *Engine {
	return &Engine{
		flags: flags,
		reg:   defaultRegistry,
	}
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(CPUFlags())
})

// DefaultEngine returns the Engine for the capabilities of the running processor.
func DefaultEngine() *Engine {
	return defaultEngine()
}

// Resolve returns a Converter for src and dst using the default engine.
func Resolve(src, dst Format, channels uint32) (*Converter, error) {
	return DefaultEngine().Resolve(src, dst, channels)
}

// CPUFlags returns the capabilities the engine was created with.
func (e *Engine) CPUFlags() CPUFlag {
	return e.flags
}

// Resolve validates the formats and returns a Converter for the pair.
// The channel count must match both formats. ErrUnsupported is returned when no kernel exists for the sample formats.
func (e *Engine) Resolve(src, dst Format, channels uint32) (*Converter, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("source format: %w", err)
	}

	if err := dst.Validate(); err != nil {
		return nil, fmt.Errorf("destination format: %w", err)
	}

	if channels != src.Channels || channels != dst.Channels {
		return nil, fmt.Errorf("%w: %d channels requested, source has %d, destination has %d",
			ErrInvalidFormat, channels, src.Channels, dst.Channels)
	}

	list := e.reg.lookup(src.SampleFormat, dst.SampleFormat)
	if list == nil {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupported, src.SampleFormat, dst.SampleFormat)
	}

	c := &Converter{
		src:      src,
		dst:      dst,
		channels: int(channels),
		scale:    pairScale(src.SampleFormat, dst.SampleFormat),
	}

	for _, k := range list {
		if e.flags.Has(k.flags) {
			c.kernels = append(c.kernels, k)
		}
	}

	return c, nil
}

// Kernels lists every registered kernel of a pair, best first.
// Kernels the engine cannot run are reported with Available set to false.
func (e *Engine) Kernels(src, dst SampleFormat) []KernelInfo {
	list := e.reg.lookup(src, dst)

	infos := make([]KernelInfo, 0, len(list))
	for _, k := range list {
		infos = append(infos, k.info(e.flags))
	}

	return infos
}

// pairScale returns the integer scale of a pair with one float and one integer side, 1 otherwise.
func pairScale(src, dst SampleFormat) float32 {
	scale := func(f SampleFormat) float32 {
		switch f {
		case FORMAT_U8:
			return u8Scale
		case FORMAT_S16, FORMAT_S16S:
			return s16Scale
		case FORMAT_S24, FORMAT_S24_32:
			return s24Scale
		case FORMAT_S32:
			return s32Scale
		default:
			return 1
		}
	}

	switch {
	case src == FORMAT_F32 || src == FORMAT_F64:
		return scale(dst)
	case dst == FORMAT_F32 || dst == FORMAT_F64:
		return scale(src)
	default:
		return 1
	}
}
