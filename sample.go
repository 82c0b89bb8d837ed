package fmtconv

import (
	"math"
	"math/bits"

	"golang.org/x/sys/cpu"
)

// Scale factors and clamp limits of the integer encodings.
const (
	u8Offset = 128
	u8Scale  = 128.0
	u8Min    = -128.0
	u8Max    = 127.0

	s16Scale = 32768.0
	s16Min   = -32768.0
	s16Max   = 32767.0

	s24Scale = 8388608.0
	s24Min   = -8388608.0
	s24Max   = 8388607.0

	s32Scale = 2147483648.0
	s32Min   = -2147483648.0
	s32Max   = 2147483520.0 // Largest float32 below 2^31.
)

// int24 is a packed signed 24-bit sample in native byte order.
type int24 [3]byte

// sample is the set of in-memory sample representations the kernels operate on.
// FORMAT_S16S samples are carried as uint16 holding the swapped bytes.
type sample interface {
	uint8 | int16 | uint16 | int24 | int32 | float32 | float64
}

// clampRound saturates v to [lo, hi] and rounds to the nearest integer, ties to even.
// NaN converts to 0.
func clampRound(v, lo, hi float32) int32 {
	if v != v {
		return 0
	}

	v = min(max(v, lo), hi)

	return int32(math.RoundToEven(float64(v)))
}

func s24ToS32(v int24) int32 {
	if cpu.IsBigEndian {
		return int32(int8(v[0]))<<16 | int32(v[1])<<8 | int32(v[2])
	}

	return int32(int8(v[2]))<<16 | int32(v[1])<<8 | int32(v[0])
}

func s32ToS24(v int32) int24 {
	if cpu.IsBigEndian {
		return int24{byte(v >> 16), byte(v >> 8), byte(v)}
	}

	return int24{byte(v), byte(v >> 8), byte(v >> 16)}
}

func u8ToF32(v uint8) float32 {
	return float32(int32(v)-u8Offset) * (1.0 / u8Scale)
}

func f32ToU8(v float32) uint8 {
	return uint8(clampRound(v*u8Scale, u8Min, u8Max) + u8Offset)
}

func s16ToF32(v int16) float32 {
	return float32(v) * (1.0 / s16Scale)
}

func f32ToS16(v float32) int16 {
	return int16(clampRound(v*s16Scale, s16Min, s16Max))
}

func s16sToF32(v uint16) float32 {
	return s16ToF32(int16(bits.ReverseBytes16(v)))
}

func f32ToS16s(v float32) uint16 {
	return bits.ReverseBytes16(uint16(f32ToS16(v)))
}

func s24ToF32(v int24) float32 {
	return float32(s24ToS32(v)) * (1.0 / s24Scale)
}

func f32ToS24(v float32) int24 {
	return s32ToS24(clampRound(v*s24Scale, s24Min, s24Max))
}

// s24_32ToF32 sign extends the low 24 bits of the container, the top byte is ignored.
func s24_32ToF32(v int32) float32 {
	return float32((v<<8)>>8) * (1.0 / s24Scale)
}

func f32ToS24_32(v float32) int32 {
	return clampRound(v*s24Scale, s24Min, s24Max)
}

func s32ToF32(v int32) float32 {
	return float32(v) * (1.0 / s32Scale)
}

func f32ToS32(v float32) int32 {
	return clampRound(v*s32Scale, s32Min, s32Max)
}

// laneOp converts a single sample. Implementations are zero-size types so the kernels can be instantiated per pair.
type laneOp[S, D sample] interface {
	apply(v S) D
}

type u8ToF32Op struct{}

func (u8ToF32Op) apply(v uint8) float32 { return u8ToF32(v) }

type f32ToU8Op struct{}

func (f32ToU8Op) apply(v float32) uint8 { return f32ToU8(v) }

type s16ToF32Op struct{}

func (s16ToF32Op) apply(v int16) float32 { return s16ToF32(v) }

type f32ToS16Op struct{}

func (f32ToS16Op) apply(v float32) int16 { return f32ToS16(v) }

type s16sToF32Op struct{}

func (s16sToF32Op) apply(v uint16) float32 { return s16sToF32(v) }

type f32ToS16sOp struct{}

func (f32ToS16sOp) apply(v float32) uint16 { return f32ToS16s(v) }

type s24ToF32Op struct{}

func (s24ToF32Op) apply(v int24) float32 { return s24ToF32(v) }

type f32ToS24Op struct{}

func (f32ToS24Op) apply(v float32) int24 { return f32ToS24(v) }

type s24_32ToF32Op struct{}

func (s24_32ToF32Op) apply(v int32) float32 { return s24_32ToF32(v) }

type f32ToS24_32Op struct{}

func (f32ToS24_32Op) apply(v float32) int32 { return f32ToS24_32(v) }

type s32ToF32Op struct{}

func (s32ToF32Op) apply(v int32) float32 { return s32ToF32(v) }

type f32ToS32Op struct{}

func (f32ToS32Op) apply(v float32) int32 { return f32ToS32(v) }

type f64ToF32Op struct{}

func (f64ToF32Op) apply(v float64) float32 { return float32(v) }

type f32ToF64Op struct{}

func (f32ToF64Op) apply(v float32) float64 { return float64(v) }

type s16ToS16sOp struct{}

func (s16ToS16sOp) apply(v int16) uint16 { return bits.ReverseBytes16(uint16(v)) }

type s16sToS16Op struct{}

func (s16sToS16Op) apply(v uint16) int16 { return int16(bits.ReverseBytes16(v)) }

// copyOp moves a sample unchanged, used for interleave, deinterleave and plain copies.
type copyOp[T sample] struct{}

func (copyOp[T]) apply(v T) T { return v }
