package fmtconv

import (
	"fmt"
	"slices"
	"strings"
)

// isa describes a vector instruction set a kernel can be registered for.
type isa struct {
	name  string
	flags CPUFlag
	lanes int
	align int
}

// isas is ordered by lane width, widest first.
// Every ISA runs the same lane-blocked Go kernel, only the lane count and alignment differ.
var isas = []isa{
	{name: "avx512", flags: CPU_FLAG_AVX512F, lanes: 16, align: 64},
	{name: "avx2", flags: CPU_FLAG_AVX2, lanes: 8, align: 32},
	{name: "sse2", flags: CPU_FLAG_SSE2, lanes: 4, align: 16},
	{name: "neon", flags: CPU_FLAG_NEON, lanes: 4, align: 16},
}

type pairKey struct {
	src SampleFormat
	dst SampleFormat
}

type pairEntry struct {
	scalar groupFunc
	vector groupFunc
}

func scalarPair[S, D sample, O laneOp[S, D]]() pairEntry {
	return pairEntry{scalar: scalarGroup[S, D, O]}
}

func vectorPair[S, D sample, O laneOp[S, D]]() pairEntry {
	return pairEntry{scalar: scalarGroup[S, D, O], vector: vectorGroup[S, D, O]}
}

// pairs lists every supported conversion. Pairs with a vector path get one kernel per ISA.
var pairs = map[pairKey]pairEntry{
	{FORMAT_U8, FORMAT_F32}:     scalarPair[uint8, float32, u8ToF32Op](),
	{FORMAT_F32, FORMAT_U8}:     scalarPair[float32, uint8, f32ToU8Op](),
	{FORMAT_S16, FORMAT_F32}:    vectorPair[int16, float32, s16ToF32Op](),
	{FORMAT_F32, FORMAT_S16}:    vectorPair[float32, int16, f32ToS16Op](),
	{FORMAT_S16S, FORMAT_F32}:   vectorPair[uint16, float32, s16sToF32Op](),
	{FORMAT_F32, FORMAT_S16S}:   vectorPair[float32, uint16, f32ToS16sOp](),
	{FORMAT_S24, FORMAT_F32}:    vectorPair[int24, float32, s24ToF32Op](),
	{FORMAT_F32, FORMAT_S24}:    vectorPair[float32, int24, f32ToS24Op](),
	{FORMAT_S24_32, FORMAT_F32}: scalarPair[int32, float32, s24_32ToF32Op](),
	{FORMAT_F32, FORMAT_S24_32}: scalarPair[float32, int32, f32ToS24_32Op](),
	{FORMAT_S32, FORMAT_F32}:    vectorPair[int32, float32, s32ToF32Op](),
	{FORMAT_F32, FORMAT_S32}:    vectorPair[float32, int32, f32ToS32Op](),
	{FORMAT_F64, FORMAT_F32}:    scalarPair[float64, float32, f64ToF32Op](),
	{FORMAT_F32, FORMAT_F64}:    scalarPair[float32, float64, f32ToF64Op](),
	{FORMAT_S16, FORMAT_S16S}:   scalarPair[int16, uint16, s16ToS16sOp](),
	{FORMAT_S16S, FORMAT_S16}:   scalarPair[uint16, int16, s16sToS16Op](),

	{FORMAT_U8, FORMAT_U8}:         scalarPair[uint8, uint8, copyOp[uint8]](),
	{FORMAT_S16, FORMAT_S16}:       scalarPair[int16, int16, copyOp[int16]](),
	{FORMAT_S16S, FORMAT_S16S}:     scalarPair[uint16, uint16, copyOp[uint16]](),
	{FORMAT_S24, FORMAT_S24}:       scalarPair[int24, int24, copyOp[int24]](),
	{FORMAT_S24_32, FORMAT_S24_32}: scalarPair[int32, int32, copyOp[int32]](),
	{FORMAT_S32, FORMAT_S32}:       scalarPair[int32, int32, copyOp[int32]](),
	{FORMAT_F32, FORMAT_F32}:       vectorPair[float32, float32, copyOp[float32]](),
	{FORMAT_F64, FORMAT_F64}:       scalarPair[float64, float64, copyOp[float64]](),
}

// registry holds the kernels of every pair, widest vector variant first and the scalar kernel last.
// It is built once at package initialization and never modified.
type registry struct {
	kernels map[pairKey][]*kernel
}

var defaultRegistry = newRegistry()

func newRegistry() *registry {
	r := &registry{kernels: make(map[pairKey][]*kernel, len(pairs))}

	for key, e := range pairs {
		var list []*kernel

		if e.vector != nil {
			for _, i := range isas {
				list = append(list, &kernel{
					name:   kernelName(key, i.name),
					src:    key.src,
					dst:    key.dst,
					isa:    i.name,
					flags:  i.flags,
					lanes:  i.lanes,
					align:  i.align,
					vector: e.vector,
					scalar: e.scalar,
				})
			}
		}

		list = append(list, &kernel{
			name:   kernelName(key, "c"),
			src:    key.src,
			dst:    key.dst,
			isa:    "c",
			lanes:  1,
			align:  1,
			scalar: e.scalar,
		})

		slices.SortStableFunc(list, func(a, b *kernel) int {
			return b.lanes - a.lanes
		})

		r.kernels[key] = list
	}

	return r
}

// lookup returns the kernels of a pair, or nil if the pair is not supported.
func (r *registry) lookup(src, dst SampleFormat) []*kernel {
	return r.kernels[pairKey{src, dst}]
}

// kernelName returns a name like "conv_s16_to_f32_avx2".
func kernelName(key pairKey, isa string) string {
	return fmt.Sprintf("conv_%s_to_%s_%s", strings.ToLower(key.src.String()), strings.ToLower(key.dst.String()), isa)
}
