package fmtconv_test

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/fmtconv"
)

const vectorFlags = fmtconv.CPU_FLAG_SSE2 | fmtconv.CPU_FLAG_AVX2 | fmtconv.CPU_FLAG_AVX512F | fmtconv.CPU_FLAG_NEON

var (
	stereoS16 = fmtconv.Format{SampleFormat: fmtconv.FORMAT_S16, Channels: 2, Layout: fmtconv.LAYOUT_INTERLEAVED}
	stereoF32 = fmtconv.Format{SampleFormat: fmtconv.FORMAT_F32, Channels: 2, Layout: fmtconv.LAYOUT_PLANAR}
)

func allocBuffer(t *testing.T, f fmtconv.Format, samples uint32) *fmtconv.Buffer {
	t.Helper()

	b, err := fmtconv.AllocBuffer(&fmtconv.BufferConfig{Format: f, Samples: samples, Header: true})
	require.NoError(t, err)

	return b
}

func blocks(b *fmtconv.Buffer) [][]byte {
	out := make([][]byte, len(b.Datas))
	for i := range b.Datas {
		out[i] = b.Datas[i].Data
	}

	return out
}

// fillS16 writes frame i as (i*1000-8000, 8000-i*1000) and returns the samples per channel.
func fillS16(b *fmtconv.Buffer, n int) [2][]int16 {
	var samples [2][]int16

	d := &b.Datas[0]
	for i := 0; i < n; i++ {
		l, r := int16(i*1000-8000), int16(8000-i*1000)
		binary.NativeEndian.PutUint16(d.Data[i*4:], uint16(l))
		binary.NativeEndian.PutUint16(d.Data[i*4+2:], uint16(r))
		samples[0] = append(samples[0], l)
		samples[1] = append(samples[1], r)
	}

	d.Chunk.Offset = 0
	d.Chunk.Size = uint32(n * 4)
	d.Chunk.Stride = 4

	return samples
}

// edgeS16 starts with full scale and one unit around zero.
var edgeS16 = []int16{0, 32767, -32768, 1, -1, 16384, -16384, 8192, -8192, 256, -256, 100, -100, 12345, -12345, 32766, -32767}

// fillS16Frames writes interleaved frames of the given left and right samples.
func fillS16Frames(b *fmtconv.Buffer, left, right []int16) {
	d := &b.Datas[0]
	for i := range left {
		binary.NativeEndian.PutUint16(d.Data[i*4:], uint16(left[i]))
		binary.NativeEndian.PutUint16(d.Data[i*4+2:], uint16(right[i]))
	}

	d.Chunk.Offset = 0
	d.Chunk.Size = uint32(len(left) * 4)
	d.Chunk.Stride = 4
}

func TestConvertStereoS16ToPlanarF32(t *testing.T) {
	const n = 17

	testCases := []struct {
		name   string
		flags  fmtconv.CPUFlag
		kernel string
	}{
		{"Scalar", fmtconv.CPU_FLAG_NONE, "conv_s16_to_f32_c"},
		{"SSE2", fmtconv.CPU_FLAG_SSE2, "conv_s16_to_f32_sse2"},
		{"AVX2", fmtconv.CPU_FLAG_SSE2 | fmtconv.CPU_FLAG_AVX2, "conv_s16_to_f32_avx2"},
		{"AVX512", vectorFlags, "conv_s16_to_f32_avx512"},
		{"NEON", fmtconv.CPU_FLAG_NEON, "conv_s16_to_f32_neon"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conv, err := fmtconv.NewEngine(tc.flags).Resolve(stereoS16, stereoF32, 2)
			require.NoError(t, err)

			src := allocBuffer(t, stereoS16, n)
			dst := allocBuffer(t, stereoF32, n)

			right := make([]int16, n)
			for i := range right {
				right[i] = edgeS16[(i+3)%n]
			}
			samples := [2][]int16{edgeS16, right}
			fillS16Frames(src, samples[0], samples[1])

			assert.Equal(t, tc.kernel, conv.Select(blocks(dst), blocks(src)).Name)

			require.NoError(t, conv.Convert(dst.Datas, src.Datas, n))

			left := dst.Datas[0].Data
			assert.Equal(t, []float32{0, 0.999969482421875, -1, 0.000030517578125, -0.000030517578125},
				[]float32{
					math.Float32frombits(binary.NativeEndian.Uint32(left[0:])),
					math.Float32frombits(binary.NativeEndian.Uint32(left[4:])),
					math.Float32frombits(binary.NativeEndian.Uint32(left[8:])),
					math.Float32frombits(binary.NativeEndian.Uint32(left[12:])),
					math.Float32frombits(binary.NativeEndian.Uint32(left[16:])),
				})

			for ch := 0; ch < 2; ch++ {
				d := dst.Datas[ch]
				assert.Equal(t, fmtconv.Chunk{Offset: 0, Size: n * 4, Stride: 4}, *d.Chunk)
				assert.False(t, d.IsCorrupted())

				for i := 0; i < n; i++ {
					got := math.Float32frombits(binary.NativeEndian.Uint32(d.Data[i*4:]))
					assert.Equal(t, float32(samples[ch][i])/32768, got, "channel %d sample %d", ch, i)
				}
			}
		})
	}
}

func TestConvertMisalignedFallsBack(t *testing.T) {
	const n = 40

	conv, err := fmtconv.NewEngine(vectorFlags).Resolve(stereoF32, stereoS16, 2)
	require.NoError(t, err)

	src := allocBuffer(t, stereoF32, n+16)
	dst := allocBuffer(t, stereoS16, n+16)

	in := [][]byte{src.Datas[0].Data[32:], src.Datas[1].Data[32:]}
	out := [][]byte{dst.Datas[0].Data}
	assert.Equal(t, "conv_f32_to_s16_avx2", conv.Select(out, in).Name, "64 byte alignment missing, 32 byte present")

	in = [][]byte{src.Datas[0].Data[4:], src.Datas[1].Data[4:]}
	assert.Equal(t, "conv_f32_to_s16_c", conv.Select(out, in).Name)

	for i := 0; i < n; i++ {
		binary.NativeEndian.PutUint32(in[0][i*4:], math.Float32bits(float32(i)/64))
		binary.NativeEndian.PutUint32(in[1][i*4:], math.Float32bits(-float32(i)/64))
	}

	require.NoError(t, conv.Process(out, in, n))

	for i := 0; i < n; i++ {
		assert.Equal(t, int16(i*512), int16(binary.NativeEndian.Uint16(out[0][i*4:])))
		assert.Equal(t, int16(-i*512), int16(binary.NativeEndian.Uint16(out[0][i*4+2:])))
	}
}

func TestResolveErrors(t *testing.T) {
	u8 := fmtconv.Format{SampleFormat: fmtconv.FORMAT_U8, Channels: 2}
	s32 := fmtconv.Format{SampleFormat: fmtconv.FORMAT_S32, Channels: 2}

	_, err := fmtconv.Resolve(u8, s32, 2)
	assert.ErrorIs(t, err, fmtconv.ErrUnsupported)

	_, err = fmtconv.Resolve(stereoS16, stereoF32, 3)
	assert.ErrorIs(t, err, fmtconv.ErrInvalidFormat)

	_, err = fmtconv.Resolve(fmtconv.Format{SampleFormat: fmtconv.FORMAT_S16}, stereoF32, 0)
	assert.ErrorIs(t, err, fmtconv.ErrInvalidFormat)

	conv, err := fmtconv.Resolve(stereoS16, stereoF32, 2)
	require.NoError(t, err)
	assert.Equal(t, stereoS16, conv.Source())
	assert.Equal(t, stereoF32, conv.Destination())
	assert.Equal(t, 2, conv.Channels())
	assert.Equal(t, float32(32768), conv.Scale())
	assert.NotEmpty(t, conv.Kernels())
}

func TestProcessErrors(t *testing.T) {
	conv, err := fmtconv.NewEngine(fmtconv.CPU_FLAG_NONE).Resolve(stereoS16, stereoF32, 2)
	require.NoError(t, err)

	src := [][]byte{make([]byte, 64)}
	dst := [][]byte{make([]byte, 64), make([]byte, 64)}

	assert.ErrorIs(t, conv.Process(dst[:1], src, 4), fmtconv.ErrShape)
	assert.ErrorIs(t, conv.Process(dst, [][]byte{src[0], src[0]}, 4), fmtconv.ErrShape)
	assert.ErrorIs(t, conv.Process(dst, src, -1), fmtconv.ErrShape)
	assert.ErrorIs(t, conv.Process(dst, src, 17), fmtconv.ErrShortBuffer)
	assert.ErrorIs(t, conv.Process([][]byte{dst[0][:8], dst[1]}, src, 4), fmtconv.ErrShortBuffer)
	assert.NoError(t, conv.Process(dst, src, 16))
	assert.NoError(t, conv.Process(dst, src, 0))
}

func TestConvertErrors(t *testing.T) {
	conv, err := fmtconv.NewEngine(fmtconv.CPU_FLAG_NONE).Resolve(stereoS16, stereoF32, 2)
	require.NoError(t, err)

	src := allocBuffer(t, stereoS16, 16)
	dst := allocBuffer(t, stereoF32, 16)
	fillS16(src, 8)

	t.Run("Shape", func(t *testing.T) {
		assert.ErrorIs(t, conv.Convert(dst.Datas[:1], src.Datas, 8), fmtconv.ErrShape)
		assert.ErrorIs(t, conv.ConvertBuffer(nil, src, 8), fmtconv.ErrShape)
	})

	t.Run("ShortSource", func(t *testing.T) {
		assert.ErrorIs(t, conv.Convert(dst.Datas, src.Datas, 9), fmtconv.ErrShortBuffer)
	})

	t.Run("ShortDestination", func(t *testing.T) {
		short := allocBuffer(t, stereoF32, 4)
		assert.ErrorIs(t, conv.Convert(short.Datas, src.Datas, 8), fmtconv.ErrShortBuffer)
	})

	t.Run("NoChunk", func(t *testing.T) {
		datas := []fmtconv.Data{{Type: fmtconv.DATA_MEMPTR, MaxSize: 64, Data: make([]byte, 64)}}
		assert.ErrorIs(t, conv.Convert(dst.Datas, datas, 8), fmtconv.ErrShape)
	})

	t.Run("NotMapped", func(t *testing.T) {
		datas := []fmtconv.Data{{Type: fmtconv.DATA_MEMFD, Fd: -1, MaxSize: 64, Chunk: &fmtconv.Chunk{Size: 64}}}
		assert.ErrorIs(t, conv.Convert(dst.Datas, datas, 8), fmtconv.ErrNotMapped)
	})

	t.Run("DestinationUntouched", func(t *testing.T) {
		assert.Equal(t, fmtconv.Chunk{Stride: 4}, *dst.Datas[0].Chunk)
		assert.Equal(t, make([]byte, 64), dst.Datas[0].Data)
	})
}

func TestConvertCorrupted(t *testing.T) {
	planarS16 := fmtconv.Format{SampleFormat: fmtconv.FORMAT_S16, Channels: 2, Layout: fmtconv.LAYOUT_PLANAR}
	interleavedF32 := fmtconv.Format{SampleFormat: fmtconv.FORMAT_F32, Channels: 2, Layout: fmtconv.LAYOUT_INTERLEAVED}

	prepare := func(b *fmtconv.Buffer, n int) {
		for i := range b.Datas {
			b.Datas[i].Chunk.Size = uint32(n * int(b.Datas[i].Chunk.Stride))
		}
	}

	t.Run("PlanarToPlanar", func(t *testing.T) {
		conv, err := fmtconv.Resolve(planarS16, stereoF32, 2)
		require.NoError(t, err)

		src := allocBuffer(t, planarS16, 8)
		dst := allocBuffer(t, stereoF32, 8)
		prepare(src, 8)

		src.Datas[1].Flags |= fmtconv.DATA_FLAG_CORRUPTED
		dst.Datas[0].Flags |= fmtconv.DATA_FLAG_CORRUPTED

		require.NoError(t, conv.Convert(dst.Datas, src.Datas, 8))
		assert.False(t, dst.Datas[0].IsCorrupted(), "stale flag should be cleared")
		assert.True(t, dst.Datas[1].IsCorrupted())
	})

	t.Run("InterleavedToPlanar", func(t *testing.T) {
		conv, err := fmtconv.Resolve(stereoS16, stereoF32, 2)
		require.NoError(t, err)

		src := allocBuffer(t, stereoS16, 8)
		dst := allocBuffer(t, stereoF32, 8)
		fillS16(src, 8)

		src.Datas[0].Flags |= fmtconv.DATA_FLAG_CORRUPTED

		require.NoError(t, conv.Convert(dst.Datas, src.Datas, 8))
		assert.True(t, dst.Datas[0].IsCorrupted())
		assert.True(t, dst.Datas[1].IsCorrupted())
	})

	t.Run("PlanarToInterleaved", func(t *testing.T) {
		conv, err := fmtconv.Resolve(planarS16, interleavedF32, 2)
		require.NoError(t, err)

		src := allocBuffer(t, planarS16, 8)
		dst := allocBuffer(t, interleavedF32, 8)
		prepare(src, 8)

		src.Datas[0].Flags |= fmtconv.DATA_FLAG_CORRUPTED

		require.NoError(t, conv.Convert(dst.Datas, src.Datas, 8))
		assert.True(t, dst.Datas[0].IsCorrupted())
	})

	t.Run("BufferHeader", func(t *testing.T) {
		conv, err := fmtconv.Resolve(stereoS16, stereoF32, 2)
		require.NoError(t, err)

		src := allocBuffer(t, stereoS16, 8)
		dst := allocBuffer(t, stereoF32, 8)
		fillS16(src, 8)

		sh := src.Header()
		require.NotNil(t, sh)
		sh.Pts = 48000
		sh.Seq = 3
		sh.Flags = fmtconv.META_HEADER_FLAG_DISCONT

		require.NoError(t, conv.ConvertBuffer(dst, src, 8))

		dh := dst.Header()
		require.NotNil(t, dh)
		assert.Equal(t, int64(48000), dh.Pts)
		assert.Equal(t, uint64(3), dh.Seq)
		assert.Equal(t, uint32(fmtconv.META_HEADER_FLAG_DISCONT), dh.Flags)

		src.Datas[0].Flags |= fmtconv.DATA_FLAG_CORRUPTED
		require.NoError(t, conv.ConvertBuffer(dst, src, 8))
		assert.Equal(t, uint32(fmtconv.META_HEADER_FLAG_DISCONT|fmtconv.META_HEADER_FLAG_CORRUPTED), dh.Flags)
	})
}

func TestConvertChunkOffset(t *testing.T) {
	conv, err := fmtconv.NewEngine(fmtconv.CPU_FLAG_NONE).Resolve(stereoS16, stereoF32, 2)
	require.NoError(t, err)

	src := allocBuffer(t, stereoS16, 16)
	dst := allocBuffer(t, stereoF32, 8)
	fillS16(src, 16)

	// Skip the first 8 frames.
	src.Datas[0].Chunk.Offset = 32
	src.Datas[0].Chunk.Size = 32

	require.NoError(t, conv.Convert(dst.Datas, src.Datas, 8))

	for i := 0; i < 8; i++ {
		got := math.Float32frombits(binary.NativeEndian.Uint32(dst.Datas[0].Data[i*4:]))
		assert.Equal(t, float32((i+8)*1000-8000)/32768, got)
	}
}

func TestConvertNoAllocations(t *testing.T) {
	for name, flags := range map[string]fmtconv.CPUFlag{"Scalar": fmtconv.CPU_FLAG_NONE, "Vector": vectorFlags} {
		t.Run(name, func(t *testing.T) {
			conv, err := fmtconv.NewEngine(flags).Resolve(stereoS16, stereoF32, 2)
			require.NoError(t, err)

			src := allocBuffer(t, stereoS16, 256)
			dst := allocBuffer(t, stereoF32, 256)
			fillS16(src, 17)

			allocs := testing.AllocsPerRun(100, func() {
				_ = conv.Convert(dst.Datas, src.Datas, 17)
			})
			assert.Zero(t, allocs)

			in, out := blocks(src), blocks(dst)
			allocs = testing.AllocsPerRun(100, func() {
				_ = conv.Process(out, in, 256)
			})
			assert.Zero(t, allocs)
		})
	}
}

func TestConvertersConcurrent(t *testing.T) {
	const n = 64

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		conv, err := fmtconv.Resolve(stereoS16, stereoF32, 2)
		require.NoError(t, err)

		src := allocBuffer(t, stereoS16, n)
		dst := allocBuffer(t, stereoF32, n)
		samples := fillS16(src, n)

		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				if !assert.NoError(t, conv.Convert(dst.Datas, src.Datas, n)) {
					return
				}
			}

			got := math.Float32frombits(binary.NativeEndian.Uint32(dst.Datas[1].Data[(n-1)*4:]))
			assert.Equal(t, float32(samples[1][n-1])/32768, got)
		}()
	}
	wg.Wait()
}

func TestConverterShared(t *testing.T) {
	const n = 64

	conv, err := fmtconv.NewEngine(vectorFlags).Resolve(stereoS16, stereoF32, 2)
	require.NoError(t, err)

	type job struct {
		src, dst *fmtconv.Buffer
		left     []int16
		right    []int16
	}

	jobs := make([]job, 8)
	for g := range jobs {
		j := &jobs[g]
		j.src = allocBuffer(t, stereoS16, n)
		j.dst = allocBuffer(t, stereoF32, n)

		for i := 0; i < n; i++ {
			j.left = append(j.left, int16(g*1000+i))
			j.right = append(j.right, int16(-g*1000-i))
		}
		fillS16Frames(j.src, j.left, j.right)
	}

	var wg sync.WaitGroup
	for g := range jobs {
		j := jobs[g]

		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				if !assert.NoError(t, conv.Convert(j.dst.Datas, j.src.Datas, n)) {
					return
				}
			}

			for i := 0; i < n; i++ {
				l := math.Float32frombits(binary.NativeEndian.Uint32(j.dst.Datas[0].Data[i*4:]))
				r := math.Float32frombits(binary.NativeEndian.Uint32(j.dst.Datas[1].Data[i*4:]))
				assert.Equal(t, float32(j.left[i])/32768, l)
				assert.Equal(t, float32(j.right[i])/32768, r)
			}
		}()
	}
	wg.Wait()
}

func TestEngineKernels(t *testing.T) {
	infos := fmtconv.NewEngine(fmtconv.CPU_FLAG_SSE2).Kernels(fmtconv.FORMAT_S32, fmtconv.FORMAT_F32)
	require.Len(t, infos, 5)

	available := map[string]bool{}
	for _, k := range infos {
		available[k.ISA] = k.Available
	}

	assert.Equal(t, map[string]bool{"avx512": false, "avx2": false, "sse2": true, "neon": false, "c": true}, available)
	assert.Equal(t, "c", infos[len(infos)-1].ISA)

	infos = fmtconv.NewEngine(vectorFlags).Kernels(fmtconv.FORMAT_U8, fmtconv.FORMAT_F32)
	require.Len(t, infos, 1)
	assert.Equal(t, "conv_u8_to_f32_c", infos[0].String())

	assert.Empty(t, fmtconv.DefaultEngine().Kernels(fmtconv.FORMAT_U8, fmtconv.FORMAT_S16))
}
