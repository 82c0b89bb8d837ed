package fmtconv

import "unsafe"

const (
	// maxLanes is the widest vector width of any kernel.
	maxLanes = 16
	// maxGroup is the widest channel group a kernel processes at once.
	maxGroup = 4
)

// groupFunc converts samples [start, end) of the channels of g.
type groupFunc func(g group, lanes, start, end int)

// channel addresses the samples of one channel inside a block, first and step count samples.
type channel struct {
	b     []byte
	first int
	step  int
}

// group is a run of up to maxGroup channels converted together.
type group struct {
	width int
	src   [maxGroup]channel
	dst   [maxGroup]channel
}

// call holds the blocks of one conversion. It lives on the stack of the converting goroutine.
type call struct {
	channels  int
	srcLayout Layout
	dstLayout Layout
	src       [MaxChannels][]byte
	dst       [MaxChannels][]byte
}

// group returns the channels [ch0, ch0+width) of the call.
func (cl *call) group(ch0, width int) group {
	g := group{width: width}
	for i := 0; i < width; i++ {
		g.src[i] = channelOf(&cl.src, cl.srcLayout, ch0+i, cl.channels)
		g.dst[i] = channelOf(&cl.dst, cl.dstLayout, ch0+i, cl.channels)
	}

	return g
}

// aligned reports whether the blocks holding channels [ch0, ch0+width) start on an align byte boundary.
func (cl *call) aligned(ch0, width, align int) bool {
	return blocksAligned(cl.src[:], cl.srcLayout, ch0, width, align) &&
		blocksAligned(cl.dst[:], cl.dstLayout, ch0, width, align)
}

func channelOf(blocks *[MaxChannels][]byte, layout Layout, ch, channels int) channel {
	if layout == LAYOUT_INTERLEAVED {
		return channel{b: blocks[0], first: ch, step: channels}
	}

	return channel{b: blocks[ch], first: 0, step: 1}
}

func blocksAligned(blocks [][]byte, layout Layout, ch0, width, align int) bool {
	if layout == LAYOUT_INTERLEAVED {
		return isAligned(blocks[0], align)
	}

	for ch := ch0; ch < ch0+width; ch++ {
		if !isAligned(blocks[ch], align) {
			return false
		}
	}

	return true
}

// kernel is one registered implementation of a sample format pair.
type kernel struct {
	name  string
	src   SampleFormat
	dst   SampleFormat
	isa   string
	flags CPUFlag // Capabilities required to run the vector path.
	lanes int
	align int

	vector groupFunc // Nil for scalar kernels.
	scalar groupFunc
}

// run converts n samples of every channel, channel groups of 4, then 2, then 1.
// A group whose blocks miss the alignment of the kernel runs entirely on the scalar path.
func (k *kernel) run(cl *call, n int) {
	for ch := 0; ch < cl.channels; {
		width := groupWidth(cl.channels - ch)
		g := cl.group(ch, width)

		end := 0
		if k.vector != nil && cl.aligned(ch, width, k.align) {
			end = n - n%k.lanes
			k.vector(g, k.lanes, 0, end)
		}

		if end < n {
			k.scalar(g, 1, end, n)
		}

		ch += width
	}
}

func (k *kernel) info(flags CPUFlag) KernelInfo {
	return KernelInfo{
		Name:      k.name,
		ISA:       k.isa,
		Lanes:     k.lanes,
		Align:     k.align,
		Flags:     k.flags,
		Available: flags.Has(k.flags),
	}
}

func groupWidth(remaining int) int {
	switch {
	case remaining >= 4:
		return 4
	case remaining >= 2:
		return 2
	default:
		return 1
	}
}

func sizeOf[T sample]() int {
	var v T

	return int(unsafe.Sizeof(v))
}

// loadSample reads one sample from the start of b, b does not need to be aligned.
func loadSample[T sample](b []byte) T {
	var v T
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)), b)

	return v
}

// storeSample writes one sample to the start of b, b does not need to be aligned.
func storeSample[T sample](b []byte, v T) {
	copy(b, unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)))
}

// viewOf returns b as a slice of samples. The caller guarantees b is aligned for T.
func viewOf[T sample](b []byte) []T {
	size := sizeOf[T]()
	if len(b) < size {
		return nil
	}

	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/size)
}

// strided addresses the samples of one channel inside a typed block.
type strided[T sample] struct {
	s     []T
	first int
	step  int
}

// scalarGroup is the reference kernel of a pair, it converts one sample at a time with byte copies.
func scalarGroup[S, D sample, O laneOp[S, D]](g group, _, start, end int) {
	var op O

	ss, ds := sizeOf[S](), sizeOf[D]()

	for c := 0; c < g.width; c++ {
		s, d := g.src[c], g.dst[c]

		for i := start; i < end; i++ {
			v := loadSample[S](s.b[(s.first+i*s.step)*ss:])
			storeSample(d.b[(d.first+i*d.step)*ds:], op.apply(v))
		}
	}
}

// vectorGroup converts [start, end) in blocks of lanes samples per channel over typed views.
// end-start must be a multiple of lanes and the blocks must be aligned for the kernel.
func vectorGroup[S, D sample, O laneOp[S, D]](g group, lanes, start, end int) {
	var (
		op  O
		in  [maxLanes]S
		out [maxLanes]D
		sv  [maxGroup]strided[S]
		dv  [maxGroup]strided[D]
	)

	for c := 0; c < g.width; c++ {
		s, d := g.src[c], g.dst[c]
		sv[c] = strided[S]{s: viewOf[S](s.b), first: s.first, step: s.step}
		dv[c] = strided[D]{s: viewOf[D](d.b), first: d.first, step: d.step}
	}

	for i := start; i < end; i += lanes {
		for c := 0; c < g.width; c++ {
			s, d := &sv[c], &dv[c]

			base := s.first + i*s.step
			if s.step == 1 {
				copy(in[:lanes], s.s[base:base+lanes])
			} else {
				for l := 0; l < lanes; l++ {
					in[l] = s.s[base+l*s.step]
				}
			}

			for l := 0; l < lanes; l++ {
				out[l] = op.apply(in[l])
			}

			base = d.first + i*d.step
			if d.step == 1 {
				copy(d.s[base:base+lanes], out[:lanes])
			} else {
				for l := 0; l < lanes; l++ {
					d.s[base+l*d.step] = out[l]
				}
			}
		}
	}
}
