package fmtconv

// Converter converts samples between the two formats it was resolved for.
// It is immutable once resolved and may be called from several goroutines on independent buffers.
// Process, Convert and ConvertBuffer never allocate, lock or block.
type Converter struct {
	src      Format
	dst      Format
	channels int
	scale    float32

	// Usable kernels, widest vector variant first and the scalar kernel last.
	kernels []*kernel
}

// Source returns the source format.
func (c *Converter) Source() Format {
	return c.src
}

// Destination returns the destination format.
func (c *Converter) Destination() Format {
	return c.dst
}

// Channels returns the channel count.
func (c *Converter) Channels() int {
	return c.channels
}

// Scale returns the integer scale of the pair, 1 when neither or both sides are float.
// It is informational, the kernels carry their own constants.
func (c *Converter) Scale() float32 {
	return c.scale
}

// Kernels returns the kernels the converter selects from, in order of preference.
func (c *Converter) Kernels() []KernelInfo {
	infos := make([]KernelInfo, 0, len(c.kernels))
	for _, k := range c.kernels {
		infos = append(infos, k.info(k.flags))
	}

	return infos
}

// Process converts n samples per channel from the src blocks to the dst blocks.
// Interleaved formats take one block, planar formats one block per channel.
// Every block must hold at least n samples of its channels.
func (c *Converter) Process(dst, src [][]byte, n int) error {
	if err := c.check(dst, src, n); err != nil {
		return err
	}

	if n == 0 {
		return nil
	}

	var cl call
	c.stage(&cl, dst, src)
	c.pick(&cl).run(&cl, n)

	return nil
}

// Select returns the kernel Process would use for the given blocks.
func (c *Converter) Select(dst, src [][]byte) KernelInfo {
	if len(src) != c.src.Planes() || len(dst) != c.dst.Planes() {
		k := c.kernels[len(c.kernels)-1]

		return k.info(k.flags)
	}

	var cl call
	c.stage(&cl, dst, src)
	k := c.pick(&cl)

	return k.info(k.flags)
}

// Convert converts n samples per channel from the valid region of the src blocks into the dst blocks.
// The destination is written from offset 0 and its chunks are updated to describe the written samples.
// Destination blocks fed by a corrupted source block are flagged as corrupted, the flag is cleared otherwise.
func (c *Converter) Convert(dst, src []Data, n int) error {
	if len(src) != c.src.Planes() || len(dst) != c.dst.Planes() || n < 0 {
		return ErrShape
	}

	srcSize := n * c.src.Stride()
	dstSize := n * c.dst.Stride()

	for i := range src {
		d := &src[i]
		if d.Chunk == nil {
			return ErrShape
		}
		if d.Data == nil && d.Type != DATA_MEMPTR {
			return ErrNotMapped
		}
		if len(d.Region()) < srcSize {
			return ErrShortBuffer
		}
	}

	for i := range dst {
		d := &dst[i]
		if d.Chunk == nil {
			return ErrShape
		}
		if d.Data == nil && d.Type != DATA_MEMPTR {
			return ErrNotMapped
		}
		if int(min(d.MaxSize, uint32(len(d.Data)))) < dstSize {
			return ErrShortBuffer
		}
	}

	if n > 0 {
		var cl call
		c.stage(&cl, nil, nil)
		for i := range src {
			cl.src[i] = src[i].Region()
		}
		for i := range dst {
			cl.dst[i] = dst[i].Data
		}

		c.pick(&cl).run(&cl, n)
	}

	corrupted := c.corruptedChannels(src)

	for i := range dst {
		d := &dst[i]

		d.Chunk.Offset = 0
		d.Chunk.Size = uint32(dstSize)
		d.Chunk.Stride = int32(c.dst.Stride())

		hit := corrupted&(1<<i) != 0
		if c.dst.Layout == LAYOUT_INTERLEAVED {
			hit = corrupted != 0
		}

		if hit {
			d.Flags |= DATA_FLAG_CORRUPTED
		} else {
			d.Flags &^= DATA_FLAG_CORRUPTED
		}
	}

	return nil
}

// ConvertBuffer converts n samples per channel between the Datas of two buffers.
// The header meta of src, if any, is copied to the header meta of dst, which is flagged when any destination block is corrupted.
func (c *Converter) ConvertBuffer(dst, src *Buffer, n int) error {
	if dst == nil || src == nil {
		return ErrShape
	}

	if err := c.Convert(dst.Datas, src.Datas, n); err != nil {
		return err
	}

	dh := dst.Header()
	if dh == nil {
		return nil
	}

	if sh := src.Header(); sh != nil {
		*dh = *sh
	}

	dh.Flags &^= META_HEADER_FLAG_CORRUPTED
	for i := range dst.Datas {
		if dst.Datas[i].IsCorrupted() {
			dh.Flags |= META_HEADER_FLAG_CORRUPTED

			break
		}
	}

	return nil
}

// check validates the block counts and sizes of a Process call.
func (c *Converter) check(dst, src [][]byte, n int) error {
	if len(src) != c.src.Planes() || len(dst) != c.dst.Planes() || n < 0 {
		return ErrShape
	}

	srcSize := n * c.src.Stride()
	for _, b := range src {
		if len(b) < srcSize {
			return ErrShortBuffer
		}
	}

	dstSize := n * c.dst.Stride()
	for _, b := range dst {
		if len(b) < dstSize {
			return ErrShortBuffer
		}
	}

	return nil
}

// corruptedChannels returns a mask of the channels read from corrupted source blocks.
// A corrupted interleaved block taints every channel.
func (c *Converter) corruptedChannels(src []Data) uint64 {
	var mask uint64

	for i := range src {
		if !src[i].IsCorrupted() {
			continue
		}

		if c.src.Layout == LAYOUT_INTERLEAVED {
			return ^uint64(0) >> (64 - c.channels)
		}

		mask |= 1 << i
	}

	return mask
}

// stage prepares cl for a call on the given blocks.
func (c *Converter) stage(cl *call, dst, src [][]byte) {
	cl.channels = c.channels
	cl.srcLayout = c.src.Layout
	cl.dstLayout = c.dst.Layout

	copy(cl.src[:], src)
	copy(cl.dst[:], dst)
}

// pick returns the first kernel whose alignment is met by every block of cl.
func (c *Converter) pick(cl *call) *kernel {
	for _, k := range c.kernels {
		if k.vector == nil || cl.aligned(0, c.channels, k.align) {
			return k
		}
	}

	return c.kernels[len(c.kernels)-1]
}
