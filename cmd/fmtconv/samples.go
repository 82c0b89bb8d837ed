package main

import (
	"encoding/binary"
	"math/bits"

	"golang.org/x/sys/cpu"

	"github.com/gen2brain/fmtconv"
)

// packSamples stores decoded integer samples in native byte order.
func packSamples(dst []byte, f fmtconv.SampleFormat, samples []int) {
	size := int(fmtconv.FormatToBits(f) / 8)

	for i, s := range samples {
		b := dst[i*size:]

		switch f {
		case fmtconv.FORMAT_U8:
			b[0] = uint8(s)
		case fmtconv.FORMAT_S16:
			binary.NativeEndian.PutUint16(b, uint16(int16(s)))
		case fmtconv.FORMAT_S24:
			put24(b, int32(s))
		case fmtconv.FORMAT_S32:
			binary.NativeEndian.PutUint32(b, uint32(int32(s)))
		}
	}
}

// unpackSamples loads native byte order samples as integers for the WAV encoder.
func unpackSamples(samples []int, f fmtconv.SampleFormat, src []byte) {
	size := int(fmtconv.FormatToBits(f) / 8)

	for i := range samples {
		b := src[i*size:]

		switch f {
		case fmtconv.FORMAT_U8:
			samples[i] = int(b[0])
		case fmtconv.FORMAT_S16:
			samples[i] = int(int16(binary.NativeEndian.Uint16(b)))
		case fmtconv.FORMAT_S16S:
			samples[i] = int(int16(bits.ReverseBytes16(binary.NativeEndian.Uint16(b))))
		case fmtconv.FORMAT_S24:
			samples[i] = int(get24(b))
		case fmtconv.FORMAT_S24_32:
			samples[i] = int(int32(binary.NativeEndian.Uint32(b)<<8) >> 8)
		case fmtconv.FORMAT_S32:
			samples[i] = int(int32(binary.NativeEndian.Uint32(b)))
		}
	}
}

func put24(b []byte, v int32) {
	if cpu.IsBigEndian {
		b[0], b[1], b[2] = byte(v>>16), byte(v>>8), byte(v)
	} else {
		b[0], b[1], b[2] = byte(v), byte(v>>8), byte(v>>16)
	}
}

func get24(b []byte) int32 {
	if cpu.IsBigEndian {
		return int32(int8(b[0]))<<16 | int32(b[1])<<8 | int32(b[2])
	}

	return int32(int8(b[2]))<<16 | int32(b[1])<<8 | int32(b[0])
}
