package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/gen2brain/fmtconv"
)

func main() {
	var (
		formatStr string
		cpuStr    string
		period    int
		memfd     bool
		verbose   bool
	)

	flag.StringVar(&formatStr, "format", "s16", "The output sample format (u8, s16, s16s, s24, s24_32, s32, f32, f64)")
	flag.StringVar(&cpuStr, "cpu", "", "Restrict kernels to these cpu flags, e.g. 'sse2,avx2' or 'none' (default detected)")
	flag.IntVar(&period, "period", 1024, "The number of frames converted per period")
	flag.BoolVar(&memfd, "memfd", false, "Use memfd backed buffers")
	flag.BoolVar(&verbose, "verbose", false, "Print the selected kernels")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <input-file> <output-file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nConverts a WAV, AIFF, MP3 or Ogg Vorbis file to a WAV file of another sample format, or to raw samples for a .raw output.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		for _, name := range []string{"format", "cpu", "period", "memfd", "verbose"} {
			f := flag.Lookup(name)
			if f != nil {
				fmt.Fprintf(os.Stderr, "  --%s\n    \t%v (default %q)\n", f.Name, f.Usage, f.DefValue)
			}
		}
	}

	flag.Parse()

	if flag.NArg() != 2 || period <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	inputPath, outputPath := flag.Arg(0), flag.Arg(1)
	raw := strings.EqualFold(filepath.Ext(outputPath), ".raw")

	dstFormat, err := fmtconv.ParseSampleFormat(formatStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	bitDepth := wavBitDepth(dstFormat)
	if !raw && bitDepth == 0 {
		fmt.Fprintf(os.Stderr, "Error: format %s can only be written to a .raw file\n", dstFormat)
		os.Exit(1)
	}

	engine := fmtconv.DefaultEngine()
	if cpuStr != "" {
		flags, err := fmtconv.ParseCPUFlags(cpuStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		engine = fmtconv.NewEngine(flags & fmtconv.CPUFlags())
	}

	inFile, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
		os.Exit(1)
	}
	defer inFile.Close()

	decoder, err := openDecoder(inFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}

	channels := uint32(decoder.NumChans())
	rate := decoder.SampleRate()
	if channels == 0 || channels > fmtconv.MaxChannels || rate <= 0 {
		fmt.Fprintf(os.Stderr, "Error: unsupported stream with %d channels at %d Hz\n", channels, rate)
		os.Exit(1)
	}

	srcFmt := fmtconv.Format{SampleFormat: decoder.SampleFormat(), Channels: channels, Layout: fmtconv.LAYOUT_INTERLEAVED}
	midFmt := fmtconv.Format{SampleFormat: fmtconv.FORMAT_F32, Channels: channels, Layout: fmtconv.LAYOUT_PLANAR}
	dstFmt := fmtconv.Format{SampleFormat: dstFormat, Channels: channels, Layout: fmtconv.LAYOUT_INTERLEAVED}

	toFloat, err := engine.Resolve(srcFmt, midFmt, channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %s to %s: %v\n", srcFmt, midFmt, err)
		os.Exit(1)
	}

	fromFloat, err := engine.Resolve(midFmt, dstFmt, channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %s to %s: %v\n", midFmt, dstFmt, err)
		os.Exit(1)
	}

	dataType := fmtconv.DATA_MEMPTR
	if memfd {
		dataType = fmtconv.DATA_MEMFD
	}

	alloc := func(f fmtconv.Format) *fmtconv.Buffer {
		b, err := fmtconv.AllocBuffer(&fmtconv.BufferConfig{Format: f, Samples: uint32(period), Type: dataType, Header: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error allocating %s buffer: %v\n", f, err)
			os.Exit(1)
		}

		return b
	}

	srcBuf, midBuf, dstBuf := alloc(srcFmt), alloc(midFmt), alloc(dstFmt)
	defer srcBuf.Free()
	defer midBuf.Free()
	defer dstBuf.Free()

	outFile, err := os.Create(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	var encoder *wav.Encoder
	if !raw {
		encoder = wav.NewEncoder(outFile, rate, bitDepth, int(channels), 1) // Audio format 1 is PCM
	}

	duration, _ := decoder.Duration()

	fmt.Printf("Input: %s (%s, %d Hz, %s)\n", inputPath, srcFmt, rate, duration.Round(time.Millisecond))
	fmt.Printf("Output: %s (%s)\n", outputPath, dstFmt)
	fmt.Printf("Engine: cpu flags %s, period %d frames, %s buffers\n", engine.CPUFlags(), period, fmtconv.DataTypeNames[dataType])

	if verbose {
		fmt.Printf("Kernels: %s, %s\n",
			toFloat.Select(blocks(midBuf), blocks(srcBuf)), fromFloat.Select(blocks(dstBuf), blocks(midBuf)))
	}

	out := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: int(channels), SampleRate: rate},
		Data:           make([]int, period*int(channels)),
		SourceBitDepth: bitDepth,
	}

	var (
		frames  int
		seq     uint64
		elapsed time.Duration
	)

	for {
		d := &srcBuf.Datas[0]

		count, err := decoder.Read(d.Data)
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(os.Stderr, "Error decoding input: %v\n", err)
			os.Exit(1)
		}

		if count == 0 {
			break
		}

		d.Chunk.Offset = 0
		d.Chunk.Size = uint32(count * srcFmt.Stride())
		d.Chunk.Stride = int32(srcFmt.Stride())

		if h := srcBuf.Header(); h != nil {
			h.Seq = seq
			h.Pts = int64(frames) * int64(time.Second) / int64(rate)
		}

		start := time.Now()
		if err := toFloat.ConvertBuffer(midBuf, srcBuf, count); err != nil {
			fmt.Fprintf(os.Stderr, "Error converting to %s: %v\n", midFmt, err)
			os.Exit(1)
		}
		if err := fromFloat.ConvertBuffer(dstBuf, midBuf, count); err != nil {
			fmt.Fprintf(os.Stderr, "Error converting to %s: %v\n", dstFmt, err)
			os.Exit(1)
		}
		elapsed += time.Since(start)

		region := dstBuf.Datas[0].Region()
		if raw {
			if _, err := outFile.Write(region); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
				os.Exit(1)
			}
		} else {
			out.Data = out.Data[:count*int(channels)]
			unpackSamples(out.Data, dstFmt.SampleFormat, region)
			if err := encoder.Write(out); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding WAV: %v\n", err)
				os.Exit(1)
			}
		}

		frames += count
		seq++

		if err != nil {
			break
		}
	}

	if encoder != nil {
		if err := encoder.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error finalizing WAV: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Converted %d frames in %d periods, %v spent converting.\n", frames, seq, elapsed)
}

func blocks(b *fmtconv.Buffer) [][]byte {
	out := make([][]byte, len(b.Datas))
	for i := range b.Datas {
		out[i] = b.Datas[i].Data
	}

	return out
}

// wavBitDepth returns the WAV bit depth a sample format is written with, 0 if it has none.
func wavBitDepth(f fmtconv.SampleFormat) int {
	switch f {
	case fmtconv.FORMAT_U8:
		return 8
	case fmtconv.FORMAT_S16, fmtconv.FORMAT_S16S:
		return 16
	case fmtconv.FORMAT_S24, fmtconv.FORMAT_S24_32:
		return 24
	case fmtconv.FORMAT_S32:
		return 32
	default:
		return 0
	}
}
