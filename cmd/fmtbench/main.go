package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/gen2brain/fmtconv"
)

func main() {
	var (
		srcStr     string
		dstStr     string
		srcLayout  string
		dstLayout  string
		channels   int
		samples    int
		iterations int
	)

	flag.StringVar(&srcStr, "src", "s16", "The source sample format")
	flag.StringVar(&dstStr, "dst", "f32", "The destination sample format")
	flag.StringVar(&srcLayout, "src-layout", "interleaved", "The source layout (interleaved, planar)")
	flag.StringVar(&dstLayout, "dst-layout", "planar", "The destination layout (interleaved, planar)")
	flag.IntVar(&channels, "channels", 2, "The number of channels")
	flag.IntVar(&samples, "samples", 1024, "The number of samples per channel converted per call")
	flag.IntVar(&iterations, "iterations", 10000, "The number of calls per kernel")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nTimes every available kernel of a conversion on aligned buffers.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		for _, name := range []string{"src", "dst", "src-layout", "dst-layout", "channels", "samples", "iterations"} {
			f := flag.Lookup(name)
			if f != nil {
				fmt.Fprintf(os.Stderr, "  --%s\n    \t%v (default %q)\n", f.Name, f.Usage, f.DefValue)
			}
		}
	}

	flag.Parse()

	if channels <= 0 || channels > fmtconv.MaxChannels || samples <= 0 || iterations <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	src, err := parseFormat(srcStr, srcLayout, channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dst, err := parseFormat(dstStr, dstLayout, channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if _, err := fmtconv.Resolve(src, dst, uint32(channels)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	srcBuf, err := fmtconv.AllocBuffer(&fmtconv.BufferConfig{Format: src, Samples: uint32(samples)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error allocating source buffer: %v\n", err)
		os.Exit(1)
	}

	dstBuf, err := fmtconv.AllocBuffer(&fmtconv.BufferConfig{Format: dst, Samples: uint32(samples)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error allocating destination buffer: %v\n", err)
		os.Exit(1)
	}

	in, out := blocks(srcBuf), blocks(dstBuf)
	fillInput(src.SampleFormat, in)

	fmt.Printf("%s -> %s, %d samples per call, %d calls\n", src, dst, samples, iterations)

	detected := fmtconv.CPUFlags()
	for _, k := range fmtconv.NewEngine(detected).Kernels(src.SampleFormat, dst.SampleFormat) {
		if !k.Available {
			fmt.Printf("  %-28s skipped, needs %s\n", k.Name, k.Flags)
			continue
		}

		conv, err := fmtconv.NewEngine(k.Flags).Resolve(src, dst, uint32(channels))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", k.Name, err)
			os.Exit(1)
		}

		start := time.Now()
		for i := 0; i < iterations; i++ {
			if err := conv.Process(out, in, samples); err != nil {
				fmt.Fprintf(os.Stderr, "Error converting with %s: %v\n", k.Name, err)
				os.Exit(1)
			}
		}
		elapsed := time.Since(start)

		perCall := elapsed / time.Duration(iterations)
		rate := float64(samples*channels*iterations) / elapsed.Seconds() / 1e6

		fmt.Printf("  %-28s %10v/call %10.1f Msamples/s\n", k.Name, perCall, rate)
	}
}

func parseFormat(format, layout string, channels int) (fmtconv.Format, error) {
	sf, err := fmtconv.ParseSampleFormat(format)
	if err != nil {
		return fmtconv.Format{}, err
	}

	l, err := fmtconv.ParseLayout(layout)
	if err != nil {
		return fmtconv.Format{}, err
	}

	return fmtconv.Format{SampleFormat: sf, Channels: uint32(channels), Layout: l}, nil
}

func blocks(b *fmtconv.Buffer) [][]byte {
	out := make([][]byte, len(b.Datas))
	for i := range b.Datas {
		out[i] = b.Datas[i].Data
	}

	return out
}

// fillInput fills integer blocks with noise. Float blocks stay silent, random bytes could be NaN.
func fillInput(f fmtconv.SampleFormat, blocks [][]byte) {
	if f == fmtconv.FORMAT_F32 || f == fmtconv.FORMAT_F64 {
		return
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, b := range blocks {
		_, _ = r.Read(b)
	}
}
