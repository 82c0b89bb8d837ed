package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/gen2brain/fmtconv"
)

func main() {
	var (
		srcStr string
		dstStr string
		cpuStr string
	)

	flag.StringVar(&srcStr, "src", "", "The source sample format, all formats if empty.")
	flag.StringVar(&dstStr, "dst", "", "The destination sample format, all formats if empty.")
	flag.StringVar(&cpuStr, "cpu", "", "Report availability for these cpu flags instead of the detected ones.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Displays the detected CPU capabilities and the registered conversion kernels.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	detected := fmtconv.CPUFlags()

	flags := detected
	if cpuStr != "" {
		var err error
		if flags, err = fmtconv.ParseCPUFlags(cpuStr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	srcs, err := formats(srcStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dsts, err := formats(dstStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engine := fmtconv.NewEngine(flags)

	fmt.Printf("Detected CPU flags:  %s\n", detected)
	fmt.Printf("Engine CPU flags:    %s\n", flags)
	fmt.Println()

	for _, src := range srcs {
		for _, dst := range dsts {
			kernels := engine.Kernels(src, dst)
			if len(kernels) == 0 {
				continue
			}

			fmt.Printf("%s -> %s:\n", src, dst)
			for i, k := range kernels {
				state := "unavailable"
				if k.Available {
					state = "available"
					if firstAvailable(kernels) == i {
						state = "selected"
					}
				}

				fmt.Printf("  %-28s %-7s lanes %-3d align %-3d %s\n", k.Name, k.ISA, k.Lanes, k.Align, state)
			}
		}
	}
}

// formats parses a sample format name, or returns every format for an empty name.
func formats(name string) ([]fmtconv.SampleFormat, error) {
	if strings.TrimSpace(name) != "" {
		f, err := fmtconv.ParseSampleFormat(name)
		if err != nil {
			return nil, err
		}

		return []fmtconv.SampleFormat{f}, nil
	}

	all := make([]fmtconv.SampleFormat, 0, len(fmtconv.FormatNames))
	for f := range fmtconv.FormatNames {
		all = append(all, f)
	}
	slices.Sort(all)

	return all, nil
}

func firstAvailable(kernels []fmtconv.KernelInfo) int {
	return slices.IndexFunc(kernels, func(k fmtconv.KernelInfo) bool {
		return k.Available
	})
}
