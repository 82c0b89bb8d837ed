package fmtconv

import (
	"fmt"
	"strings"
	"sync"
)

// CPUFlag is a bitmask of vector instruction set extensions.
type CPUFlag uint32

const (
	CPU_FLAG_SSE2    CPUFlag = 1 << 0
	CPU_FLAG_SSSE3   CPUFlag = 1 << 1
	CPU_FLAG_SSE41   CPUFlag = 1 << 2
	CPU_FLAG_AVX     CPUFlag = 1 << 3
	CPU_FLAG_AVX2    CPUFlag = 1 << 4
	CPU_FLAG_FMA3    CPUFlag = 1 << 5
	CPU_FLAG_AVX512F CPUFlag = 1 << 6
	CPU_FLAG_NEON    CPUFlag = 1 << 16

	// CPU_FLAG_NONE selects the scalar kernels only.
	CPU_FLAG_NONE CPUFlag = 0
)

// CPUFlagNames provides human-readable names for the capability flags, in probe order.
var CPUFlagNames = []struct {
	Flag CPUFlag
	Name string
}{
	{CPU_FLAG_SSE2, "sse2"},
	{CPU_FLAG_SSSE3, "ssse3"},
	{CPU_FLAG_SSE41, "sse41"},
	{CPU_FLAG_AVX, "avx"},
	{CPU_FLAG_AVX2, "avx2"},
	{CPU_FLAG_FMA3, "fma3"},
	{CPU_FLAG_AVX512F, "avx512f"},
	{CPU_FLAG_NEON, "neon"},
}

// cpuFlags is initialized once, on first use, and never changes afterwards.
var cpuFlags = sync.OnceValue(probeCPU)

// CPUFlags returns the vector extensions supported by the running processor.
// The probe runs once per process, it is safe to call from multiple goroutines.
func CPUFlags() CPUFlag {
	return cpuFlags()
}

// Has checks if all flags in mask are set.
func (f CPUFlag) Has(mask CPUFlag) bool {
	return f&mask == mask
}

// String returns a comma separated list of flag names, or "none".
func (f CPUFlag) String() string {
	var names []string
	for _, n := range CPUFlagNames {
		if f&n.Flag != 0 {
			names = append(names, n.Name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ",")
}

// ParseCPUFlags parses a comma separated list of flag names as produced by CPUFlag.String.
// The names "none" and "" select no flags.
func ParseCPUFlags(s string) (CPUFlag, error) {
	var flags CPUFlag

	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || name == "none" {
			continue
		}

		found := false
		for _, n := range CPUFlagNames {
			if n.Name == name {
				flags |= n.Flag
				found = true

				break
			}
		}

		if !found {
			return 0, fmt.Errorf("unknown cpu flag '%s'", name)
		}
	}

	return flags, nil
}
