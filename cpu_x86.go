//go:build 386 || amd64

package fmtconv

import "golang.org/x/sys/cpu"

// probeCPU reads the x86 feature bits reported by CPUID.
func probeCPU() CPUFlag {
	var flags CPUFlag

	if cpu.X86.HasSSE2 {
		flags |= CPU_FLAG_SSE2
	}
	if cpu.X86.HasSSSE3 {
		flags |= CPU_FLAG_SSSE3
	}
	if cpu.X86.HasSSE41 {
		flags |= CPU_FLAG_SSE41
	}
	if cpu.X86.HasAVX {
		flags |= CPU_FLAG_AVX
	}
	if cpu.X86.HasAVX2 {
		flags |= CPU_FLAG_AVX2
	}
	if cpu.X86.HasFMA {
		flags |= CPU_FLAG_FMA3
	}
	if cpu.X86.HasAVX512F {
		flags |= CPU_FLAG_AVX512F
	}

	return flags
}
