//go:build arm64

package fmtconv

import "golang.org/x/sys/cpu"

// probeCPU reads the arm64 feature bits. ASIMD is the AArch64 name of NEON.
func probeCPU() CPUFlag {
	if cpu.ARM64.HasASIMD {
		return CPU_FLAG_NEON
	}

	return CPU_FLAG_NONE
}
