//go:build !386 && !amd64 && !arm64

package fmtconv

// probeCPU reports no vector extensions, only the scalar kernels are used.
func probeCPU() CPUFlag {
	return CPU_FLAG_NONE
}
