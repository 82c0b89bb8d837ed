//go:build linux

package fmtconv

import (
	"errors"
	"syscall"
	"unsafe"
)

// ioctl performs a generic ioctl syscall, restarting it when interrupted.
func ioctl(fd uintptr, req uintptr, arg uintptr) error {
	for {
		_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, req, arg)
		if errno == 0 {
			return nil
		}

		if !errors.Is(errno, syscall.EINTR) && !errors.Is(errno, syscall.EAGAIN) {
			return errno
		}
	}
}

// iow builds an ioctl request code for a write-only operation.
func iow(typ, nr, size uintptr) uintptr {
	const (
		iocNrbits    = 8
		iocTypebits  = 8
		iocSizebits  = 14
		iocNrshift   = 0
		iocTypeshift = iocNrshift + iocNrbits
		iocSizeshift = iocTypeshift + iocTypebits
		iocDirshift  = iocSizeshift + iocSizebits
		iocWrite     = 1
	)

	return ((iocWrite) << iocDirshift) | (typ << iocTypeshift) | (nr << iocNrshift) | (size << iocSizeshift)
}

// dmaBufSync is the argument of DMA_BUF_IOCTL_SYNC.
type dmaBufSync struct {
	Flags uint64
}

// DMA_BUF_IOCTL_SYNC brackets CPU access to a dma-buf ('b' for dma-buf).
var DMA_BUF_IOCTL_SYNC = iow('b', 0x00, unsafe.Sizeof(dmaBufSync{}))
