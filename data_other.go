//go:build !linux

package fmtconv

import "errors"

var errNoFd = errors.New("fd backed data is only supported on linux")

// Flags of SyncStart and SyncEnd.
const (
	DMA_BUF_SYNC_READ  = 1 << 0
	DMA_BUF_SYNC_WRITE = 2 << 0
	DMA_BUF_SYNC_RW    = DMA_BUF_SYNC_READ | DMA_BUF_SYNC_WRITE
	DMA_BUF_SYNC_START = 0 << 2
	DMA_BUF_SYNC_END   = 1 << 2
)

// Map is not supported on this platform.
func (d *Data) Map() error {
	if d.Data != nil {
		return nil
	}

	return errNoFd
}

// Unmap is a no-op on this platform.
func (d *Data) Unmap() error {
	return nil
}

// SyncStart is not supported on this platform.
func (d *Data) SyncStart(flags uint64) error {
	if d.Type != DATA_DMABUF {
		return nil
	}

	return errNoFd
}

// SyncEnd is not supported on this platform.
func (d *Data) SyncEnd(flags uint64) error {
	if d.Type != DATA_DMABUF {
		return nil
	}

	return errNoFd
}

func memfdCreate(string, int) (int, error) {
	return -1, errNoFd
}

func closeFd(int) error {
	return errNoFd
}
