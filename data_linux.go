//go:build linux

package fmtconv

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Map maps the fd of a DATA_MEMFD or DATA_DMABUF block and sets Data to the MaxSize bytes at MapOffset.
// Mapping an already mapped block is a no-op.
func (d *Data) Map() error {
	if d.Data != nil {
		return nil
	}

	if d.Type != DATA_MEMFD && d.Type != DATA_DMABUF {
		return fmt.Errorf("cannot map data of type %s", DataTypeNames[d.Type])
	}

	if d.Fd < 0 {
		return fmt.Errorf("cannot map data of type %s without fd", DataTypeNames[d.Type])
	}

	if d.MaxSize == 0 {
		return fmt.Errorf("cannot map empty data")
	}

	// mmap offsets must be page aligned, map from the page holding MapOffset.
	pageSize := int64(os.Getpagesize())
	start := int64(d.MapOffset) &^ (pageSize - 1)
	skip := int(int64(d.MapOffset) - start)

	buf, err := unix.Mmap(d.Fd, start, skip+int(d.MaxSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap data failed: %w", err)
	}

	d.mapping = buf
	d.Data = buf[skip : skip+int(d.MaxSize) : skip+int(d.MaxSize)]

	return nil
}

// Unmap releases a mapping created by Map. Data blocks that were not mapped are left untouched.
func (d *Data) Unmap() error {
	if d.mapping == nil {
		return nil
	}

	err := unix.Munmap(d.mapping)
	d.mapping = nil
	d.Data = nil

	if err != nil {
		return fmt.Errorf("munmap data failed: %w", err)
	}

	return nil
}

// Flags of SyncStart and SyncEnd.
const (
	DMA_BUF_SYNC_READ  = 1 << 0
	DMA_BUF_SYNC_WRITE = 2 << 0
	DMA_BUF_SYNC_RW    = DMA_BUF_SYNC_READ | DMA_BUF_SYNC_WRITE
	DMA_BUF_SYNC_START = 0 << 2
	DMA_BUF_SYNC_END   = 1 << 2
)

// SyncStart starts CPU access to a DATA_DMABUF block, flags is a combination of DMA_BUF_SYNC_READ and DMA_BUF_SYNC_WRITE.
// It must be called outside the real-time path, before the block is converted.
func (d *Data) SyncStart(flags uint64) error {
	return d.sync(DMA_BUF_SYNC_START | flags)
}

// SyncEnd ends CPU access started with SyncStart, flags must match.
func (d *Data) SyncEnd(flags uint64) error {
	return d.sync(DMA_BUF_SYNC_END | flags)
}

func (d *Data) sync(flags uint64) error {
	if d.Type != DATA_DMABUF {
		return nil
	}

	if d.Fd < 0 {
		return fmt.Errorf("cannot sync dmabuf without fd")
	}

	arg := dmaBufSync{Flags: flags}
	if err := ioctl(uintptr(d.Fd), DMA_BUF_IOCTL_SYNC, uintptr(unsafe.Pointer(&arg))); err != nil {
		return fmt.Errorf("ioctl DMA_BUF_IOCTL_SYNC failed: %w", err)
	}

	return nil
}

// memfdCreate returns a sealed-size anonymous memory fd of size bytes.
func memfdCreate(name string, size int) (int, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return -1, fmt.Errorf("memfd_create failed: %w", err)
	}

	if err = unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)

		return -1, fmt.Errorf("ftruncate memfd failed: %w", err)
	}

	if _, err = unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_GROW|unix.F_SEAL_SHRINK|unix.F_SEAL_SEAL); err != nil {
		_ = unix.Close(fd)

		return -1, fmt.Errorf("seal memfd failed: %w", err)
	}

	return fd, nil
}

func closeFd(fd int) error {
	return unix.Close(fd)
}
