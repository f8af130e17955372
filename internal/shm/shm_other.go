//go:build !unix

package shm

import (
	"errors"
	"fmt"
	"unsafe"
)

// Anonymous creates a segment of size bytes. Platforms without mmap get
// process-private heap memory.
func Anonymous(size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size: %d", size)
	}
	buf := make([]byte, size+Align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(unsafe.SliceData(buf))) % uintptr(Align)); rem != 0 {
		off = Align - rem
	}
	return newSegment(buf[off:off+size:off+size], nil, nil), nil
}

// Create is not supported on this platform.
func Create(path string, size int) (*Segment, error) {
	return nil, fmt.Errorf("shm: creating %s: %w", path, errors.ErrUnsupported)
}
