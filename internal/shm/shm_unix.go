//go:build unix

package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Anonymous creates a segment of size bytes backed by an anonymous shared
// mapping. The memory is inherited by child processes.
func Anonymous(size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size: %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("shm: mapping %d bytes: %w", size, err)
	}
	return newSegment(mem, nil, unix.Munmap), nil
}

// Create creates a segment of size bytes backed by the file at path, which is
// created or truncated. Other processes may map the same file to share the
// memory (typically a path under /dev/shm).
func Create(path string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size: %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, err
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mapping %s: %w", path, err)
	}
	return newSegment(mem, f, unix.Munmap), nil
}
