// Package buffer recycles the byte buffers used to copy data between fifos
// and the rest of the program.
package buffer

import "sync"

// Buffer is a byte slice which can be returned to a Pool.
type Buffer struct{ Data []byte }

// Pool is a set of buffers of a single size.
type Pool struct {
	size int
	pool sync.Pool
}

// NewPool returns a pool of buffers of size bytes.
func NewPool(size int) *Pool {
	return &Pool{size: size}
}

// Size returns the size of the buffers of p.
func (p *Pool) Size() int { return p.size }

// Get returns a buffer of p.Size() bytes. The content of recycled buffers is
// not cleared.
func (p *Pool) Get() *Buffer {
	if b, _ := p.pool.Get().(*Buffer); b != nil {
		b.Data = b.Data[:p.size]
		return b
	}
	return &Buffer{Data: make([]byte, p.size)}
}

// Put returns b to the pool. Buffers of a different capacity are dropped.
func (p *Pool) Put(b *Buffer) {
	if b != nil && cap(b.Data) == p.size {
		p.pool.Put(b)
	}
}

// Release puts *buf back in pool and clears the reference.
func Release(buf **Buffer, pool *Pool) {
	if b := *buf; b != nil {
		*buf = nil
		pool.Put(b)
	}
}
