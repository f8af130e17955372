package chaos

import (
	"errors"

	"github.com/stealthrocket/shmfifo/internal/fifo"
)

// Receiver is the producer side of a byte fifo. *fifo.Fifo implements it.
type Receiver interface {
	Enqueue(data []byte) (int, error)
	EnqueueWithOffset(offset int, data []byte) error
}

// Delivery hands fragments of a stream to a receiver, keeping track of the
// stream offset that the receiver's tail corresponds to. Fragments that do not
// fit are held back until Retry is called.
//
// Delivery is not safe for concurrent use; it runs on the producer side.
type Delivery struct {
	recv    Receiver
	tail    int
	pending []Fragment
}

// NewDelivery returns a Delivery writing to recv, whose tail is assumed to be
// at the start of the stream.
func NewDelivery(recv Receiver) *Delivery {
	return &Delivery{recv: recv}
}

// Tail returns the stream offset up to which the receiver holds contiguous
// data.
func (d *Delivery) Tail() int { return d.tail }

// Pending returns the number of fragments held back.
func (d *Delivery) Pending() int { return len(d.pending) }

// Push delivers the fragments in order. Fragments, or the unwritten suffix of
// a fragment, that the receiver has no room for are kept for a later Retry.
// Data the receiver already made contiguous is dropped.
func (d *Delivery) Push(frags ...Fragment) error {
	for _, f := range frags {
		if err := d.push(f); err != nil {
			return err
		}
	}
	return nil
}

// Retry attempts to deliver the fragments held back by previous calls.
func (d *Delivery) Retry() error {
	pending := d.pending
	d.pending = nil
	for i, f := range pending {
		if err := d.push(f); err != nil {
			d.pending = append(d.pending, pending[i+1:]...)
			return err
		}
	}
	return nil
}

func (d *Delivery) push(f Fragment) error {
	if f.End() <= d.tail {
		return nil
	}
	if f.Offset < d.tail {
		f.Data = f.Data[d.tail-f.Offset:]
		f.Offset = d.tail
	}

	if f.Offset > d.tail {
		err := d.recv.EnqueueWithOffset(f.Offset-d.tail, f.Data)
		if errors.Is(err, fifo.ErrFull) {
			d.pending = append(d.pending, f)
			return nil
		}
		return err
	}

	n, err := d.recv.Enqueue(f.Data)
	if err != nil {
		if errors.Is(err, fifo.ErrFull) {
			d.pending = append(d.pending, f)
			return nil
		}
		return err
	}
	d.tail += n
	if n < len(f.Data) {
		f.Data = f.Data[n:]
		f.Offset = d.tail
		d.pending = append(d.pending, f)
	}
	return nil
}

// Deliver pushes a whole schedule to recv and retries held back fragments
// once. It returns the stream offset of the receiver's tail and the number of
// fragments that still could not be delivered.
func Deliver(recv Receiver, schedule []Fragment) (tail, pending int, err error) {
	d := NewDelivery(recv)
	if err := d.Push(schedule...); err != nil {
		return d.tail, d.Pending(), err
	}
	if err := d.Retry(); err != nil {
		return d.tail, d.Pending(), err
	}
	return d.tail, d.Pending(), nil
}
