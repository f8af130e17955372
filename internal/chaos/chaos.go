// Package chaos produces adversarial delivery schedules for byte streams.
//
// A stream is cut into fragments which are then shuffled, duplicated, and
// merged the way a lossy network path would hand them to a receiver. The
// schedules are deterministic for a given random source so failures can be
// replayed from a seed.
package chaos

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	maxChance = 1024 * 1024 * 1024
)

// Fragment is a piece of a stream identified by its offset from the start of
// the stream.
type Fragment struct {
	Offset int
	Data   []byte
}

// End returns the stream offset right after the last byte of f.
func (f Fragment) End() int { return f.Offset + len(f.Data) }

func (f Fragment) String() string {
	return fmt.Sprintf("[%d:%d]", f.Offset, f.End())
}

// Split cuts stream into fragments of at most size bytes, in stream order.
func Split(stream []byte, size int) []Fragment {
	if size <= 0 {
		panic("chaos: fragment size must be positive")
	}
	frags := make([]Fragment, 0, (len(stream)+size-1)/size)
	for off := 0; off < len(stream); off += size {
		end := min(off+size, len(stream))
		frags = append(frags, Fragment{Offset: off, Data: stream[off:end:end]})
	}
	return frags
}

// Reorder splits stream into fragments of at most size bytes and shuffles
// them so that no fragment is scheduled more than window-1 positions earlier
// than its place in the stream. Fragments may be delayed arbitrarily. A window
// of zero or one leaves the schedule in stream order.
func Reorder(prng *rand.Rand, stream []byte, size, window int) []Fragment {
	frags := Split(stream, size)
	if window <= 1 {
		return frags
	}
	for i := range frags {
		j := i + prng.Intn(min(window, len(frags)-i))
		frags[i], frags[j] = frags[j], frags[i]
	}
	return frags
}

// Duplicate returns a copy of schedule where each fragment has the given chance
// of being delivered a second time a few positions later, optionally coalesced
// with the fragment that follows it in the stream. Retransmitted data overlaps
// data the receiver may already hold, which is the case reassembly must absorb.
func Duplicate(prng *rand.Rand, schedule []Fragment, chance float64) []Fragment {
	threshold := toChance(chance)
	byOffset := make(map[int]Fragment, len(schedule))
	for _, f := range schedule {
		byOffset[f.Offset] = f
	}

	type delayed struct {
		frag  Fragment
		after int
	}
	var pending []delayed
	out := make([]Fragment, 0, len(schedule)+len(schedule)/4)

	for i, f := range schedule {
		out = append(out, f)

		if prng.Int63()&(maxChance-1) < threshold {
			dup := f
			if next, ok := byOffset[f.End()]; ok && prng.Intn(2) == 0 {
				dup = coalesce(f, next)
			}
			pending = append(pending, delayed{frag: dup, after: i + 1 + prng.Intn(4)})
		}

		j := 0
		for _, d := range pending {
			if d.after <= i {
				out = append(out, d.frag)
			} else {
				pending[j] = d
				j++
			}
		}
		pending = pending[:j]
	}

	for _, d := range pending {
		out = append(out, d.frag)
	}
	return out
}

// toChance converts a probability in the range [0;1] to an integer threshold.
func toChance(chance float64) int64 {
	if chance < 0 || chance > 1 {
		panic("chaos: chance is not in the range [0;1]")
	}
	return int64(math.Round(chance * maxChance))
}

func coalesce(a, b Fragment) Fragment {
	data := make([]byte, 0, len(a.Data)+len(b.Data))
	data = append(data, a.Data...)
	data = append(data, b.Data...)
	return Fragment{Offset: a.Offset, Data: data}
}
