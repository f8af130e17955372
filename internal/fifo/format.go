package fifo

import (
	"fmt"
	"io"
	"strings"
)

// State is a snapshot of the bookkeeping of a fifo.
type State struct {
	Capacity    int       `json:"capacity"           yaml:"capacity"           text:"CAPACITY"`
	Head        int       `json:"head"               yaml:"head"               text:"HEAD"`
	Tail        int       `json:"tail"               yaml:"tail"               text:"TAIL"`
	Size        int       `json:"size"               yaml:"size"               text:"SIZE"`
	Free        int       `json:"free"               yaml:"free"               text:"FREE"`
	NumSegments int       `json:"numSegments"        yaml:"numSegments"        text:"SEGMENTS"`
	Segments    []Segment `json:"segments,omitempty" yaml:"segments,omitempty" text:"-"`
}

// State returns a snapshot of the fifo. It must be called from the producer
// side since it walks the segment directory.
func (f *Fifo) State() State {
	cursize := int(f.hdr.cursize.Load())
	return State{
		Capacity:    int(f.nitems),
		Head:        int(f.hdr.head.Load()),
		Tail:        int(f.hdr.tail.Load()),
		Size:        cursize,
		Free:        int(f.nitems) - cursize,
		NumSegments: f.NumSegments(),
		Segments:    f.Segments(),
	}
}

func (f *Fifo) String() string {
	return fmt.Sprint(f)
}

// Format satisfies the fmt.Formatter interface.
//
// The %v verb prints the occupancy and pointers of the fifo, %+v also prints
// the chain of out-of-order segments.
func (f *Fifo) Format(w fmt.State, v rune) {
	switch v {
	case 'v', 's':
	default:
		fmt.Fprintf(w, "%%!%c(*fifo.Fifo)", v)
		return
	}

	b := new(strings.Builder)
	fmt.Fprintf(b, "cursize %d nitems %d\n", f.hdr.cursize.Load(), f.nitems)
	fmt.Fprintf(b, " head %d tail %d", f.hdr.head.Load(), f.hdr.tail.Load())

	if w.Flag('+') {
		fmt.Fprintf(b, "\n ooo pool %d active elts", f.dir.pool.len())
		for i := f.dir.head; i != none; {
			s := f.dir.pool.at(i)
			fmt.Fprintf(b, "\n  pos %d, len %d, next %d, prev %d", s.start, s.length, index(s.next), index(s.prev))
			i = s.next
		}
	}

	_, _ = io.WriteString(w, b.String())
}

func index(i uint32) int64 {
	if i == none {
		return -1
	}
	return int64(i)
}
