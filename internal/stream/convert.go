package stream

// ConvertReader returns a Reader producing the values of base passed through
// conv. The stream stops at the first conversion error, which is returned
// along with the values converted before it.
func ConvertReader[To, From any](base Reader[From], conv func(From) (To, error)) Reader[To] {
	return &convertReader[To, From]{base: base, conv: conv}
}

type convertReader[To, From any] struct {
	base  Reader[From]
	conv  func(From) (To, error)
	batch []From
}

func (r *convertReader[To, From]) Read(values []To) (int, error) {
	if cap(r.batch) < len(values) {
		r.batch = make([]From, len(values))
	}
	batch := r.batch[:len(values)]

	n, err := r.base.Read(batch)
	for i, v := range batch[:n] {
		to, cerr := r.conv(v)
		if cerr != nil {
			return i, cerr
		}
		values[i] = to
	}
	return n, err
}
