// Package textprint writes streams of values in human readable form, either
// formatted one by one or aligned in tables.
package textprint

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// cellEncoder writes the text form of a value in a table cell.
type cellEncoder func(io.Writer, reflect.Value) error

var (
	formatterType = reflect.TypeOf((*fmt.Formatter)(nil)).Elem()
	stringerType  = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

func cellEncoderOf(t reflect.Type) cellEncoder {
	if t.Implements(formatterType) || t.Implements(stringerType) {
		return func(w io.Writer, v reflect.Value) error {
			_, err := fmt.Fprintf(w, "%v", v.Interface())
			return err
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		return appendCell(func(b []byte, v reflect.Value) []byte {
			return strconv.AppendBool(b, v.Bool())
		})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendCell(func(b []byte, v reflect.Value) []byte {
			return strconv.AppendInt(b, v.Int(), 10)
		})
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return appendCell(func(b []byte, v reflect.Value) []byte {
			return strconv.AppendUint(b, v.Uint(), 10)
		})
	case reflect.String:
		return func(w io.Writer, v reflect.Value) error {
			_, err := io.WriteString(w, v.String())
			return err
		}
	case reflect.Pointer:
		return pointerCellEncoder(cellEncoderOf(t.Elem()))
	case reflect.Slice:
		return sliceCellEncoder(cellEncoderOf(t.Elem()))
	default:
		panic("textprint: cannot print values of type " + t.String())
	}
}

func appendCell(appendValue func([]byte, reflect.Value) []byte) cellEncoder {
	return func(w io.Writer, v reflect.Value) error {
		var buf [32]byte
		_, err := w.Write(appendValue(buf[:0], v))
		return err
	}
}

func pointerCellEncoder(elem cellEncoder) cellEncoder {
	return func(w io.Writer, v reflect.Value) error {
		if v.IsNil() {
			_, err := io.WriteString(w, "(none)")
			return err
		}
		return elem(w, v.Elem())
	}
}

func sliceCellEncoder(elem cellEncoder) cellEncoder {
	return func(w io.Writer, v reflect.Value) error {
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				if _, err := io.WriteString(w, ", "); err != nil {
					return err
				}
			}
			if err := elem(w, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
}

func fieldCellEncoder(t reflect.Type, index []int) cellEncoder {
	encode := cellEncoderOf(t)
	return func(w io.Writer, v reflect.Value) error {
		return encode(w, v.FieldByIndex(index))
	}
}
