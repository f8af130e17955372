package textprint

import (
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/stealthrocket/shmfifo/internal/stream"
	"golang.org/x/exp/slices"
)

// TableOption configures a table writer.
type TableOption[T any] func(*tableWriter[T])

// Header enables or disables the line of column names. It is enabled by
// default.
func Header[T any](enable bool) TableOption[T] {
	return func(t *tableWriter[T]) { t.header = enable }
}

// List restricts the table to its first column.
func List[T any](enable bool) TableOption[T] {
	return func(t *tableWriter[T]) { t.list = enable }
}

// OrderBy sorts the rows with the less function before printing them.
func OrderBy[T any](less func(T, T) bool) TableOption[T] {
	return func(t *tableWriter[T]) { t.orderBy = less }
}

// NewTableWriter returns a writer printing values of T as rows of a table,
// one column per exported field. Column names default to the field names and
// are overridden by a "text" struct tag; a tag of "-" omits the field.
//
// Rows are buffered and printed on Close so that columns can be aligned.
func NewTableWriter[T any](w io.Writer, opts ...TableOption[T]) stream.WriteCloser[T] {
	t := &tableWriter[T]{output: w, header: true}
	for _, opt := range opts {
		opt(t)
	}
	t.columns = tableColumnsOf(reflect.TypeOf((*T)(nil)).Elem())
	if t.list && len(t.columns) > 1 {
		t.columns = t.columns[:1]
	}
	return t
}

type tableColumn struct {
	name   string
	encode cellEncoder
}

func tableColumnsOf(t reflect.Type) []tableColumn {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var columns []tableColumn
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("text"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		columns = append(columns, tableColumn{
			name:   name,
			encode: fieldCellEncoder(f.Type, f.Index),
		})
	}
	return columns
}

type tableWriter[T any] struct {
	output  io.Writer
	columns []tableColumn
	rows    []T
	header  bool
	list    bool
	orderBy func(T, T) bool
}

func (t *tableWriter[T]) Write(values []T) (int, error) {
	t.rows = append(t.rows, values...)
	return len(values), nil
}

func (t *tableWriter[T]) Close() error {
	if t.orderBy != nil {
		slices.SortFunc(t.rows, t.orderBy)
	}

	tw := tabwriter.NewWriter(t.output, 0, 4, 2, ' ', 0)

	if t.header {
		names := make([]string, len(t.columns))
		for i, c := range t.columns {
			names[i] = c.name
		}
		if _, err := io.WriteString(tw, strings.Join(names, "\t")+"\n"); err != nil {
			return err
		}
	}

	for i := range t.rows {
		row := reflect.Indirect(reflect.ValueOf(&t.rows[i]).Elem())
		for j, c := range t.columns {
			if j > 0 {
				if _, err := io.WriteString(tw, "\t"); err != nil {
					return err
				}
			}
			if err := c.encode(tw, row); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(tw, "\n"); err != nil {
			return err
		}
	}

	return tw.Flush()
}
