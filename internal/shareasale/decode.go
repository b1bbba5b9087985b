package shareasale

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/pkg/casing"
)

// Field is one named cell of a decoded row.
type Field struct {
	Name  string
	Value any
}

// Record is a decoded row. Fields follow the header order.
type Record []Field

func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the value of name formatted as text, or "" when absent.
func (r Record) String(name string) string {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (r Record) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Name
	}
	return cols
}

func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON writes the record as an object keeping column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

const utf8BOM = "\ufeff"

// DecodeString is Decode over an in-memory payload.
func DecodeString(payload string, casters Casters) ([]Record, error) {
	return Decode(strings.NewReader(payload), casters)
}

// Decode reads a header row and data rows. Column names are camel-cased and
// every data cell goes through the caster of its column, if any. The whole
// payload fails on the first malformed row or cell.
func Decode(r io.Reader, casters Casters) ([]Record, error) {
	br := bufio.NewReader(r)
	if lead, _ := br.Peek(len(utf8BOM)); string(lead) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrDecode, "malformed csv header", err)
	}

	columns := make([]string, len(header))
	cast := make([]Caster, len(header))
	for i, label := range header {
		columns[i] = casing.Camel(label)
		if casters != nil {
			cast[i] = casters.Caster(columns[i])
		}
	}

	records := []Record{}
	for row := 1; ; row++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.New(apperrors.ErrDecode, "malformed csv row", err)
		}

		rec := make(Record, len(cells))
		for i, cell := range cells {
			var value any = cell
			if cast[i] != nil {
				value, err = cast[i](cell)
				if err != nil {
					return nil, apperrors.New(apperrors.ErrDecode, "invalid report value", &CastError{
						Row:    row,
						Column: columns[i],
						Value:  cell,
						Err:    err,
					})
				}
			}
			rec[i] = Field{Name: columns[i], Value: value}
		}
		records = append(records, rec)
	}
	return records, nil
}
