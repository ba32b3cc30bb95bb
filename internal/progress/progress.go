// Package progress models a task's per-period progress: a sparse mapping from
// a day or week index to a completion value, persisted as a single JSON column.
package progress

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

const (
	MinValue = 0
	MaxValue = 100
)

var (
	ErrNegativeIndex = errors.New("period index must be >= 0")
	ErrValueRange    = fmt.Errorf("progress value must be within [%d, %d]", MinValue, MaxValue)
)

// Periods maps a period index to its progress value. A nil Periods is empty.
type Periods map[int]float64

// Validate checks a single entry before it is merged.
func Validate(index int, value float64) error {
	if index < 0 {
		return ErrNegativeIndex
	}
	if value < MinValue || value > MaxValue {
		return ErrValueRange
	}
	return nil
}

// Set merges value at index, leaving every other index untouched, and returns
// the (possibly newly allocated) mapping.
func (p Periods) Set(index int, value float64) Periods {
	if p == nil {
		p = make(Periods, 1)
	}
	p[index] = value
	return p
}

func (p Periods) Get(index int) (float64, bool) {
	v, ok := p[index]
	return v, ok
}

// Indices returns the populated indices in ascending order.
func (p Periods) Indices() []int {
	out := make([]int, 0, len(p))
	for i := range p {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// MarshalJSON writes an object keyed by decimal index in ascending numeric order.
func (p Periods) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, i := range p.Indices() {
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(i)))
		buf.WriteByte(':')
		v, err := json.Marshal(p[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form and the dense array form, where the
// position is the index and null entries are holes.
func (p *Periods) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	out := Periods{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
	case data[0] == '[':
		var arr []*float64
		if err := json.Unmarshal(data, &arr); err != nil {
			return fmt.Errorf("decode progress array: %w", err)
		}
		for i, v := range arr {
			if v != nil {
				out[i] = *v
			}
		}
	default:
		var obj map[string]float64
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode progress object: %w", err)
		}
		for k, v := range obj {
			i, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("invalid period index %q", k)
			}
			out[i] = v
		}
	}

	*p = out
	return nil
}

// Value implements driver.Valuer; the mapping is always written whole.
func (p Periods) Value() (driver.Value, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for json/jsonb/text columns.
func (p *Periods) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Periods{}
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into progress.Periods", src)
	}
}
