package pagination

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidSize   = errors.New("invalid_size")
	ErrInvalidOffset = errors.New("invalid_offset")
)

// Offset describes LIMIT offset,size pagination: skip Offset matches and
// return at most Size rows.
type Offset struct {
	Size   int `json:"numberOfItems"`
	Offset int `json:"offset"`
}

func (o Offset) Validate() error {
	if o.Offset < 0 {
		return ErrInvalidOffset
	}
	if o.Size <= 0 {
		return ErrInvalidSize
	}
	return nil
}

// Int accepts a JSON integer or a numeric string. A missing or null value
// leaves Set false.
type Int struct {
	Value int
	Set   bool
}

func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = Int{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	if n, err := strconv.Atoi(raw); err == nil {
		*i = Int{Value: n, Set: true}
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return errors.New("not an integer")
	}
	*i = Int{Value: int(f), Set: true}
	return nil
}

func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(i.Value)), nil
}
