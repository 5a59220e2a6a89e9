package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes JSON strings, numbers and null into a plain string.
// Upstream services are not consistent about id/quantity field types.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

// FlexInt decodes JSON numbers, numeric strings and null into an int.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*i = 0
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		if v == "" {
			*i = 0
			return nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*i = 0
			return nil
		}
		*i = FlexInt(int(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*i = FlexInt(int(f))
	return nil
}

func (i FlexInt) Int() int { return int(i) }
