package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Options is the ordered choice list of a select, radio or checkbox
// question. It is stored as a JSON array; rows written by older clients
// may hold a plain comma separated string, which is split on read.
type Options []string

func (o Options) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *Options) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("options: unsupported column type %T", src)
	}

	opts, err := ParseOptions(raw)
	if err != nil {
		return err
	}
	*o = opts
	return nil
}

// ParseOptions decodes a stored option list. Accepted shapes are a JSON
// array of strings, a JSON string holding comma separated values, and a
// bare comma separated string. Anything opening with '[' must be a
// well-formed array of strings.
func ParseOptions(raw []byte) (Options, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("options: malformed list %q: %w", raw, err)
		}
		return Options(list), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return splitLegacy(s), nil
		}
	}
	return splitLegacy(string(raw)), nil
}

func splitLegacy(s string) Options {
	if s == "" {
		return nil
	}
	return Options(strings.Split(s, ","))
}
