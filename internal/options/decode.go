package options

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissing    = errors.New("no value")
	ErrMalformed  = errors.New("malformed json")
	ErrNotObject  = errors.New("not a json object")
	ErrMissingKey = errors.New("missing key")
	ErrKeyType    = errors.New("unexpected value type")
	ErrNotFlat    = errors.New("nested values are not allowed")
)

// ParseError reports why a stored value or a configuration page response
// could not be turned into Options.
type ParseError struct {
	Source string // "store", "response" or "json"
	Key    string // offending key, empty when the document itself is bad
	Err    error
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("options: parse %s: key %q: %v", e.Source, e.Key, e.Err)
	}
	return fmt.Sprintf("options: parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode parses a JSON object into Options. All recognized keys must be
// present; other keys must hold primitive values and are kept as-is.
func Decode(b []byte) (Options, error) {
	return decode("json", b)
}

// DecodeStored parses the value kept under StoreKey.
func DecodeStored(raw string) (Options, error) {
	return decode("store", []byte(raw))
}

func decode(source string, b []byte) (Options, error) {
	fail := func(key string, err error) (Options, error) {
		return Options{}, &ParseError{Source: source, Key: key, Err: err}
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fail("", ErrMissing)
	}
	if !json.Valid(b) {
		return fail("", ErrMalformed)
	}
	if b[0] != '{' {
		return fail("", ErrNotObject)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fail("", fmt.Errorf("%w: %v", ErrMalformed, err))
	}

	var o Options
	for _, key := range recognized {
		raw, ok := fields[key]
		if !ok {
			return fail(key, ErrMissingKey)
		}
		var err error
		switch key {
		case KeyTimezone:
			o.Timezone, err = decodeTimezone(raw)
		case KeyVibWarn:
			o.VibWarn, err = decodeFlag(raw)
		case KeyVibRenew:
			o.VibRenew, err = decodeFlag(raw)
		}
		if err != nil {
			return fail(key, err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err == nil {
			if o.literals == nil {
				o.literals = make(map[string]json.RawMessage, len(recognized))
			}
			o.literals[key] = json.RawMessage(compact.Bytes())
		}
		delete(fields, key)
	}

	for key, raw := range fields {
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return fail(key, fmt.Errorf("%w: %v", ErrMalformed, err))
		}
		if c := compact.Bytes(); len(c) > 0 && (c[0] == '{' || c[0] == '[') {
			return fail(key, ErrNotFlat)
		}
		if o.Extra == nil {
			o.Extra = make(map[string]json.RawMessage, len(fields))
		}
		o.Extra[key] = json.RawMessage(compact.Bytes())
	}
	return o, nil
}

// decodeTimezone accepts a string, or a number kept as its literal text.
func decodeTimezone(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", ErrKeyType
}

// decodeFlag accepts booleans, numbers (non-zero is set) and the strings
// strconv.ParseBool understands.
func decodeFlag(raw json.RawMessage) (bool, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, ErrKeyType
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, ErrKeyType
		}
		return b, nil
	default:
		return false, ErrKeyType
	}
}
