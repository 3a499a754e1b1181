// Package options holds the configuration exchanged between the configuration
// page, the persistent store and the paired device.
package options

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// StoreKey is the persistent store key the options are kept under.
const StoreKey = "options"

// Recognized keys, in the order they appear on the configuration URL.
const (
	KeyTimezone = "timezone"
	KeyVibWarn  = "vib_warn"
	KeyVibRenew = "vib_renew"
)

var recognized = []string{KeyTimezone, KeyVibWarn, KeyVibRenew}

// Options is the flat configuration mapping. Keys the companion does not know
// about are kept in Extra, compacted, and written back unchanged. Recognized
// keys keep the literal they were decoded from, so -5 stays a number and "0"
// stays a string when written back.
type Options struct {
	Timezone string
	VibWarn  bool
	VibRenew bool
	Extra    map[string]json.RawMessage

	literals map[string]json.RawMessage
}

// Default returns the options used before the configuration page has ever
// been submitted.
func Default(timezone string) Options {
	if timezone == "" {
		timezone = "0"
	}
	return Options{Timezone: timezone}
}

// Values returns the options as a plain map, the shape sent to the paired device.
func (o Options) Values() map[string]any {
	m := make(map[string]any, len(recognized)+len(o.Extra))
	b, err := o.MarshalJSON()
	if err != nil {
		return m
	}
	_ = json.Unmarshal(b, &m)
	return m
}

// literal 返回 key 解码前的原始写法；字段已被修改时返回 false
func (o Options) literal(key string) (json.RawMessage, bool) {
	raw, ok := o.literals[key]
	if !ok {
		return nil, false
	}
	switch key {
	case KeyTimezone:
		tz, err := decodeTimezone(raw)
		return raw, err == nil && tz == o.Timezone
	case KeyVibWarn:
		f, err := decodeFlag(raw)
		return raw, err == nil && f == o.VibWarn
	case KeyVibRenew:
		f, err := decodeFlag(raw)
		return raw, err == nil && f == o.VibRenew
	}
	return nil, false
}

// MarshalJSON writes the recognized keys first, in URL order, followed by the
// extra keys sorted by name.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	tz, err := json.Marshal(o.Timezone)
	if err != nil {
		return nil, err
	}
	canonical := map[string][]byte{
		KeyTimezone: tz,
		KeyVibWarn:  []byte(strconv.FormatBool(o.VibWarn)),
		KeyVibRenew: []byte(strconv.FormatBool(o.VibRenew)),
	}
	for i, key := range recognized {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + key + `":`)
		if raw, ok := o.literal(key); ok {
			buf.Write(raw)
		} else {
			buf.Write(canonical[key])
		}
	}

	keys := make([]string, 0, len(o.Extra))
	for k := range o.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		var val bytes.Buffer
		if err := json.Compact(&val, o.Extra[k]); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val.Bytes())
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes with the same validation as Decode.
func (o *Options) UnmarshalJSON(b []byte) error {
	v, err := Decode(b)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// String returns the JSON form, used in log lines.
func (o Options) String() string {
	b, err := o.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Equal reports whether both values carry the same keys and values.
func (o Options) Equal(other Options) bool {
	if o.Timezone != other.Timezone || o.VibWarn != other.VibWarn || o.VibRenew != other.VibRenew {
		return false
	}
	if len(o.Extra) != len(other.Extra) {
		return false
	}
	for k, v := range o.Extra {
		w, ok := other.Extra[k]
		if !ok {
			return false
		}
		var a, b bytes.Buffer
		if json.Compact(&a, v) != nil || json.Compact(&b, w) != nil || !bytes.Equal(a.Bytes(), b.Bytes()) {
			return false
		}
	}
	return true
}
