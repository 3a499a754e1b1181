package options

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const hexUpper = "0123456789ABCDEF"

// EncodeComponent escapes s the way browsers escape a URI component:
// everything except ALPHA / DIGIT / - _ . ! ~ * ' ( ) is percent-encoded.
func EncodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexUpper[c>>4])
		b.WriteByte(hexUpper[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// DecodeComponent reverses EncodeComponent. '+' is left alone.
func DecodeComponent(s string) (string, error) {
	return url.PathUnescape(s)
}

// Query renders the recognized keys as key=value pairs in URL order.
func (o Options) Query() string {
	pairs := []string{
		KeyTimezone + "=" + EncodeComponent(o.Timezone),
		KeyVibWarn + "=" + EncodeComponent(strconv.FormatBool(o.VibWarn)),
		KeyVibRenew + "=" + EncodeComponent(strconv.FormatBool(o.VibRenew)),
	}
	return strings.Join(pairs, "&")
}

// ConfigurationURL appends the options query to the configuration page URL.
func ConfigurationURL(base string, o Options) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", errors.New("options: configuration page url is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("options: invalid configuration page url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("options: unsupported configuration page scheme %q", u.Scheme)
	}

	sep := "?"
	switch {
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		sep = ""
	case strings.Contains(base, "?"):
		sep = "&"
	}
	return base + sep + o.Query(), nil
}

// DecodeResponse URL-decodes the payload returned by a closing configuration
// page and parses it.
func DecodeResponse(response string) (Options, error) {
	s, err := DecodeComponent(response)
	if err != nil {
		return Options{}, &ParseError{Source: "response", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return decode("response", []byte(s))
}

// EncodeResponse is the inverse of DecodeResponse.
func EncodeResponse(o Options) (string, error) {
	b, err := o.MarshalJSON()
	if err != nil {
		return "", err
	}
	return EncodeComponent(string(b)), nil
}
