package options

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripThroughResponse(t *testing.T) {
	cases := []Options{
		{Timezone: "-5", VibWarn: true, VibRenew: false},
		{Timezone: "2", VibWarn: false, VibRenew: true},
		{Timezone: "5.5", VibWarn: true, VibRenew: true},
		{Timezone: "UTC+1 & friends/?", VibWarn: false, VibRenew: false},
		{Timezone: "東京", VibWarn: true, VibRenew: true, Extra: map[string]json.RawMessage{
			"theme": json.RawMessage(`"dark"`),
			"count": json.RawMessage(`3`),
		}},
	}
	for _, want := range cases {
		enc, err := EncodeResponse(want)
		require.NoError(t, err)

		got, err := DecodeResponse(enc)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "want %s got %s", want, got)

		stored, err := DecodeStored(want.String())
		require.NoError(t, err)
		assert.True(t, want.Equal(stored))
	}
}

func TestMarshalOrder(t *testing.T) {
	o := Options{Timezone: "2", VibRenew: true, Extra: map[string]json.RawMessage{
		"z": json.RawMessage(`1`),
		"a": json.RawMessage(` "x" `),
	}}
	assert.Equal(t, `{"timezone":"2","vib_warn":false,"vib_renew":true,"a":"x","z":1}`, o.String())
}

func TestConfigurationURL(t *testing.T) {
	o, err := DecodeStored(`{"timezone":"-5","vib_warn":true,"vib_renew":false}`)
	require.NoError(t, err)

	u, err := ConfigurationURL("https://example.com/html/configuration.html", o)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/html/configuration.html?timezone=-5&vib_warn=true&vib_renew=false", u)
	assert.True(t, strings.HasSuffix(u, "timezone=-5&vib_warn=true&vib_renew=false"))

	u, err = ConfigurationURL("https://example.com/html/configuration.html?lang=en", o)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/html/configuration.html?lang=en&timezone=-5&vib_warn=true&vib_renew=false", u)

	_, err = ConfigurationURL("", o)
	require.Error(t, err)
	_, err = ConfigurationURL("file:///etc/passwd", o)
	require.Error(t, err)
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc%26d%3De", EncodeComponent("a b+c&d=e"))
	assert.Equal(t, "-_.!~*'()", EncodeComponent("-_.!~*'()"))
	assert.Equal(t, "%E6%9D%B1", EncodeComponent("東"))

	s, err := DecodeComponent("a%20b+c")
	require.NoError(t, err)
	assert.Equal(t, "a b+c", s)
}

func TestDecodeAcceptsFlagForms(t *testing.T) {
	o, err := Decode([]byte(`{"timezone":-3.5,"vib_warn":1,"vib_renew":"false"}`))
	require.NoError(t, err)
	assert.Equal(t, "-3.5", o.Timezone)
	assert.True(t, o.VibWarn)
	assert.False(t, o.VibRenew)

	o, err = Decode([]byte(`{"timezone":"0","vib_warn":"true","vib_renew":0}`))
	require.NoError(t, err)
	assert.True(t, o.VibWarn)
	assert.False(t, o.VibRenew)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		key  string
		err  error
	}{
		{"empty", "", "", ErrMissing},
		{"null", "null", "", ErrMissing},
		{"garbage", "{not json", "", ErrMalformed},
		{"array", `[1,2]`, "", ErrNotObject},
		{"missing key", `{"timezone":"1","vib_warn":true}`, KeyVibRenew, ErrMissingKey},
		{"bad flag", `{"timezone":"1","vib_warn":"maybe","vib_renew":true}`, KeyVibWarn, ErrKeyType},
		{"bad timezone", `{"timezone":true,"vib_warn":true,"vib_renew":true}`, KeyTimezone, ErrKeyType},
		{"nested", `{"timezone":"1","vib_warn":true,"vib_renew":true,"x":{"y":1}}`, "x", ErrNotFlat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeStored(tc.in)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "store", pe.Source)
			assert.Equal(t, tc.key, pe.Key)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDecodeResponseBadEscape(t *testing.T) {
	_, err := DecodeResponse("%ZZ")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "response", pe.Source)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValuesAndUnmarshal(t *testing.T) {
	var o Options
	require.NoError(t, json.Unmarshal([]byte(`{"timezone":"2","vib_warn":false,"vib_renew":true,"extra":"x"}`), &o))
	v := o.Values()
	assert.Equal(t, "2", v[KeyTimezone])
	assert.Equal(t, false, v[KeyVibWarn])
	assert.Equal(t, true, v[KeyVibRenew])
	assert.Equal(t, "x", v["extra"])

	require.Error(t, json.Unmarshal([]byte(`{"timezone":"2"}`), &o))
}

func TestDefault(t *testing.T) {
	assert.Equal(t, Options{Timezone: "0"}, Default(""))
	assert.Equal(t, "-5", Default("-5").Timezone)
}

func TestRecognizedLiteralsRoundTripUnchanged(t *testing.T) {
	in := `{"timezone":-5,"vib_warn":1,"vib_renew":"0","extra":"x"}`
	o, err := DecodeResponse(EncodeComponent(in))
	require.NoError(t, err)
	assert.Equal(t, "-5", o.Timezone)
	assert.True(t, o.VibWarn)
	assert.False(t, o.VibRenew)
	assert.Equal(t, in, o.String())

	stored, err := DecodeStored(o.String())
	require.NoError(t, err)
	assert.Equal(t, in, stored.String())

	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(b))

	v := o.Values()
	assert.Equal(t, float64(-5), v[KeyTimezone])
	assert.Equal(t, "0", v[KeyVibRenew])
}

func TestChangedFieldDropsLiteral(t *testing.T) {
	o, err := Decode([]byte(`{"timezone":-5,"vib_warn":1,"vib_renew":"0"}`))
	require.NoError(t, err)
	o.VibWarn = false
	o.Timezone = "3"
	assert.Equal(t, `{"timezone":"3","vib_warn":false,"vib_renew":"0"}`, o.String())
}
