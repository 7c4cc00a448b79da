package share

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFragment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "abc", want: "abc"},
		{name: "unreserved marks", in: "a-b_c.d!e~f*g'h(i)", want: "a-b_c.d!e~f*g'h(i)"},
		{name: "space and newline", in: "a b\nc", want: "a%20b%0Ac"},
		{name: "separators", in: "polite: kind, nice", want: "polite%3A%20kind%2C%20nice"},
		{name: "em dash", in: "—", want: "%E2%80%94"},
		{name: "reserved", in: "#?&=+/", want: "%23%3F%26%3D%2B%2F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeFragment(tt.in))
		})
	}
}

func TestDecodeFragment(t *testing.T) {
	text := "polite — shows good manners\nshy - nervous, quiet"

	got, err := DecodeFragment("#" + EncodeFragment(text))
	require.NoError(t, err)
	assert.Equal(t, text, got)

	got, err = DecodeFragment("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = DecodeFragment("a+b")
	require.NoError(t, err)
	assert.Equal(t, "a+b", got)
}

func TestDecodeFragmentMalformed(t *testing.T) {
	for _, in := range []string{"%", "%zz", "abc%E2", "%FF%FE"} {
		_, err := DecodeFragment(in)
		assert.ErrorIs(t, err, ErrInvalidFragment, in)
	}
}

func TestLink(t *testing.T) {
	link, err := Link("https://example.com/match/abc?x=1#old", "tall: of great height")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/match/abc#tall%3A%20of%20great%20height", link)

	_, err = Link("/match/abc", "a: b")
	assert.Error(t, err)
}

func TestQR(t *testing.T) {
	png, err := QR("https://example.com/match/abc#a%3A%20b", 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = QR("https://example.com/#"+strings.Repeat("x", 8000), 128)
	assert.Error(t, err)
}
