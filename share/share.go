/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package share carries a word list inside a URL fragment, so a link alone is
// enough to start someone else on the same game.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidFragment = errors.New("invalid fragment")

const upperhex = "0123456789ABCDEF"

// unreserved matches the characters a browser's encodeURIComponent leaves alone.
func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// EncodeFragment percent-encodes text so it can be placed after '#'.
func EncodeFragment(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}

	return b.String()
}

// DecodeFragment reverses EncodeFragment. A leading '#' is ignored.
func DecodeFragment(fragment string) (string, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return "", nil
	}

	text, err := url.PathUnescape(fragment)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFragment, err)
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: not valid utf-8", ErrInvalidFragment)
	}

	return text, nil
}

// Link returns base with its query and fragment replaced by text.
func Link(base, text string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("base url %q is not absolute", base)
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""

	return u.String() + "#" + EncodeFragment(text), nil
}

// QR renders link as a PNG of size×size pixels. Long links that do not fit
// at medium error correction are retried at low.
func QR(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err == nil {
		return png, nil
	}

	png, err = qrcode.Encode(link, qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	return png, nil
}
