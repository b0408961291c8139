package lms

import (
	"strings"
)

// The LMS CLI percent-encodes every token it exchanges. The stdlib url
// escapers are close but not usable here: QueryEscape turns spaces into '+',
// PathEscape leaves protocol-reserved bytes alone, and both unescapers reject
// malformed sequences that the protocol expects us to pass through untouched.

const upperhex = "0123456789ABCDEF"

// Quote percent-encodes s for the wire. Bytes outside ASCII letters, digits,
// '_', '.', '-' and '/' are escaped as %XX.
func Quote(s string) string {
	return QuoteSafe(s, "/")
}

// QuoteSafe is Quote with a caller-supplied additional safe set.
func QuoteSafe(s, safe string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if alwaysSafe(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

// Unquote reverses Quote. Malformed escape sequences pass through literally;
// the protocol tolerates partial encoding.
func Unquote(s string) string {
	if s == "" {
		return ""
	}

	segments := strings.Split(s, "%")
	if len(segments) == 1 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(segments[0])
	for _, segment := range segments[1:] {
		if len(segment) >= 2 {
			hi, okHi := unhex(segment[0])
			lo, okLo := unhex(segment[1])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				b.WriteString(segment[2:])
				continue
			}
		}
		b.WriteByte('%')
		b.WriteString(segment)
	}
	return b.String()
}

func alwaysSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.' || c == '-':
		return true
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
