package feed

import (
	"regexp"
	"strings"
)

// Recognized XML entities that must not be double-escaped: the five named
// predefined entities plus decimal/hex numeric references.
var xmlEntityRe = regexp.MustCompile(`^&(amp|lt|gt|quot|apos|#[0-9]{1,7}|#x[0-9a-fA-F]{1,6});`)

// Sanitize repairs the malformed markup publisher feeds routinely ship:
// bare ampersands become &amp; and control characters outside the printable
// whitespace range are stripped. Runs before any parsing.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 16)

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '&' {
			if xmlEntityRe.MatchString(raw[i:]) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
			continue
		}
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			continue
		}
		if c == 0x7f {
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}
