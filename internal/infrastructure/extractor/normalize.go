package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var (
	nonASCIIToken = regexp.MustCompile(`\S*[^\x00-\x7F]\S*`)
	mojibakeHint  = regexp.MustCompile(`[ÃÂâ][\x{0080}-\x{00BF}\x{0152}-\x{2122}]`)
)

// Normalize repairs UTF-8 text that was decoded as Windows-1252 or Latin-1,
// applies NFC, and collapses whitespace inside every line while dropping
// blank lines.
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = FixMojibake(text)
	text = strings.NewReplacer("\u00a0", " ", "\u200b", "", "\r\n", "\n", "\r", "\n").Replace(text)
	text = norm.NFC.String(text)

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// FixMojibake re-decodes tokens that look like UTF-8 bytes rendered through
// a single-byte code page ("cafÃ©" becomes "café"). Tokens that do not
// round-trip cleanly are left untouched.
func FixMojibake(text string) string {
	if !mojibakeHint.MatchString(text) {
		return text
	}
	return nonASCIIToken.ReplaceAllStringFunc(text, repairToken)
}

func repairToken(token string) string {
	if !mojibakeHint.MatchString(token) {
		return token
	}
	raw, ok := sloppyWindows1252(token)
	if !ok || raw == token || !utf8.ValidString(raw) {
		return token
	}
	return raw
}

// sloppyWindows1252 maps every rune back to its Windows-1252 byte. The five
// bytes that code page leaves undefined (0x81, 0x8D, 0x8F, 0x90, 0x9D) come
// back from decoders as the matching C1 control, so U+0080..U+009F pass
// through as single bytes.
func sloppyWindows1252(token string) (string, bool) {
	out := make([]byte, 0, len(token))
	for _, r := range token {
		switch {
		case r <= 0x9f:
			out = append(out, byte(r))
		default:
			b, ok := charmap.Windows1252.EncodeRune(r)
			if !ok {
				return "", false
			}
			out = append(out, b)
		}
	}
	return string(out), true
}
