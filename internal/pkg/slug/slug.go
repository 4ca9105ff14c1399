// Package slug turns post titles into URL-safe identifiers.
package slug

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength matches the varchar(255) slug column
const MaxLength = 255

const separator = '-'

// Lowercase base36 so generated suffixes stay valid slugs
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// transliterations covers letters NFKD cannot reduce to ASCII.
// Cyrillic follows the common Ukrainian/Russian passport romanization.
var transliterations = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'ґ': "g", 'д': "d",
	'е': "e", 'є': "ye", 'ё': "yo", 'ж': "zh", 'з': "z", 'и': "i",
	'і': "i", 'ї': "yi", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh",
	'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya", 'ß': "ss", 'æ': "ae", 'œ': "oe", 'ø': "o", 'đ': "d",
	'ł': "l", 'þ': "th", 'ð': "d", '@': " at ", '&': " and ",
}

// stripMarks removes combining marks left behind by NFKD (é -> e)
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make derives a slug: transliterated, lowercase, runs of other characters
// collapsed into a single hyphen, no leading or trailing hyphen. It may return
// an empty string when nothing in the input maps to [a-z0-9].
func Make(title string) string {
	lowered := strings.ToLower(title)

	var expanded strings.Builder
	expanded.Grow(len(lowered))
	for _, r := range lowered {
		if repl, ok := transliterations[r]; ok {
			expanded.WriteString(repl)
			continue
		}
		expanded.WriteRune(r)
	}

	ascii, _, err := transform.String(stripMarks, expanded.String())
	if err != nil {
		ascii = expanded.String()
	}

	var b strings.Builder
	b.Grow(len(ascii))
	pending := false
	for _, r := range ascii {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte(separator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	return Truncate(b.String(), MaxLength)
}

// Generate returns Make(title), falling back to "post-<random>" when the title
// yields nothing usable.
func Generate(title string) (string, error) {
	if s := Make(title); s != "" {
		return s, nil
	}
	suffix, err := RandomSuffix(8)
	if err != nil {
		return "", err
	}
	return "post-" + suffix, nil
}

// WithSuffix appends "-suffix" while keeping the result within MaxLength.
func WithSuffix(s, suffix string) string {
	room := MaxLength - len(suffix) - 1
	return Truncate(s, room) + string(separator) + suffix
}

// Truncate cuts s to at most max runes and drops a dangling separator.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max])
	}
	return strings.TrimRight(s, string(separator))
}

// RandomSuffix creates a cryptographically secure random base36 string.
func RandomSuffix(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid suffix length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 252 is the largest multiple of 36 below 256.
	const maxRandomByte = 252

	out := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			out[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(out), nil
}
