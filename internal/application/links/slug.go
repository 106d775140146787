package links

import (
	"crypto/rand"
	"strings"
	"unicode"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and strips combining marks, so that
// "Crème Brûlée" slugs to "creme-brulee".
var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Slugify derives a link key from free text: accents stripped, lowercased,
// non-alphanumeric runs collapsed to single hyphens, trimmed to the key
// length limit. Returns an empty string when nothing usable remains.
func Slugify(s string) string {
	flat, _, err := transform.String(deaccent, s)
	if err != nil {
		flat = s
	}

	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.ToLower(flat) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > links.MaxKeyLength {
		slug = strings.Trim(slug[:links.MaxKeyLength], "-")
	}
	return slug
}

// randomKeySuffix returns n random characters from the key alphabet.
func randomKeySuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform source is broken;
		// a constant suffix still yields a valid (if guessable) key.
		return strings.Repeat("0", n)
	}
	for i, c := range buf {
		buf[i] = suffixAlphabet[int(c)%len(suffixAlphabet)]
	}
	return string(buf)
}
