package slug

import (
	"regexp"
	"strings"
)

var nonAlphanum = regexp.MustCompile(`[^a-z0-9]+`)

// turkish transliterates Turkish letters to their ASCII equivalents so that
// "Çocuk Ürünleri" becomes "cocuk-urunleri" rather than losing characters.
var turkish = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"Ç", "c", "Ğ", "g", "İ", "i", "Ö", "o", "Ş", "s", "Ü", "u",
)

// Generate creates a URL-friendly slug from the given name.
func Generate(name string) string {
	s := strings.ToLower(turkish.Replace(strings.TrimSpace(name)))
	s = nonAlphanum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}
