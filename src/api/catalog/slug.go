package catalog

import (
	"strconv"
	"strings"
	"time"
)

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n", "ç", "c",
)

// Slug builds a unique URL slug from brand and name, e.g.
// "lattafa-khamrah-lxq3k8". The time suffix keeps collisions out of the way
// without a retry loop.
func Slug(nombre, marca string) string {
	base := strings.ToLower(strings.TrimSpace(marca + " " + nombre))
	base = accentFolder.Replace(base)

	var b strings.Builder
	lastDash := true
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	return slug + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}
