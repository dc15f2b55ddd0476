package utils

import "strings"

var sizeAliases = map[string]string{
	"2XL":         "XXL",
	"3XL":         "XXXL",
	"2XS":         "XXS",
	"ONE":         "ONESIZE",
	"OS":          "ONESIZE",
	"Б/Р":         "ONESIZE",
	"БЕЗ РАЗМЕРА": "ONESIZE",
}

// NormalizeSize normalizes size values to the catalog format
// ("xl " -> "XL", "2xl" -> "XXL", "б/р" -> "ONESIZE")
func NormalizeSize(size string) string {
	sizeUpper := strings.ToUpper(strings.TrimSpace(size))
	if alias, ok := sizeAliases[sizeUpper]; ok {
		return alias
	}
	return sizeUpper
}

// NormalizeColor lowercases and collapses whitespace in a color name.
func NormalizeColor(color string) string {
	return strings.Join(strings.Fields(strings.ToLower(color)), " ")
}
