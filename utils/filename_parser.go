package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var mediaFileRegex = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9\-]*?)(?:_(\d+))?\.(?i:png|jpe?g)$`)

// ParseMediaFileName parses a product image filename following the pattern:
// ARTICLE[_N].EXT
// Example: KT-1024_2.jpg -> article "KT-1024", position 2
// Position defaults to 1 when the suffix is missing.
func ParseMediaFileName(filename string) (article string, position int, err error) {
	matches := mediaFileRegex.FindStringSubmatch(strings.TrimSpace(filename))
	if matches == nil {
		return "", 0, fmt.Errorf("invalid media filename %q: expected ARTICLE[_N].jpg|png", filename)
	}

	position = 1
	if matches[2] != "" {
		position, err = strconv.Atoi(matches[2])
		if err != nil || position <= 0 {
			return "", 0, fmt.Errorf("invalid position in media filename %q", filename)
		}
	}
	return strings.ToUpper(matches[1]), position, nil
}
