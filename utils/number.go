package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errEmptyNumber = errors.New("empty number")

// ParseNumber parses human-entered amounts: "5000", "5 000", "5 000,50", "4500.00 ₽", "10%".
func ParseNumber(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(
		"₽", "", "руб.", "", "руб", "", "р.", "", "%", "",
		" ", "", " ", "", " ", "",
	).Replace(s)
	if s == "" {
		return decimal.Zero, errEmptyNumber
	}

	// "1,234.50" keeps the dot; "1234,50" and "1.234,50" use the comma as decimal mark.
	if strings.Contains(s, ",") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return decimal.NewFromString(s)
}
