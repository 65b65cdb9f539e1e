package expense

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Characters stripped before amount parsing. Sheets cells frequently come
// back formatted with currency glyphs and thousands separators.
var amountNoise = strings.NewReplacer(
	"¥", "",
	"￥", "",
	"$", "",
	"€", "",
	",", "",
	"，", "",
	" ", "",
	" ", "",
	"円", "",
)

// ParseAmount coerces a raw cell value into a non-negative amount.
// Unparseable input coerces to 0 rather than failing; extraction and
// read-back must never reject a row over a malformed amount.
func ParseAmount(raw string) float64 {
	s := amountNoise.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
}

// ParseDate coerces a raw cell value into a civil date. Invalid input
// yields the zero date, which aggregation treats as "no date".
func ParseDate(raw string) civil.Date {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t)
		}
	}
	return civil.Date{}
}
