package exam

import (
	"strconv"
	"strings"
	"time"

	"github.com/peterhellberg/duration"
)

// ParseDuration reads the free-text duration of an exam when it is in a
// machine-readable form: Go syntax ("1h30m"), ISO-8601 ("PT90M") or a bare
// number of minutes ("90"). Anything else reports false; the text itself is
// always kept as entered.
func ParseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, false
		}
		return time.Duration(n) * time.Minute, true
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	if d, err := duration.Parse(strings.ToUpper(s)); err == nil && d > 0 {
		return d, true
	}
	return 0, false
}
