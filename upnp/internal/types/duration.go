package types

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration returns a string representation of the duration in the
// form of h:mm:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour

	m := d / time.Minute
	d -= m * time.Minute

	s := d / time.Second

	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// ParseDuration parses the string in the form of h:mm:ss with optional
// fractional seconds, as in "0:01:02.500".
func ParseDuration(str string) (time.Duration, error) {
	clock, frac, _ := strings.Cut(strings.TrimPrefix(str, "+"), ".")

	var h, m, s time.Duration
	if _, err := fmt.Sscanf(clock, "%d:%02d:%02d", &h, &m, &s); err != nil {
		return 0, fmt.Errorf("types: invalid duration %q: %w", str, err)
	}
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("types: invalid duration %q", str)
	}

	d := h*time.Hour + m*time.Minute + s*time.Second
	if frac != "" {
		f, err := time.ParseDuration("0." + frac + "s")
		if err != nil {
			return 0, fmt.Errorf("types: invalid duration %q: %w", str, err)
		}
		d += f
	}

	return d, nil
}
