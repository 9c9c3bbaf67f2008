package models

import "time"

// DateLayout is the calendar-date format used by date-only fields.
const DateLayout = "2006-01-02"

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func oneOf[T ~string](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Today returns the calendar date of t in DateLayout.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
