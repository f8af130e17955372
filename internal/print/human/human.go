// Package human provides types that parse and format human-friendly
// representations of sizes and paths, for use in configuration files, command
// line flags, and program output.
package human

import (
	"fmt"
	"strings"
	"unicode"
)

// splitUnit separates the trailing unit letters of s from its numeric part.
func splitUnit(s string) (value, unit string) {
	i := strings.LastIndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if i < 0 {
		return s, ""
	}
	return strings.TrimRightFunc(s[:i+1], unicode.IsSpace), s[i+1:]
}

// matchUnit reports whether unit is a case-insensitive prefix of name, so "k",
// "K" and "KB" all match "KB".
func matchUnit(unit, name string) bool {
	return len(unit) <= len(name) && strings.EqualFold(unit, name[:len(unit)])
}

// ftoa formats value/scale with a precision that shrinks as the magnitude
// grows, trimming trailing zeros.
func ftoa(value, scale float64) string {
	if value == 0 {
		return "0"
	}
	if value < 0 {
		return "-" + ftoa(-value, scale)
	}

	var format string
	switch v := value / scale; {
	case v >= 100:
		format = "%.0f"
	case v >= 10:
		format = "%.1f"
	case scale > 1:
		format = "%.2f"
	default:
		format = "%.3f"
	}

	s := fmt.Sprintf(format, value/scale)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func printError(verb rune, typ, val any) string {
	return fmt.Sprintf("%%!%c(%T=%v)", verb, typ, val)
}
