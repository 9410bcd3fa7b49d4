package medevac

import "strconv"

// Ordinal formats n as "1st", "2nd", "3rd", then "4th" and up.
func Ordinal(n int) string {
	suffix := "th"
	switch n {
	case 1:
		suffix = "st"
	case 2:
		suffix = "nd"
	case 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
