package utils

import "fmt"

// Format renders an optional value as a report cell. Nil is blank.
func Format[T any](ptr *T) string {
	if ptr == nil {
		return ""
	}
	return fmt.Sprint(*ptr)
}

func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
